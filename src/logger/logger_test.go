// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package logger_test

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/H0llyW00dzZ/x509-path-validator/src/logger"
)

func TestTextLogger(t *testing.T) {
	tests := []struct {
		name     string
		testFunc func(t *testing.T)
	}{
		{
			name: "Printf",
			testFunc: func(t *testing.T) {
				var buf bytes.Buffer
				log := logger.NewTextLogger()
				log.SetOutput(&buf)

				log.Printf("candidate %d rejected", 2)
				assert.Contains(t, buf.String(), "candidate 2 rejected")
			},
		},
		{
			name: "SetOutput switches destination",
			testFunc: func(t *testing.T) {
				var buf1, buf2 bytes.Buffer
				log := logger.NewTextLogger()

				log.SetOutput(&buf1)
				log.Println("first")
				log.SetOutput(&buf2)
				log.Println("second")

				assert.Contains(t, buf1.String(), "first")
				assert.NotContains(t, buf1.String(), "second")
				assert.Contains(t, buf2.String(), "second")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.testFunc(t)
		})
	}
}

func TestJSONLogger(t *testing.T) {
	tests := []struct {
		name     string
		testFunc func(t *testing.T)
	}{
		{
			name: "Silent",
			testFunc: func(t *testing.T) {
				var buf bytes.Buffer
				log := logger.NewJSONLogger(&buf, true)
				log.Printf("hidden %s", "message")
				log.Println("hidden")
				assert.Empty(t, buf.String())
			},
		},
		{
			name: "Printf encodes one object per line",
			testFunc: func(t *testing.T) {
				var buf bytes.Buffer
				log := logger.NewJSONLogger(&buf, false)
				log.Printf("path length %d", 3)

				var got map[string]string
				require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
				assert.Equal(t, "info", got["level"])
				assert.Equal(t, "path length 3", got["message"])
				assert.True(t, strings.HasSuffix(buf.String(), "\n"))
			},
		},
		{
			name: "Escaping",
			testFunc: func(t *testing.T) {
				var buf bytes.Buffer
				log := logger.NewJSONLogger(&buf, false)
				msg := "subject \"CN=Test\"\n\tO=Example"
				log.Println(msg)

				var got map[string]string
				require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
				assert.Equal(t, msg, got["message"])
			},
		},
		{
			name: "Nil writer",
			testFunc: func(t *testing.T) {
				log := logger.NewJSONLogger(nil, false)
				assert.NotPanics(t, func() { log.Println("dropped") })
				log.SetOutput(nil)
				assert.NotPanics(t, func() { log.Printf("dropped %d", 1) })
			},
		},
		{
			name: "Discard",
			testFunc: func(t *testing.T) {
				assert.NotPanics(t, func() {
					logger.Discard.Printf("x %d", 1)
					logger.Discard.Println("y")
					logger.Discard.SetOutput(nil)
				})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.testFunc(t)
		})
	}
}

func TestJSONLogger_Concurrent(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewJSONLogger(&buf, false)

	const workers, perWorker = 8, 50
	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := range perWorker {
				log.Printf("worker %d message %d", w, i)
			}
		}(w)
	}
	wg.Wait()

	lines := 0
	sc := bufio.NewScanner(&buf)
	for sc.Scan() {
		var got map[string]string
		require.NoError(t, json.Unmarshal(sc.Bytes(), &got), "interleaved line: %q", sc.Text())
		lines++
	}
	assert.Equal(t, workers*perWorker, lines)
}
