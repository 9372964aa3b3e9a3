// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/H0llyW00dzZ/x509-path-validator/src/internal/helper/gc"
)

// Logger defines the interface for logging operations.
//
// Implementations must be safe for concurrent use, since a single validator
// may be shared by many goroutines validating different leaves.
type Logger interface {
	// Printf formats and prints a log message.
	Printf(format string, v ...any)
	// Println prints a log message with a newline.
	Println(v ...any)
	// SetOutput sets the output destination for the logger.
	SetOutput(w io.Writer)
}

// Discard is a Logger that drops every message.
var Discard Logger = discard{}

type discard struct{}

func (discard) Printf(string, ...any) {}
func (discard) Println(...any)        {}
func (discard) SetOutput(io.Writer)   {}

// TextLogger implements Logger using the standard log package.
type TextLogger struct{ logger *log.Logger }

// NewTextLogger creates a human-readable logger writing to stderr with
// timestamps disabled.
func NewTextLogger() *TextLogger {
	return &TextLogger{logger: log.New(os.Stderr, "", 0)}
}

// Printf formats and prints a log message using fmt.Printf semantics.
func (t *TextLogger) Printf(format string, v ...any) { t.logger.Printf(format, v...) }

// Println prints a log message with a newline.
func (t *TextLogger) Println(v ...any) { t.logger.Println(v...) }

// SetOutput sets the output destination for the text logger.
func (t *TextLogger) SetOutput(w io.Writer) { t.logger.SetOutput(w) }

// entry is the JSON line written by JSONLogger.
type entry struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// JSONLogger writes one JSON object per line with "level" and "message" keys.
//
// JSONLogger is safe for concurrent use by multiple goroutines.
type JSONLogger struct {
	mu     sync.Mutex
	writer io.Writer
	silent bool
}

// NewJSONLogger creates a JSON-lines logger. A nil writer discards output.
// When silent is true every message is suppressed.
func NewJSONLogger(writer io.Writer, silent bool) *JSONLogger {
	if writer == nil {
		writer = io.Discard
	}
	return &JSONLogger{
		writer: writer,
		silent: silent,
	}
}

// Printf formats and logs a structured message.
func (j *JSONLogger) Printf(format string, v ...any) {
	if j.silent {
		return
	}
	j.write(fmt.Sprintf(format, v...))
}

// Println logs a structured message.
func (j *JSONLogger) Println(v ...any) {
	if j.silent {
		return
	}
	j.write(fmt.Sprint(v...))
}

func (j *JSONLogger) write(msg string) {
	buf := gc.Default.Get()
	defer gc.Default.Put(buf)

	// Encode appends the trailing newline.
	if err := json.NewEncoder(buf).Encode(entry{Level: "info", Message: msg}); err != nil {
		return
	}

	j.mu.Lock()
	buf.WriteTo(j.writer)
	j.mu.Unlock()
}

// SetOutput sets the output destination. A nil writer discards output.
func (j *JSONLogger) SetOutput(w io.Writer) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if w == nil {
		j.writer = io.Discard
	} else {
		j.writer = w
	}
}
