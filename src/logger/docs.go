// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package logger provides the logging abstraction used by the path validator.
// It defines the Logger interface and three implementations: TextLogger for
// human-readable output, JSONLogger for structured JSON lines, and Discard,
// which every component falls back to when no logger is injected.
package logger
