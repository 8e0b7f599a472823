/*
 * Copyright 2026 The Modem Core Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package atlog defines the small leveled-logging interface the
// driver's internal packages log through, so the host application can
// supply its own sink (Zap, Zerolog, ...) without this module
// importing any of them. The default implementation is backed by
// log/slog.
package atlog

import (
	"context"
	"log/slog"
	"os"
)

// Logger is the leveled logging capability taskpool and atengine log
// through. Any *slog.Logger already satisfies it.
type Logger interface {
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Default returns a Logger backed by slog's default text handler
// writing to stderr, used when a caller doesn't supply one.
func Default() Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

// noop discards everything; useful in tests that don't want log
// output but also don't want to wire a real logger.
type noop struct{}

func (noop) Warn(string, ...any)  {}
func (noop) Error(string, ...any) {}

// Noop returns a Logger that discards everything.
func Noop() Logger { return noop{} }

// contextKey avoids collisions with other packages' context keys.
type contextKey struct{}

// WithLogger returns a context carrying l, retrievable with FromContext.
func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// FromContext returns the Logger stored in ctx, or Default() if none.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(contextKey{}).(Logger); ok {
		return l
	}
	return Default()
}
