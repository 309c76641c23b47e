/*-------------------------------------------------------------------------
 *
 * log_context.go
 *    Log context helpers for structured logging
 *
 * Provides helpers for consistent structured logging with request_id,
 * cycle_id, review_item_id, and stage fields across all components.
 *
 * Copyright (c) 2024-2026, IPAMC, Inc. <engineering@ipamc.io>
 *
 * IDENTIFICATION
 *    accessreview/internal/metrics/log_context.go
 *
 *-------------------------------------------------------------------------
 */

package metrics

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const (
	requestIDKey    contextKey = "request_id"
	cycleIDKey      contextKey = "cycle_id"
	reviewItemIDKey contextKey = "review_item_id"
	stageKey        contextKey = "stage"
)

/* WithRequestIDLogContext adds the request ID to log context */
func WithRequestIDLogContext(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

/* WithCycleIDLogContext adds the review cycle ID to log context */
func WithCycleIDLogContext(ctx context.Context, cycleID uuid.UUID) context.Context {
	return context.WithValue(ctx, cycleIDKey, cycleID.String())
}

/* WithReviewItemLogContext adds the review item ID and stage to log context */
func WithReviewItemLogContext(ctx context.Context, itemID uuid.UUID, stage string) context.Context {
	ctx = context.WithValue(ctx, reviewItemIDKey, itemID.String())
	if stage != "" {
		ctx = context.WithValue(ctx, stageKey, stage)
	}
	return ctx
}

/* GetRequestIDFromContext gets the request ID from context */
func GetRequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

func getStringFromContext(ctx context.Context, key contextKey) string {
	if s, ok := ctx.Value(key).(string); ok {
		return s
	}
	return ""
}

/* LoggerFromContext creates a zerolog logger with fields from context */
func LoggerFromContext(ctx context.Context) zerolog.Logger {
	logger := baseLogger

	if requestID := GetRequestIDFromContext(ctx); requestID != "" {
		logger = logger.With().Str("request_id", requestID).Logger()
	}
	if cycleID := getStringFromContext(ctx, cycleIDKey); cycleID != "" {
		logger = logger.With().Str("cycle_id", cycleID).Logger()
	}
	if itemID := getStringFromContext(ctx, reviewItemIDKey); itemID != "" {
		logger = logger.With().Str("review_item_id", itemID).Logger()
	}
	if stage := getStringFromContext(ctx, stageKey); stage != "" {
		logger = logger.With().Str("stage", stage).Logger()
	}

	return logger
}

/* LogWithContext logs a message with context fields */
func LogWithContext(ctx context.Context, level zerolog.Level, message string, fields map[string]interface{}) {
	logger := LoggerFromContext(ctx)
	event := logger.WithLevel(level)

	for key, value := range fields {
		event = event.Interface(key, value)
	}

	event.Msg(message)
}

/* DebugWithContext logs a debug message with context */
func DebugWithContext(ctx context.Context, message string, fields map[string]interface{}) {
	LogWithContext(ctx, zerolog.DebugLevel, message, fields)
}

/* InfoWithContext logs an info message with context */
func InfoWithContext(ctx context.Context, message string, fields map[string]interface{}) {
	LogWithContext(ctx, zerolog.InfoLevel, message, fields)
}

/* WarnWithContext logs a warning message with context */
func WarnWithContext(ctx context.Context, message string, fields map[string]interface{}) {
	LogWithContext(ctx, zerolog.WarnLevel, message, fields)
}

/* ErrorWithContext logs an error message with context */
func ErrorWithContext(ctx context.Context, message string, err error, fields map[string]interface{}) {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	LogWithContext(ctx, zerolog.ErrorLevel, message, fields)
}
