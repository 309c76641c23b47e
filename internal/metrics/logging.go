/*-------------------------------------------------------------------------
 *
 * logging.go
 *    Logger initialization
 *
 * Configures the process-wide zerolog logger from the logging section of
 * the service configuration.
 *
 * Copyright (c) 2024-2026, IPAMC, Inc. <engineering@ipamc.io>
 *
 * IDENTIFICATION
 *    accessreview/internal/metrics/logging.go
 *
 *-------------------------------------------------------------------------
 */

package metrics

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var baseLogger = zerolog.New(os.Stdout).With().Timestamp().Logger()

/* InitLogging configures the global logger. Level is one of debug, info,
 * warn, error; format is json or console. */
func InitLogging(level, format string) {
	var lvl zerolog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = zerolog.DebugLevel
	case "warn":
		lvl = zerolog.WarnLevel
	case "error":
		lvl = zerolog.ErrorLevel
	default:
		lvl = zerolog.InfoLevel
	}

	logger := zerolog.New(os.Stdout)
	if strings.ToLower(format) == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	baseLogger = logger.Level(lvl).With().Timestamp().Logger()
}
