// Package logging configures the process-wide zerolog logger and carries
// request-scoped loggers through context.Context.
package logging

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	once         sync.Once
	globalLogger = zerolog.New(os.Stdout).With().Timestamp().Logger()
)

// Init configures the global logger: JSON to stdout and, when filePath is
// set, appended to that file as well. Only the first call has an effect.
func Init(level, filePath string) {
	once.Do(func() {
		writers := []io.Writer{os.Stdout}
		if filePath != "" {
			file, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o664)
			if err != nil {
				os.Stderr.WriteString("failed to open log file: " + err.Error() + "\n")
			} else {
				writers = append(writers, file)
			}
		}

		lvl, err := zerolog.ParseLevel(level)
		if err != nil || level == "" {
			lvl = zerolog.InfoLevel
		}

		globalLogger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
			With().Timestamp().Logger().Level(lvl)
		log.Logger = globalLogger
	})
}

// Logger returns the global logger.
func Logger() *zerolog.Logger { return &globalLogger }

// WithFields returns a context whose logger carries fields.
func WithFields(ctx context.Context, fields map[string]any) context.Context {
	l := FromContext(ctx).With().Fields(fields).Logger()
	return l.WithContext(ctx)
}

// FromContext returns the context logger, or the global logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx)
	if l.GetLevel() == zerolog.Disabled {
		return &globalLogger
	}
	return l
}
