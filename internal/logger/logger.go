// Package logger provides the process-wide structured logger, backed by
// zerolog. Level resolution precedence: -log.level flag, then FCAST_LOG
// environment variable, then default (info).
package logger

import (
	"flag"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Environment variable name for log level configuration.
const envLogLevel = "FCAST_LOG"

var (
	atomicLevel int32 = int32(zerolog.InfoLevel)
	global      zerolog.Logger
	initOnce    sync.Once

	flagLevel = flag.String("log.level", "", "log level (trace, debug, info, warn, error, off)")
)

// Init initializes the global logger. Safe to call multiple times; only the
// first call sets the initial level, subsequent ones are no-ops (use
// SetLevel to change it at runtime).
func Init() {
	initOnce.Do(func() {
		lvl := detectLevel()
		atomic.StoreInt32(&atomicLevel, int32(lvl))
		global = zerolog.New(os.Stdout).Level(lvl).With().Timestamp().Logger()
	})
}

// detectLevel resolves the initial log level from (precedence high→low):
//  1. command-line flag -log.level
//  2. environment variable FCAST_LOG
//  3. default (info)
func detectLevel() zerolog.Level {
	if *flagLevel == "" {
		for _, arg := range os.Args[1:] {
			if strings.HasPrefix(arg, "-log.level=") {
				parts := strings.SplitN(arg, "=", 2)
				if len(parts) == 2 {
					*flagLevel = parts[1]
				}
			}
		}
	}
	if lvl, ok := parseLevel(strings.TrimSpace(*flagLevel)); ok {
		return lvl
	}
	if env := os.Getenv(envLogLevel); env != "" {
		if lvl, ok := parseLevel(env); ok {
			return lvl
		}
	}
	return zerolog.InfoLevel
}

// parseLevel converts the FCAST_LOG level names to a zerolog.Level.
func parseLevel(s string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info", "":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error", "err":
		return zerolog.ErrorLevel, true
	case "off":
		return zerolog.Disabled, true
	}
	return zerolog.NoLevel, false
}

// SetLevel changes the runtime log level.
func SetLevel(level string) error {
	Init()
	lvl, ok := parseLevel(level)
	if !ok {
		return errNewInvalidLevel(level)
	}
	atomic.StoreInt32(&atomicLevel, int32(lvl))
	global = global.Level(lvl)
	return nil
}

type invalidLevelError string

func (e invalidLevelError) Error() string { return "invalid log level: " + string(e) }
func errNewInvalidLevel(level string) error { return invalidLevelError(level) }

// Level returns the current runtime level as a string.
func Level() string {
	Init()
	return zerolog.Level(atomic.LoadInt32(&atomicLevel)).String()
}

// UseWriter swaps the output writer (intended for tests). Retains the
// current level.
func UseWriter(w io.Writer) {
	Init()
	global = zerolog.New(w).Level(zerolog.Level(atomic.LoadInt32(&atomicLevel))).With().Timestamp().Logger()
}

// Logger returns the global logger, initializing it on first use.
func Logger() *zerolog.Logger {
	Init()
	return &global
}

// WithConn attaches a correlation id and peer address to the logger.
func WithConn(l *zerolog.Logger, connID, peerAddr string) zerolog.Logger {
	return l.With().Str("conn_id", connID).Str("peer_addr", peerAddr).Logger()
}

// WithSession attaches the protocol session id.
func WithSession(l *zerolog.Logger, sessionID uint64) zerolog.Logger {
	return l.With().Uint64("session_id", sessionID).Logger()
}
