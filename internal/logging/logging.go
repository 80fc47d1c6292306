// Package logging builds the process-wide zap logger. Output goes to a
// rotating file under the state directory so the TUI never has log lines
// fighting it for the terminal.
package logging

import (
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New returns a logger writing JSON lines to <dir>/logs/medbot.log with
// rotation. verbose lowers the threshold to debug.
func New(dir string, verbose bool) *zap.Logger {
	writer := &lumberjack.Logger{
		Filename:   filepath.Join(dir, "logs", "medbot.log"),
		MaxSize:    5, // megabytes
		MaxBackups: 3,
		MaxAge:     14, // days
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encCfg),
		zapcore.AddSync(writer),
		level,
	)
	return zap.New(core)
}
