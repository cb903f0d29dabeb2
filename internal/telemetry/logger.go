package telemetry

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls where logs go and how verbose they are. An empty
// Config produces a console-only logger at info level.
type Config struct {
	FilePath string
	Verbose  bool
}

// New builds a logger that always writes human-readable output to
// stderr and, when FilePath is set, additionally rotates JSON output
// through a lumberjack.Logger into FilePath. The two destinations are
// combined with newWaterfall so a failure to write one doesn't silence
// the other.
func New(cfg Config) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Verbose {
		level = zapcore.DebugLevel
	}

	consoleConf := zap.NewDevelopmentEncoderConfig()
	consoleCore := zapcore.NewCore(zapcore.NewConsoleEncoder(consoleConf), zapcore.Lock(zapcore.AddSync(os.Stderr)), level)
	cores := []zapcore.Core{consoleCore}

	if cfg.FilePath != "" {
		fileCore, err := newFileCore(cfg.FilePath, level)
		if err != nil {
			return nil, fmt.Errorf("telemetry: open log file %s: %w", cfg.FilePath, err)
		}
		cores = append(cores, fileCore)
	}

	return zap.New(newWaterfall(cores...)), nil
}

func newFileCore(path string, level zapcore.Level) (zapcore.Core, error) {
	w := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    64, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
	jsonConf := zap.NewProductionEncoderConfig()
	return zapcore.NewCore(zapcore.NewJSONEncoder(jsonConf), zapcore.AddSync(w), level), nil
}

// NewDiscard returns a logger that drops everything, for tests and
// callers that genuinely don't want output.
func NewDiscard() *zap.Logger {
	return zap.New(zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), zapcore.AddSync(io.Discard), zapcore.FatalLevel+1))
}
