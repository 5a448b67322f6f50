// Package logging собирает zap-логгер, пишущий в каталог logs/ хранилища.
package logging

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"OTPKeeper/internal/filex"
)

// FileName — файл лога внутри каталога логов.
const FileName = "otpkeeper.log"

// New возвращает JSON SugaredLogger, дописывающий в <dir>/otpkeeper.log
// (и в stderr при console). Возвращаемая функция сбрасывает буферы.
func New(dir, level string, console bool) (*zap.SugaredLogger, func(), error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, nil, fmt.Errorf("log level: %w", err)
	}
	if _, err := filex.EnsureDir(dir); err != nil {
		return nil, nil, err
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	outputs := []string{filepath.Join(dir, FileName)}
	if console {
		outputs = append(outputs, "stderr")
	}
	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(lvl),
		Encoding:         "json",
		EncoderConfig:    encCfg,
		OutputPaths:      outputs,
		ErrorOutputPaths: []string{"stderr"},
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("build logger: %w", err)
	}
	sugar := logger.Sugar()
	return sugar, func() { _ = logger.Sync() }, nil
}
