package utils

import (
	"io"
	"os"

	"github.com/natefinch/lumberjack"
	"github.com/sirupsen/logrus"
)

var (
	InfoLogger  = logrus.New()
	ErrorLogger = logrus.New()
)

type LogConfig struct {
	Level      string
	File       string
	MaxSize    int
	MaxBackups int
	MaxAge     int
}

// InitLogger configures both loggers. When File is set, output is also
// written to a rotated log file.
func InitLogger(cfg LogConfig) {
	InfoLogger = logrus.New()
	ErrorLogger = logrus.New()

	formatter := &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	}
	InfoLogger.SetFormatter(formatter)
	ErrorLogger.SetFormatter(formatter)

	var infoOut io.Writer = os.Stdout
	var errOut io.Writer = os.Stderr
	if cfg.File != "" {
		rotated := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize, // megabytes
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge, // days
		}
		infoOut = io.MultiWriter(os.Stdout, rotated)
		errOut = io.MultiWriter(os.Stderr, rotated)
	}
	InfoLogger.SetOutput(infoOut)
	ErrorLogger.SetOutput(errOut)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	InfoLogger.SetLevel(level)
	ErrorLogger.SetLevel(logrus.ErrorLevel)
}
