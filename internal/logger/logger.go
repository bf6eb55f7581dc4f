package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New builds a console logger at the given level. Unknown levels fall back
// to info.
func New(level string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})
	l.SetLevel(parseLevel(level))
	return l
}

// NewWithFile builds a logger that writes to stdout and to a rotating file
// under dir. Files rotate at 10 MB and are kept for 7 days.
func NewWithFile(level, dir, name string) (*logrus.Logger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(dir, name+".log"),
		MaxSize:    10, // MB
		MaxAge:     7,  // days
		MaxBackups: 10,
	}

	l := New(level)
	l.SetOutput(io.MultiWriter(os.Stdout, rotator))
	return l, nil
}

func parseLevel(level string) logrus.Level {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return logrus.InfoLevel
	}
	return parsed
}
