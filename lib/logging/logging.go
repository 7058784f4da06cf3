package logging

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	cfg = zap.Config{
		Level:       zap.NewAtomicLevelAt(zap.InfoLevel),
		Development: false,
		Encoding:    "console",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
			EncodeDuration: zapcore.SecondsDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	mu       sync.Mutex
	def      = zap.InfoLevel
	levelers = map[string]zap.AtomicLevel{}
)

// New returns a named logger whose level can later be changed with SetLevel
// or SetDefaultLevel.
func New(name string) *zap.SugaredLogger {
	c := cfg
	c.Level = leveler(name)
	return zap.Must(c.Build(zap.AddStacktrace(zapcore.PanicLevel))).Named(name).Sugar()
}

func leveler(name string) zap.AtomicLevel {
	mu.Lock()
	defer mu.Unlock()

	l, ok := levelers[name]
	if !ok {
		l = zap.NewAtomicLevelAt(def)
		levelers[name] = l
	}
	return l
}

func SetLevel(name string, level zapcore.Level) {
	leveler(name).SetLevel(level)
}

func GetLevel(name string) zapcore.Level {
	return leveler(name).Level()
}

// SetDefaultLevel changes every logger created so far and every one created
// afterwards.
func SetDefaultLevel(level zapcore.Level) {
	mu.Lock()
	defer mu.Unlock()

	def = level
	for _, l := range levelers {
		l.SetLevel(level)
	}
}

func ParseLevel(s string) (zapcore.Level, error) {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return l, fmt.Errorf("logging: level %q: %w", s, err)
	}
	return l, nil
}
