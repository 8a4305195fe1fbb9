package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLevelMap maps levels to zap levels. zap has no trace level so trace
// entries are logged at debug.
var ZapLevelMap = map[Level]zapcore.Level{
	ErrorLevel: zapcore.ErrorLevel,
	WarnLevel:  zapcore.WarnLevel,
	InfoLevel:  zapcore.InfoLevel,
	DebugLevel: zapcore.DebugLevel,
	TraceLevel: zapcore.DebugLevel,
}

// NewZapLogFunc returns a log func that writes to a zap logger
func NewZapLogFunc(l *zap.Logger) LogFunc {
	return func(payload LogPayload) {
		level, ok := ZapLevelMap[payload.Level]
		if !ok {
			level = zapcore.InfoLevel
		}

		ce := l.Check(level, payload.Message)
		if ce == nil {
			return
		}

		fields := make([]zap.Field, 0, len(payload.Fields)+1)
		for k, v := range payload.Fields {
			fields = append(fields, zap.Any(k, v))
		}
		if payload.Error != nil {
			fields = append(fields, zap.Error(payload.Error))
		}

		ce.Write(fields...)
	}
}
