package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	cases := []struct {
		level string
		want  zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"warn", zapcore.WarnLevel},
		{"nonsense", zapcore.InfoLevel},
	}
	for _, tc := range cases {
		logger, err := New(tc.level, "production")
		if err != nil {
			t.Fatalf("new %s: %v", tc.level, err)
		}
		if !logger.Core().Enabled(tc.want) || (tc.want > zapcore.DebugLevel && logger.Core().Enabled(tc.want-1)) {
			t.Fatalf("level %s: expected minimum %s", tc.level, tc.want)
		}
	}
}
