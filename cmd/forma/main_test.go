package main

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestSetupLoggingReadsFormaLogLevel(t *testing.T) {
	tests := []struct {
		value string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"bogus", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Setenv("FORMA_LOG_LEVEL", tt.value)
		setupLogging()
		if got := zerolog.GlobalLevel(); got != tt.want {
			t.Errorf("FORMA_LOG_LEVEL=%q: expected level %s, got %s", tt.value, tt.want, got)
		}
	}
}
