package logging

import (
	"context"
	"log/slog"
	"testing"
)

func TestNewLevels(t *testing.T) {
	t.Parallel()

	cases := []struct {
		level      string
		debugOn    bool
		infoOn     bool
		warnOnOnly bool
	}{
		{"debug", true, true, false},
		{"info", false, true, false},
		{"", false, true, false},
		{"nonsense", false, true, false},
		{"warn", false, false, true},
	}

	for _, tc := range cases {
		logger := New(tc.level)
		ctx := context.Background()

		if got := logger.Handler().Enabled(ctx, slog.LevelDebug); got != tc.debugOn {
			t.Fatalf("level %q: debug enabled = %v, want %v", tc.level, got, tc.debugOn)
		}
		if got := logger.Handler().Enabled(ctx, slog.LevelInfo); got != tc.infoOn {
			t.Fatalf("level %q: info enabled = %v, want %v", tc.level, got, tc.infoOn)
		}
		if tc.warnOnOnly && !logger.Handler().Enabled(ctx, slog.LevelWarn) {
			t.Fatalf("level %q: warn should be enabled", tc.level)
		}
	}
}

func TestComponentNilBase(t *testing.T) {
	t.Parallel()

	if Component(nil, "pipeline") == nil {
		t.Fatalf("Component must always return a usable logger")
	}
}
