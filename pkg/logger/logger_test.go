package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLoggerInit(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize text logger: %v", err)
	}
	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}

	if err := Init(WithFormat("json")); err != nil {
		t.Fatalf("failed to initialize json logger: %v", err)
	}
	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}
	if err := Sync(); err != nil {
		t.Errorf("failed to sync logger: %v", err)
	}
}

func TestLoggerJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithFormat("json"), WithWriter(&buf), WithSource(false)); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	Named("session").Info(context.Background(), "hint purchased",
		String("hint", "sector"),
		Int("bankroll", 950),
		Bool("terminal", false),
		Duration("took", time.Millisecond),
	)

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("output is not json: %v (%q)", err, buf.String())
	}
	if line["msg"] != "hint purchased" {
		t.Fatalf("unexpected msg: %v", line["msg"])
	}
	group, ok := line["session"].(map[string]any)
	if !ok {
		t.Fatalf("expected session group, got %v", line)
	}
	if group["hint"] != "sector" {
		t.Fatalf("unexpected hint field: %v", group["hint"])
	}
	if _, ok := group["source"]; ok {
		t.Fatal("source field should be disabled")
	}
}

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithWriter(&buf)); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	ctx := context.Background()
	Get().Debug(ctx, "hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug should be filtered at info level, got %q", buf.String())
	}

	if err := SetLevelString("debug"); err != nil {
		t.Fatalf("set level: %v", err)
	}
	Get().Debug(ctx, "visible", Error(errors.New("boom")))
	if !strings.Contains(buf.String(), "visible") || !strings.Contains(buf.String(), "boom") {
		t.Fatalf("expected debug line with error, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), "source=") {
		t.Fatalf("expected source field, got %q", buf.String())
	}

	if err := SetLevelString("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
	_ = SetLevelString("info")
}

func TestLoggerWith(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf).With(String("user", "u-1"))
	l.Warn(context.Background(), "sync failed")
	if !strings.Contains(buf.String(), "user=u-1") {
		t.Fatalf("expected bound field, got %q", buf.String())
	}

	Nop().Error(context.Background(), "discarded")
}
