package ormlog_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/fizzify/fizzify/orm/ormtest"
	"github.com/fizzify/fizzify/orm/statement"
	"github.com/fizzify/fizzify/ormlog"
)

func TestHandler_Handle(t *testing.T) {
	manager := ormtest.NewMemoryManager(t)
	ctx := context.Background()

	handler, err := ormlog.NewHandler(ctx, manager, slog.LevelInfo)
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}

	logger := slog.New(handler)
	logger.InfoContext(ctx, "user created", "user_id", "42")
	logger.DebugContext(ctx, "should be dropped")

	records, err := handler.Repository().FindAll(ctx)
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}

	rec := records[0]
	if rec.Level != slog.LevelInfo.String() {
		t.Errorf("Level = %q, want %q", rec.Level, slog.LevelInfo.String())
	}
	if rec.Message != "user created" {
		t.Errorf("Message = %q, want %q", rec.Message, "user created")
	}
	if rec.CreatedAt == "" {
		t.Error("CreatedAt is empty")
	}

	var attrs map[string]any
	if err := json.Unmarshal([]byte(rec.Attrs), &attrs); err != nil {
		t.Fatalf("unmarshal attrs %q: %v", rec.Attrs, err)
	}
	if attrs["user_id"] != "42" {
		t.Errorf("attrs[user_id] = %v, want %q", attrs["user_id"], "42")
	}
}

func TestHandler_Enabled(t *testing.T) {
	manager := ormtest.NewMemoryManager(t)
	ctx := context.Background()

	handler, err := ormlog.NewHandler(ctx, manager, slog.LevelWarn)
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}

	if handler.Enabled(ctx, slog.LevelInfo) {
		t.Error("Enabled(info) = true, want false")
	}
	if !handler.Enabled(ctx, slog.LevelError) {
		t.Error("Enabled(error) = false, want true")
	}
}

func TestHandler_WithAttrsAndGroup(t *testing.T) {
	manager := ormtest.NewMemoryManager(t)
	ctx := context.Background()

	handler, err := ormlog.NewHandler(ctx, manager, slog.LevelInfo)
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}

	logger := slog.New(handler).With("request_id", "abc").WithGroup("db").With("driver", "ramsql")
	logger.InfoContext(ctx, "query ran", "rows", 3)

	records, err := handler.Repository().FindAll(ctx, statement.Eq("message", "query ran"))
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}

	var attrs map[string]any
	if err := json.Unmarshal([]byte(records[0].Attrs), &attrs); err != nil {
		t.Fatalf("unmarshal attrs %q: %v", records[0].Attrs, err)
	}
	if attrs["request_id"] != "abc" {
		t.Errorf("attrs[request_id] = %v, want %q", attrs["request_id"], "abc")
	}
	if attrs["db.driver"] != "ramsql" {
		t.Errorf("attrs[db.driver] = %v, want %q", attrs["db.driver"], "ramsql")
	}
	if got, ok := attrs["db.rows"].(float64); !ok || got != 3 {
		t.Errorf("attrs[db.rows] = %v, want 3", attrs["db.rows"])
	}
}
