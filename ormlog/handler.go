// Package ormlog provides an slog.Handler that persists log records to a
// database table through an orm.Manager.
package ormlog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/fizzify/fizzify/orm"
)

// Record is a persisted log record.
type Record struct {
	Level     string
	Message   string
	Attrs     string
	CreatedAt string
}

func recordSchema() orm.Schema[Record] {
	return orm.Schema[Record]{
		Table: orm.Table{
			Name: "log_records",
			Columns: []orm.Column{
				{Name: "level", Type: "TEXT"},
				{Name: "message", Type: "TEXT"},
				{Name: "attrs", Type: "TEXT", Nullable: true},
				{Name: "created_at", Type: "TEXT"},
			},
		},
		Fields: func(r *Record) []any { return []any{&r.Level, &r.Message, &r.Attrs, &r.CreatedAt} },
		Values: func(r *Record) []any { return []any{r.Level, r.Message, r.Attrs, r.CreatedAt} },
	}
}

// Handler writes each log record as a row. It is meant to run alongside
// a console handler, not replace it.
type Handler struct {
	repo  *orm.Repository[Record]
	level slog.Leveler
	attrs []slog.Attr
	group string
}

var _ slog.Handler = (*Handler)(nil)

// NewHandler creates the log table and returns a handler storing records
// at or above the given level.
func NewHandler(ctx context.Context, m *orm.Manager, level slog.Leveler) (*Handler, error) {
	repo := orm.NewRepository(m, recordSchema())
	if err := repo.CreateTable(ctx); err != nil {
		return nil, fmt.Errorf("create log table: %w", err)
	}

	if level == nil {
		level = slog.LevelInfo
	}

	return &Handler{repo: repo, level: level}, nil
}

// Repository exposes the underlying repository, mainly so callers can
// query or prune stored records.
func (h *Handler) Repository() *orm.Repository[Record] {
	return h.repo
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *Handler) Handle(ctx context.Context, record slog.Record) error {
	attrs := make(map[string]any, record.NumAttrs()+len(h.attrs))
	for _, attr := range h.attrs {
		attrs[attr.Key] = attr.Value.Any()
	}
	record.Attrs(func(attr slog.Attr) bool {
		attrs[h.key(attr.Key)] = attr.Value.Any()
		return true
	})

	var encoded []byte
	if len(attrs) > 0 {
		var err error
		encoded, err = json.Marshal(attrs)
		if err != nil {
			return fmt.Errorf("encode log attrs: %w", err)
		}
	}

	at := record.Time
	if at.IsZero() {
		at = time.Now()
	}

	row := Record{
		Level:     record.Level.String(),
		Message:   record.Message,
		Attrs:     string(encoded),
		CreatedAt: at.UTC().Format(time.RFC3339Nano),
	}

	return h.repo.Save(ctx, &row)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append([]slog.Attr{}, h.attrs...)
	for _, attr := range attrs {
		attr.Key = h.key(attr.Key)
		clone.attrs = append(clone.attrs, attr)
	}
	return &clone
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.group = h.key(name)
	return &clone
}

func (h *Handler) key(name string) string {
	if h.group == "" {
		return name
	}
	return h.group + "." + name
}
