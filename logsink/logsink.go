// Package logsink provides mapper.QueryLogger implementations that forward
// statements to structured loggers.
package logsink

import (
	"context"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"github.com/tinywasm/mapper"
	"go.uber.org/zap"
)

// Slog writes every statement to a *slog.Logger at Level.
type Slog struct {
	Logger *slog.Logger
	Level  slog.Level
}

// NewSlog logs statements at debug level. A nil logger uses slog.Default().
func NewSlog(l *slog.Logger) *Slog {
	if l == nil {
		l = slog.Default()
	}
	return &Slog{Logger: l, Level: slog.LevelDebug}
}

func (s *Slog) LogQuery(sql string, binds map[string]any) {
	ctx := context.Background()
	if !s.Logger.Enabled(ctx, s.Level) {
		return
	}
	s.Logger.LogAttrs(ctx, s.Level, "query",
		slog.String("query_id", uuid.NewString()),
		slog.String("sql", sql),
		slog.Any("binds", sortedBinds(binds)),
	)
}

// Zap writes every statement to a sugared zap logger at debug level.
type Zap struct {
	Logger *zap.SugaredLogger
}

// NewZap wraps l. A nil logger uses the global zap logger.
func NewZap(l *zap.SugaredLogger) *Zap {
	if l == nil {
		l = zap.S()
	}
	return &Zap{Logger: l}
}

func (z *Zap) LogQuery(sql string, binds map[string]any) {
	z.Logger.Debugw("query",
		"query_id", uuid.NewString(),
		"sql", sql,
		"binds", sortedBinds(binds),
	)
}

// Multi fans one statement out to several loggers.
type Multi []mapper.QueryLogger

func (m Multi) LogQuery(sql string, binds map[string]any) {
	for _, l := range m {
		if l != nil {
			l.LogQuery(sql, binds)
		}
	}
}

// bind is one named parameter, kept in name order for stable output.
type bind struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

func sortedBinds(binds map[string]any) []bind {
	out := make([]bind, 0, len(binds))
	for k, v := range binds {
		out = append(out, bind{Name: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
