package logsink_test

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/tinywasm/mapper"
	"github.com/tinywasm/mapper/logsink"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSlog(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	logsink.NewSlog(l).LogQuery("SELECT * FROM posts WHERE id = :id0", map[string]any{"id0": 3})

	out := buf.String()
	for _, want := range []string{"msg=query", "sql=\"SELECT * FROM posts WHERE id = :id0\"", "query_id=", "id0"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in %q", want, out)
		}
	}
}

func TestSlogLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	logsink.NewSlog(l).LogQuery("SELECT 1", nil)
	if buf.Len() != 0 {
		t.Errorf("Expected debug statements filtered, got %q", buf.String())
	}
}

func TestZap(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	sink := logsink.NewZap(zap.New(core).Sugar())

	sink.LogQuery("DELETE FROM posts", nil)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	if entries[0].Message != "query" || entries[0].ContextMap()["sql"] != "DELETE FROM posts" {
		t.Errorf("Unexpected entry %+v", entries[0])
	}
}

func TestMulti(t *testing.T) {
	a, b := mapper.NewQueryLog(), mapper.NewQueryLog()
	logsink.Multi{a, nil, b}.LogQuery("SELECT 1", nil)

	if a.Count() != 1 || b.Count() != 1 {
		t.Errorf("Expected fan-out, got %d/%d", a.Count(), b.Count())
	}
}
