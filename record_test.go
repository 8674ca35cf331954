package mapper_test

import (
	"reflect"
	"testing"

	"github.com/tinywasm/mapper"
)

func TestRecord(t *testing.T) {
	t.Run("Writes before load are base data", func(t *testing.T) {
		rec := mapper.NewRecordFrom(map[string]any{"name": "A"})

		if len(rec.Modified()) != 0 {
			t.Errorf("Expected no modified fields, got %v", rec.Modified())
		}
		if rec.Get("name") != "A" {
			t.Errorf("Expected name 'A', got %v", rec.Get("name"))
		}
	})

	t.Run("Writes after load are modified data", func(t *testing.T) {
		rec := mapper.NewRecordFrom(map[string]any{"name": "A"})
		rec.Set("name", "B")

		if !reflect.DeepEqual(rec.Modified(), map[string]any{"name": "B"}) {
			t.Errorf("Expected modified {name: B}, got %v", rec.Modified())
		}
		if rec.Data()["name"] != "B" {
			t.Errorf("Expected effective name 'B', got %v", rec.Data()["name"])
		}
	})

	t.Run("MarkLoaded switches the write target", func(t *testing.T) {
		rec := mapper.NewRecord()
		rec.MarkLoaded(false)
		rec.Set("a", 1)
		rec.MarkLoaded(true)
		rec.Set("b", 2)

		if rec.IsModified() != true || len(rec.Modified()) != 1 {
			t.Fatalf("Expected only b modified, got %v", rec.Modified())
		}
		if _, ok := rec.Modified()["b"]; !ok {
			t.Errorf("Expected b in modified, got %v", rec.Modified())
		}
	})

	t.Run("Effective data overlays modified on base", func(t *testing.T) {
		rec := mapper.NewRecordFrom(map[string]any{"a": 1, "b": 2, "c": 3}, "a", "b", "c")
		rec.Set("b", 20)
		rec.Set("d", 40)

		want := map[string]any{"a": 1, "b": 20, "c": 3, "d": 40}
		if !reflect.DeepEqual(rec.Data(), want) {
			t.Errorf("Expected %v, got %v", want, rec.Data())
		}
		if !reflect.DeepEqual(rec.Fields(), []string{"a", "b", "c", "d"}) {
			t.Errorf("Unexpected field order %v", rec.Fields())
		}
		if !reflect.DeepEqual(rec.ModifiedFields(), []string{"b", "d"}) {
			t.Errorf("Unexpected modified order %v", rec.ModifiedFields())
		}
	})

	t.Run("Missing field reads nil", func(t *testing.T) {
		rec := mapper.NewRecord()
		if rec.Get("nope") != nil {
			t.Errorf("Expected nil, got %v", rec.Get("nope"))
		}
		if _, ok := rec.Lookup("nope"); ok {
			t.Error("Expected Lookup to report missing field")
		}
	})

	t.Run("Getter hook reads stored value without recursion", func(t *testing.T) {
		rec := mapper.NewRecordFrom(map[string]any{"name": "ada"})
		calls := 0
		rec.OnGet("name", func(r *mapper.Record) any {
			calls++
			return "Dr. " + r.Get("name").(string)
		})

		if got := rec.Get("name"); got != "Dr. ada" {
			t.Errorf("Expected 'Dr. ada', got %v", got)
		}
		if calls != 1 {
			t.Errorf("Expected hook called once, got %d", calls)
		}
		if got := rec.Get("name"); got != "Dr. ada" {
			t.Errorf("Expected hook to run again on a new read, got %v", got)
		}
	})

	t.Run("Setter hook stores through Set", func(t *testing.T) {
		rec := mapper.NewRecord()
		rec.OnSet("email", func(r *mapper.Record, v any) {
			r.Set("email", "<"+v.(string)+">")
		})
		rec.Set("email", "a@b.c")

		if got := rec.Get("email"); got != "<a@b.c>" {
			t.Errorf("Expected '<a@b.c>', got %v", got)
		}
		if _, ok := rec.Modified()["email"]; !ok {
			t.Error("Expected email tracked as modified")
		}
	})

	t.Run("SetData follows key order", func(t *testing.T) {
		rec := mapper.NewRecord()
		rec.SetData(map[string]any{"x": 1, "y": 2}, "y", "x")
		if !reflect.DeepEqual(rec.ModifiedFields(), []string{"y", "x"}) {
			t.Errorf("Unexpected order %v", rec.ModifiedFields())
		}
	})
}
