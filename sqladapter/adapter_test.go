package sqladapter_test

import (
	"errors"
	"testing"

	"github.com/tinywasm/mapper"
	"github.com/tinywasm/mapper/sqladapter"
)

var (
	authorsDef = mapper.Definition{
		Table: "authors",
		Fields: []mapper.Field{
			{Name: "id", Type: mapper.TypeInt64, Constraints: mapper.ConstraintPK | mapper.ConstraintAutoIncrement},
			{Name: "name", Type: mapper.TypeText, Required: true},
			{Name: "born", Type: mapper.TypeDate},
		},
		Relations: []mapper.RelationDef{{
			Name:        "books",
			Kind:        mapper.HasMany,
			Mapper:      "books",
			ForeignKeys: []mapper.ForeignKey{{Local: "id", Remote: "author_id"}},
		}},
	}

	booksDef = mapper.Definition{
		Table: "books",
		Fields: []mapper.Field{
			{Name: "id", Type: mapper.TypeInt64, Constraints: mapper.ConstraintPK | mapper.ConstraintAutoIncrement},
			{Name: "author_id", Type: mapper.TypeInt64, Ref: "authors"},
			{Name: "title", Type: mapper.TypeText, Constraints: mapper.ConstraintNotNull},
			{Name: "pages", Type: mapper.TypeInt64},
		},
	}
)

func openMemory(t *testing.T, opts ...sqladapter.Option) (*sqladapter.Adapter, *mapper.Registry) {
	t.Helper()
	adapter, err := sqladapter.Open("sqlite", ":memory:", opts...)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { adapter.Close() })

	reg := mapper.NewRegistry(adapter)
	for name, def := range map[string]mapper.Definition{"authors": authorsDef, "books": booksDef} {
		if err := reg.Register(name, def); err != nil {
			t.Fatal(err)
		}
	}
	for _, name := range reg.Names() {
		m, _ := reg.Mapper(name)
		if err := m.Migrate(); err != nil {
			t.Fatalf("migrate %s: %v", name, err)
		}
	}
	return adapter, reg
}

func mustMapper(t *testing.T, reg *mapper.Registry, name string) *mapper.Mapper {
	t.Helper()
	m, err := reg.Mapper(name)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestOpen(t *testing.T) {
	if _, err := sqladapter.Open("oracle", "x"); err == nil {
		t.Error("Expected unsupported driver error")
	}
	for _, name := range []string{"sqlite", "sqlite3", "mysql", "postgres", "pgsql"} {
		if _, err := sqladapter.DialectFor(name); err != nil {
			t.Errorf("Expected dialect for %s: %v", name, err)
		}
	}
}

func TestMigrate(t *testing.T) {
	adapter, reg := openMemory(t)

	ids, err := adapter.Migrations()
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 {
		t.Fatalf("Expected 2 applied migrations, got %v", ids)
	}

	// Running again is a no-op.
	if err := mustMapper(t, reg, "books").Migrate(); err != nil {
		t.Fatal(err)
	}
	ids, _ = adapter.Migrations()
	if len(ids) != 2 {
		t.Errorf("Expected migrations unchanged, got %v", ids)
	}

	if _, err := adapter.Exec("INSERT INTO authors (name) VALUES ('raw')"); err != nil {
		t.Errorf("Expected migrated table to accept rows: %v", err)
	}
}

func TestRoundTrip(t *testing.T) {
	adapter, reg := openMemory(t)
	authors := mustMapper(t, reg, "authors")

	rec := mapper.NewRecord()
	rec.Set("name", "Ursula")
	rec.Set("born", "1929-10-21")
	rec.Set("books", []map[string]any{
		{"title": "The Dispossessed", "pages": 387},
		{"title": "The Lathe of Heaven", "pages": 184},
	})

	id, err := authors.Save(rec)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if id != int64(1) {
		t.Fatalf("Expected generated id 1, got %v (%T)", id, id)
	}

	loaded, err := mustMapper(t, reg, "authors").Get(id)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Get("name") != "Ursula" || loaded.Get("born") != "1929-10-21" {
		t.Errorf("Unexpected row %v", loaded.Data())
	}

	books, err := loaded.Get("books").(*mapper.Relation).Resolve()
	if err != nil {
		t.Fatal(err)
	}
	if len(books) != 2 {
		t.Fatalf("Expected 2 books, got %d", len(books))
	}
	if books[0].Get("author_id") != int64(1) {
		t.Errorf("Expected foreign key filled, got %v", books[0].Get("author_id"))
	}

	books[1].Set("pages", 200)
	loaded.Set("name", "Ursula K.")
	if _, err := mustMapper(t, reg, "authors").Save(loaded); err != nil {
		t.Fatalf("update: %v", err)
	}

	titles, err := mustMapper(t, reg, "books").
		All(mapper.Conditions{mapper.Cond("pages >=", 190)}, mapper.Asc("id")).
		ToMap("title", "pages")
	if err != nil {
		t.Fatal(err)
	}
	if len(titles) != 2 || titles["The Lathe of Heaven"] != int64(200) {
		t.Errorf("Unexpected titles %v", titles)
	}

	n, err := mustMapper(t, reg, "books").Delete(mapper.Conditions{mapper.In("id", 1, 2)})
	if err != nil || n != 2 {
		t.Errorf("Expected 2 deleted, got %d (%v)", n, err)
	}
	if adapter.CachedStatements() == 0 {
		t.Error("Expected prepared statements to be cached")
	}
}

func TestZeroKeyInsert(t *testing.T) {
	_, reg := openMemory(t)
	authors := mustMapper(t, reg, "authors")

	for i, name := range []string{"Le Guin", "Butler"} {
		rec := mapper.NewRecord()
		rec.Set("id", int64(0))
		rec.Set("name", name)

		id, err := authors.Save(rec)
		if err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
		if want := int64(i + 1); id != want || rec.Get("id") != want {
			t.Errorf("save %d: expected generated id %d, got %v / %v", i, want, id, rec.Get("id"))
		}
	}

	n, err := authors.All(mapper.Conditions{mapper.Gt("id", 0)}).Count()
	if err != nil || n != 2 {
		t.Errorf("Expected 2 stored authors, got %d (%v)", n, err)
	}
}

func TestStatementIdentity(t *testing.T) {
	adapter, _ := openMemory(t)

	const insert = "INSERT INTO authors (name) VALUES (:name)"
	first, err := adapter.Prepare(insert)
	if err != nil {
		t.Fatal(err)
	}
	defer first.Close()
	second, err := adapter.Prepare(insert)
	if err != nil {
		t.Fatal(err)
	}
	defer second.Close()

	if err := first.Execute(map[string]any{"name": "a"}); err != nil {
		t.Fatal(err)
	}
	if err := second.Execute(map[string]any{"name": "b"}); err != nil {
		t.Fatal(err)
	}

	if id := first.(mapper.InsertIDStatement).LastInsertID(); id != int64(1) {
		t.Errorf("Expected first insert to keep id 1, got %v", id)
	}
	if id := second.(mapper.InsertIDStatement).LastInsertID(); id != int64(2) {
		t.Errorf("Expected second insert id 2, got %v", id)
	}
	if id, _ := adapter.LastInsertID(); id != int64(2) {
		t.Errorf("Expected adapter to report the latest insert, got %v", id)
	}
}

func TestQueryErrors(t *testing.T) {
	_, reg := openMemory(t)
	m := mustMapper(t, reg, "books")

	if _, err := m.Query("SELECT * FROM missing_table", nil); !errors.Is(err, mapper.ErrPrepare) {
		t.Errorf("Expected ErrPrepare, got %v", err)
	}

	rs, err := m.All(mapper.Conditions{mapper.Eq("title", "none")}).Execute()
	if err != nil || rs == nil || rs.Len() != 0 {
		t.Errorf("Expected empty set, got %v %v", rs, err)
	}

	if _, err := m.First(nil); !errors.Is(err, mapper.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestNullBinds(t *testing.T) {
	_, reg := openMemory(t)
	m := mustMapper(t, reg, "authors")

	rec := mapper.NewRecord()
	rec.Set("name", "Anon")
	rec.Set("born", "")
	if _, err := m.Save(rec); err != nil {
		t.Fatal(err)
	}

	got, err := m.First(mapper.Conditions{mapper.IsNull("born")})
	if err != nil {
		t.Fatalf("Expected empty string stored as NULL: %v", err)
	}
	if got.Get("born") != nil {
		t.Errorf("Expected nil, got %v", got.Get("born"))
	}
}

func TestTx(t *testing.T) {
	_, reg := openMemory(t)

	boom := errors.New("boom")
	err := reg.Tx(func(tx *mapper.Registry) error {
		m, _ := tx.Mapper("authors")
		rec := mapper.NewRecord()
		rec.Set("name", "Ghost")
		if _, err := m.Save(rec); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Expected boom, got %v", err)
	}
	if n, _ := mustMapper(t, reg, "authors").All(nil).Count(); n != 0 {
		t.Errorf("Expected rollback to discard the insert, got %d rows", n)
	}

	err = reg.Tx(func(tx *mapper.Registry) error {
		m, _ := tx.Mapper("authors")
		rec := mapper.NewRecord()
		rec.Set("name", "Kept")
		_, err := m.Save(rec)
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	if n, _ := mustMapper(t, reg, "authors").All(nil).Count(); n != 1 {
		t.Errorf("Expected committed row, got %d", n)
	}
}

func TestStatementCache(t *testing.T) {
	adapter, reg := openMemory(t, sqladapter.WithStatementCache(1))
	m := mustMapper(t, reg, "books")

	m.Query("SELECT * FROM books", nil)
	m.Query("SELECT * FROM books WHERE id = :id", map[string]any{"id": 1})
	if adapter.CachedStatements() != 1 {
		t.Errorf("Expected cache bounded to 1, got %d", adapter.CachedStatements())
	}

	uncached, reg2 := openMemory(t, sqladapter.WithStatementCache(0))
	mustMapper(t, reg2, "books").Query("SELECT * FROM books", nil)
	if uncached.CachedStatements() != 0 {
		t.Errorf("Expected no cache, got %d", uncached.CachedStatements())
	}
}
