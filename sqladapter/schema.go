package sqladapter

import (
	"fmt"

	migrate "github.com/rubenv/sql-migrate"
	"github.com/tinywasm/mapper"
)

// Migrate creates table from fields unless it exists. Each table is one
// sql-migrate migration ("create_<table>"), so repeated calls are no-ops and
// the applied set can be inspected in the migration table.
func (a *Adapter) Migrate(table string, fields []mapper.Field) error {
	if len(fields) == 0 {
		return fmt.Errorf("migrate %s: %w", table, mapper.ErrNoFields)
	}
	set := migrate.MigrationSet{TableName: a.migrations}
	id := "create_" + table

	// The planner positions new migrations relative to the last applied one,
	// so every applied id must be present in the source.
	records, err := set.GetMigrationRecords(a.db.DB, a.dialect.Migrate)
	if err != nil {
		return fmt.Errorf("migrate %s: %w", table, err)
	}
	source := &migrate.MemoryMigrationSource{}
	for _, r := range records {
		if r.Id == id {
			return nil
		}
		source.Migrations = append(source.Migrations, &migrate.Migration{Id: r.Id})
	}
	source.Migrations = append(source.Migrations, &migrate.Migration{
		Id:   id,
		Up:   []string{a.dialect.createTable(table, fields)},
		Down: []string{"DROP TABLE IF EXISTS " + table},
	})

	n, err := set.Exec(a.db.DB, a.dialect.Migrate, source, migrate.Up)
	if err != nil {
		return fmt.Errorf("migrate %s: %w", table, err)
	}
	if n > 0 {
		a.log.Info("table created", "table", table, "dialect", a.dialect.Driver)
	}
	return nil
}

// Migrations returns the ids of the applied schema migrations.
func (a *Adapter) Migrations() ([]string, error) {
	set := migrate.MigrationSet{TableName: a.migrations}
	records, err := set.GetMigrationRecords(a.db.DB, a.dialect.Migrate)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.Id)
	}
	return ids, nil
}
