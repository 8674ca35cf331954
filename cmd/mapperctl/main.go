package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/tinywasm/mapper"
	"github.com/tinywasm/mapper/internal/config"
	"github.com/tinywasm/mapper/internal/logging"
	"github.com/tinywasm/mapper/logsink"
	"github.com/tinywasm/mapper/sqladapter"
	"gopkg.in/yaml.v3"
)

const usage = `usage: mapperctl [-config mapper.yaml] <command> [args]

commands:
  migrate              create every configured table that does not exist
  dump <mapper> [n]    print up to n records (default 100) as YAML
  exec <sql>           run raw SQL and print the affected row count
`

func main() {
	cfgPath := flag.String("config", "mapper.yaml", "configuration file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if err := run(*cfgPath, flag.Args(), os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "mapperctl:", err)
		os.Exit(1)
	}
}

func run(cfgPath string, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.New("missing command\n" + usage)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	logger, closeLog := logging.SetupLogger(os.Stderr, cfg.Log.Level, cfg.Log.SeqURL)
	defer closeLog()

	sink, err := querySink(cfg.Log, logger)
	if err != nil {
		return err
	}

	adapter, err := sqladapter.Open(cfg.Driver, cfg.DSN,
		sqladapter.WithStatementCache(cfg.StatementCache),
		sqladapter.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	defer adapter.Close()

	reg, err := cfg.Registry(adapter, mapper.WithQueryLogger(sink))
	if err != nil {
		return err
	}

	switch args[0] {
	case "migrate":
		err = migrateAll(reg, logger)
	case "dump":
		err = dump(reg, args[1:], out)
	case "exec":
		err = execSQL(adapter, args[1:], out)
	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], usage)
	}

	if log, ok := sink.(*mapper.QueryLog); ok {
		logger.Info("statements issued", "count", log.Count())
	}
	return err
}

func querySink(cfg config.Log, logger *slog.Logger) (mapper.QueryLogger, error) {
	switch cfg.QuerySink {
	case "", "slog":
		return logsink.NewSlog(logger), nil
	case "zap":
		z, err := logging.NewZap(cfg.Level)
		if err != nil {
			return nil, err
		}
		return logsink.NewZap(z), nil
	case "memory":
		return mapper.NewQueryLog(), nil
	}
	return nil, nil
}

func migrateAll(reg *mapper.Registry, logger *slog.Logger) error {
	for _, name := range reg.Names() {
		m, err := reg.Mapper(name)
		if err != nil {
			return err
		}
		if err := m.Migrate(); err != nil {
			return err
		}
		logger.Debug("table synced", "mapper", name, "table", m.Table())
	}
	return nil
}

func dump(reg *mapper.Registry, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.New("dump: missing mapper name")
	}
	limit := 100
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n <= 0 {
			return fmt.Errorf("dump: invalid limit %q", args[1])
		}
		limit = n
	}

	m, err := reg.Mapper(args[0])
	if err != nil {
		return err
	}
	var order []mapper.Order
	if pk := m.PrimaryKeyField(); pk != "" {
		order = append(order, mapper.Asc(pk))
	}
	records, err := m.All(nil, order...).Limit(limit, 0).Records()
	if err != nil {
		return err
	}

	rows := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		row := make(map[string]any)
		for _, f := range m.Fields() {
			row[f.Name] = rec.Get(f.Name)
		}
		rows = append(rows, row)
	}
	enc := yaml.NewEncoder(out)
	defer enc.Close()
	return enc.Encode(rows)
}

func execSQL(adapter mapper.Adapter, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.New("exec: missing SQL")
	}
	n, err := adapter.Exec(args[0])
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%d rows affected\n", n)
	return err
}
