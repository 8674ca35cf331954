//go:build !wasm

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tinywasm/mapper/internal/logging"
	"github.com/tinywasm/mapper/mapgen"
)

func main() {
	root := flag.String("root", ".", "directory to scan for model.go and models.go files")
	flag.Parse()

	logger, closeLog := logging.SetupLogger(os.Stderr, "info", os.Getenv("SEQ_URL"))
	defer closeLog()

	g := mapgen.New()
	g.SetRootDir(*root)
	g.SetLog(func(messages ...any) {
		logger.Warn(fmt.Sprint(messages...))
	})
	if err := g.Run(); err != nil {
		logger.Error("mapgen failed", "error", err)
		closeLog()
		os.Exit(1)
	}
}
