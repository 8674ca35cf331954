//go:build !wasm

package mapgen

// Generator turns tagged Go structs into mapper definitions.
type Generator struct {
	logFn   func(messages ...any)
	rootDir string
}

// New creates a Generator whose root directory defaults to ".".
func New() *Generator {
	return &Generator{rootDir: "."}
}

// SetLog sets the function warnings are reported through.
// If not set, messages are silently discarded.
func (g *Generator) SetLog(fn func(messages ...any)) {
	g.logFn = fn
}

// SetRootDir sets the directory Run scans for model files.
func (g *Generator) SetRootDir(dir string) {
	g.rootDir = dir
}

func (g *Generator) log(messages ...any) {
	if g.logFn != nil {
		g.logFn(messages...)
	}
}
