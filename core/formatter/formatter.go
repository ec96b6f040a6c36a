// Package formatter provides a pluggable output formatting system.
// Formatters convert registry listings to various output formats
// (table, json, yaml) for the command line.
package formatter

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/IbnNafis007/tlgen/core/registry"
)

// Row is one constructor entry in display form.
type Row struct {
	ID     string `json:"id" yaml:"id"`
	Kind   string `json:"kind" yaml:"kind"`
	Name   string `json:"name" yaml:"name"`
	Args   int    `json:"args" yaml:"args"`
	Result string `json:"result" yaml:"result"`
}

// Rows flattens a built registry into display rows, keeping declaration
// order.
func Rows(reg *registry.Registry) []Row {
	rows := make([]Row, 0, reg.Len())
	for _, spec := range reg.Entries() {
		kind := "type"
		if spec.Def.IsFunction {
			kind = "function"
		}
		rows = append(rows, Row{
			ID:     fmt.Sprintf("0x%08x", spec.Def.ID),
			Kind:   kind,
			Name:   spec.Def.FullName(),
			Args:   len(spec.Def.Args),
			Result: spec.Def.Result,
		})
	}
	return rows
}

// Formatter converts registry rows to a specific output format.
type Formatter interface {
	// Name returns the formatter name (e.g., "table", "json", "yaml").
	Name() string

	// Description returns a human-readable description.
	Description() string

	// FormatRows formats a listing of constructor rows.
	FormatRows(w io.Writer, rows []Row, opts FormatOptions) error

	// FormatError formats an error.
	FormatError(w io.Writer, err error) error
}

// FormatOptions configures formatting behavior.
type FormatOptions struct {
	// Columns specifies which row fields to include (nil = all).
	Columns []string

	// NoHeader disables the header row for tabular formats.
	NoHeader bool

	// Compact minimizes whitespace (for json/yaml).
	Compact bool

	// MaxWidth truncates long values (0 = no limit).
	MaxWidth int
}

// defaultColumns is the display order when none are requested.
var defaultColumns = []string{"id", "kind", "name", "args", "result"}

// columnValue extracts one display field from a row. Unknown columns
// yield nil, which formats as missing.
func columnValue(r Row, col string) any {
	switch col {
	case "id":
		return r.ID
	case "kind":
		return r.Kind
	case "name":
		return r.Name
	case "args":
		return r.Args
	case "result":
		return r.Result
	}
	return nil
}

func resolveColumns(requested []string) []string {
	if len(requested) > 0 {
		return requested
	}
	return defaultColumns
}

// Registry manages registered formatters.
type Registry struct {
	mu         sync.RWMutex
	formatters map[string]Formatter
	defaultFmt string
}

// NewRegistry creates a new formatter registry.
func NewRegistry() *Registry {
	return &Registry{
		formatters: make(map[string]Formatter),
		defaultFmt: "table",
	}
}

// Register adds a formatter to the registry.
func (r *Registry) Register(f Formatter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.formatters[f.Name()]; exists {
		return fmt.Errorf("formatter %q already registered", f.Name())
	}

	r.formatters[f.Name()] = f
	return nil
}

// Get returns a formatter by name.
func (r *Registry) Get(name string) (Formatter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.formatters[name]
	return f, ok
}

// Default returns the default formatter.
func (r *Registry) Default() Formatter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.formatters[r.defaultFmt]
	if !ok {
		// Fallback to first available
		for _, f := range r.formatters {
			return f
		}
		return nil
	}
	return f
}

// SetDefault sets the default formatter.
func (r *Registry) SetDefault(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.formatters[name]; !exists {
		return fmt.Errorf("formatter %q not registered", name)
	}

	r.defaultFmt = name
	return nil
}

// List returns all registered formatter names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.formatters))
	for name := range r.formatters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global formatter registry.
var DefaultRegistry = NewRegistry()

// Register adds a formatter to the default registry.
func Register(f Formatter) error {
	return DefaultRegistry.Register(f)
}

// Get returns a formatter from the default registry.
func Get(name string) (Formatter, bool) {
	return DefaultRegistry.Get(name)
}

// Default returns the default formatter from the default registry.
func Default() Formatter {
	return DefaultRegistry.Default()
}

// List returns all formatter names from the default registry.
func List() []string {
	return DefaultRegistry.List()
}
