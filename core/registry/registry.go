// Package registry maps constructor ids to derived wire layouts. The
// registry is what turns a 32-bit id read off the wire back into a typed
// decode, so it is built once per batch and never mutated afterwards.
package registry

import (
	"fmt"

	"github.com/IbnNafis007/tlgen/core/codegen"
)

// Registry is an immutable constructor-id index over a batch of derived
// specs. A built registry is safe for concurrent readers without locking.
type Registry struct {
	entries []*codegen.Spec
	byID    map[uint32]*codegen.Spec
	byName  map[string]*codegen.Spec
}

// DuplicateIDError reports two definitions claiming the same constructor
// id. Id collisions make decode dispatch ambiguous, so Build refuses the
// whole batch.
type DuplicateIDError struct {
	ID     uint32
	First  string
	Second string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("constructor id 0x%08x claimed by both %s and %s", e.ID, e.First, e.Second)
}

// Build indexes specs by constructor id. Declaration order is preserved:
// Entries returns specs exactly as given. Any duplicate id fails the build.
func Build(specs []*codegen.Spec) (*Registry, error) {
	r := &Registry{
		entries: make([]*codegen.Spec, 0, len(specs)),
		byID:    make(map[uint32]*codegen.Spec, len(specs)),
		byName:  make(map[string]*codegen.Spec, len(specs)),
	}
	for _, spec := range specs {
		id := spec.Def.ID
		if first, ok := r.byID[id]; ok {
			return nil, &DuplicateIDError{
				ID:     id,
				First:  first.Def.FullName(),
				Second: spec.Def.FullName(),
			}
		}
		r.byID[id] = spec
		r.byName[spec.Def.FullName()] = spec
		r.entries = append(r.entries, spec)
	}
	return r, nil
}

// Lookup returns the spec registered under id.
func (r *Registry) Lookup(id uint32) (*codegen.Spec, bool) {
	spec, ok := r.byID[id]
	return spec, ok
}

// LookupName returns the spec registered under the full definition name,
// e.g. "messages.send".
func (r *Registry) LookupName(fullName string) (*codegen.Spec, bool) {
	spec, ok := r.byName[fullName]
	return spec, ok
}

// Entries returns every spec in declaration order. The slice is shared;
// callers must not modify it.
func (r *Registry) Entries() []*codegen.Spec {
	return r.entries
}

// Len returns the number of registered constructors.
func (r *Registry) Len() int {
	return len(r.entries)
}
