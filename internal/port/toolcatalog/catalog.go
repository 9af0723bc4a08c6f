// Package toolcatalog defines the capability catalog port and the builtin
// constructor registry used for deferred loading of well-known tools.
package toolcatalog

import "github.com/Strob0t/Warden/internal/domain/capability"

// Meta describes one catalog entry. The gateway never interprets it beyond
// existence and kind checks.
type Meta struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Kind        string `json:"kind" yaml:"kind"` // "builtin" or "api"
}

// Catalog lists externally registered capability metadata.
type Catalog interface {
	// Lookup returns the metadata for name, if the catalog knows it.
	Lookup(name string) (Meta, bool)

	// List returns all entries, sorted by name.
	List() []Meta
}

// Loader materializes a well-known capability implementation by name.
// Deferred loading is a convenience, never a security boundary: the
// gateway checks the declared set before consulting any loader.
type Loader interface {
	Load(name string) (capability.Func, bool)
}
