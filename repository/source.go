// Package repository implements the repository source contract of spec
// §6: the external collaborator a workflow uses to list and fetch
// workflow documents and to resolve template file references to a
// fetchable location. The core only ever talks to the Source
// interface; HTTPSource and MemorySource are two concrete
// implementations of it.
package repository

import (
	"context"

	"github.com/wfgraph/engine/types"
)

// ItemType distinguishes a listed repository entry's kind.
type ItemType string

const (
	ItemFile   ItemType = "file"
	ItemFolder ItemType = "folder"
)

// Item is one entry returned by Source.List.
type Item struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Path        string   `json:"path" yaml:"path"`
	Category    string   `json:"category,omitempty" yaml:"category,omitempty"`
	Type        ItemType `json:"type" yaml:"type"`
}

// Source is the repository source contract of spec §6. Implementations
// map failures onto the RepositoryPathNotFound/RepositoryHTTPError/
// RepositoryNetworkError/RepositoryParseError family from types/errors.go.
type Source interface {
	// List returns the entries under path, or the repository root if
	// path is empty.
	List(ctx context.Context, path string) ([]Item, error)

	// Get fetches and decodes the workflow document at path.
	Get(ctx context.Context, path string) (*types.Workflow, error)

	// Resolve maps a repository sub-path and a file reference within it
	// to a URL or local file path the template executor can fetch.
	Resolve(ctx context.Context, path, file string) (string, error)
}

// DecodeYAML decodes a workflow document from YAML bytes. It is the
// external decoder named in spec §1's out-of-scope list; the core never
// calls it directly, only Source implementations and the demo CLI do.
func DecodeYAML(data []byte) (*types.Workflow, error) {
	return decodeYAML(data)
}

// Fetcher is an optional capability a Source may implement to serve the
// bytes behind a location it produced from Resolve directly, bypassing
// the generic file://+http(s):// fetch the template executor otherwise
// performs. MemorySource implements it so tests never touch a real
// filesystem or network.
type Fetcher interface {
	FetchBytes(ctx context.Context, location string) ([]byte, error)
}
