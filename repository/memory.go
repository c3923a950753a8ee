package repository

import (
	"context"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/wfgraph/engine/types"
)

// MemorySource is an in-process Source fake for tests and offline use:
// documents and template files are pre-loaded by the caller rather than
// fetched over a network.
type MemorySource struct {
	mu        sync.RWMutex
	documents map[string]*types.Workflow
	files     map[string][]byte
}

// NewMemorySource builds an empty MemorySource.
func NewMemorySource() *MemorySource {
	return &MemorySource{
		documents: make(map[string]*types.Workflow),
		files:     make(map[string][]byte),
	}
}

// PutDocument registers a workflow document reachable at path via Get,
// and makes it appear as a "file" entry under its parent path via List.
func (m *MemorySource) PutDocument(path string, wf *types.Workflow) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents[path] = wf
}

// PutFile registers a template source file's raw bytes, resolvable and
// fetchable at repoPath/file.
func (m *MemorySource) PutFile(repoPath, file string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[joinKey(repoPath, file)] = data
}

func joinKey(repoPath, file string) string {
	return path.Join(repoPath, file)
}

// List returns synthetic entries for every registered document and file
// whose parent equals listPath, sorted by path.
func (m *MemorySource) List(_ context.Context, listPath string) ([]Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var items []Item
	seen := make(map[string]bool)
	add := func(p string, typ ItemType) {
		if path.Dir(p) != normalizeDir(listPath) {
			return
		}
		if seen[p] {
			return
		}
		seen[p] = true
		items = append(items, Item{Name: path.Base(p), Path: p, Type: typ})
	}
	for p := range m.documents {
		add(p, ItemFile)
	}
	for p := range m.files {
		add(p, ItemFile)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Path < items[j].Path })
	return items, nil
}

func normalizeDir(p string) string {
	if p == "" {
		return "."
	}
	return path.Clean(p)
}

// Get returns the workflow document registered at path.
func (m *MemorySource) Get(_ context.Context, docPath string) (*types.Workflow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	wf, ok := m.documents[docPath]
	if !ok {
		return nil, types.RepositoryPathNotFound(docPath)
	}
	return wf, nil
}

// Resolve returns a "mem://" pseudo-URL uniquely identifying repoPath/file.
// It never fails: an absent file is reported at fetch time by
// FetchBytes, matching the split between resolve and fetch in spec §6.
func (m *MemorySource) Resolve(_ context.Context, repoPath, file string) (string, error) {
	return "mem://" + strings.TrimPrefix(joinKey(repoPath, file), "/"), nil
}

// FetchBytes implements Fetcher: it returns the bytes registered for the
// repoPath/file key a prior Resolve call encoded into a "mem://" location.
func (m *MemorySource) FetchBytes(_ context.Context, location string) ([]byte, error) {
	key := strings.TrimPrefix(location, "mem://")
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[key]
	if !ok {
		return nil, types.TemplateFileNotFound(key)
	}
	return data, nil
}
