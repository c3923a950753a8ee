package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfgraph/engine/types"
)

func TestMemorySourceGet(t *testing.T) {
	ctx := context.Background()
	src := NewMemorySource()
	wf := &types.Workflow{Jobs: []*types.Job{{ID: "build"}}}
	src.PutDocument("workflows/ci.yaml", wf)

	got, err := src.Get(ctx, "workflows/ci.yaml")
	require.NoError(t, err)
	assert.Same(t, wf, got)

	_, err = src.Get(ctx, "missing.yaml")
	assert.ErrorIs(t, err, types.ErrRepositoryNotFound)
}

func TestMemorySourceList(t *testing.T) {
	ctx := context.Background()
	src := NewMemorySource()
	src.PutDocument("workflows/ci.yaml", &types.Workflow{})
	src.PutFile("workflows", "banner.tmpl", []byte("hi"))
	src.PutDocument("other/deploy.yaml", &types.Workflow{})

	items, err := src.List(ctx, "workflows")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "banner.tmpl", items[0].Name)
	assert.Equal(t, "ci.yaml", items[1].Name)
}

func TestMemorySourceResolveAndFetch(t *testing.T) {
	ctx := context.Background()
	src := NewMemorySource()
	src.PutFile("workflows", "banner.tmpl", []byte("hello {{name}}"))

	loc, err := src.Resolve(ctx, "workflows", "banner.tmpl")
	require.NoError(t, err)
	assert.Contains(t, loc, "mem://")

	data, err := src.FetchBytes(ctx, loc)
	require.NoError(t, err)
	assert.Equal(t, "hello {{name}}", string(data))

	_, err = src.FetchBytes(ctx, "mem://workflows/missing.tmpl")
	assert.ErrorIs(t, err, types.ErrTemplateFileNotFound)
}

func TestMemorySourceImplementsFetcher(t *testing.T) {
	var _ Fetcher = NewMemorySource()
	var _ Source = NewMemorySource()
}
