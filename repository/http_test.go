package repository

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfgraph/engine/types"
	"gopkg.in/yaml.v3"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/list", func(w http.ResponseWriter, r *http.Request) {
		items := []Item{{Name: "ci.yaml", Path: "workflows/ci.yaml", Type: ItemFile}}
		_ = json.NewEncoder(w).Encode(items)
	})
	mux.HandleFunc("/api/get", func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Query().Get("path")
		if path == "missing.yaml" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		wf := types.Workflow{Jobs: []*types.Job{{ID: "build"}}}
		data, _ := yaml.Marshal(wf)
		_, _ = w.Write(data)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPSourceList(t *testing.T) {
	srv := newTestServer(t)
	src := NewHTTPSource(srv.URL, nil)
	defer src.Close()

	items, err := src.List(context.Background(), "workflows")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "ci.yaml", items[0].Name)
}

func TestHTTPSourceGet(t *testing.T) {
	srv := newTestServer(t)
	src := NewHTTPSource(srv.URL, nil)
	defer src.Close()

	wf, err := src.Get(context.Background(), "workflows/ci.yaml")
	require.NoError(t, err)
	require.Len(t, wf.Jobs, 1)
	assert.Equal(t, "build", wf.Jobs[0].ID)

	_, err = src.Get(context.Background(), "missing.yaml")
	assert.ErrorIs(t, err, types.ErrRepositoryNotFound)
}

func TestHTTPSourceResolve(t *testing.T) {
	srv := newTestServer(t)
	src := NewHTTPSource(srv.URL, nil)
	defer src.Close()

	loc, err := src.Resolve(context.Background(), "workflows", "banner.tmpl")
	require.NoError(t, err)
	assert.Contains(t, loc, "/api/raw/workflows/banner.tmpl")

	_, err = src.Resolve(context.Background(), "workflows", "")
	assert.ErrorIs(t, err, types.ErrTemplateInvalidURL)
}

func TestValidateBaseURL(t *testing.T) {
	assert.NoError(t, ValidateBaseURL("https://repo.example.com"))
	assert.Error(t, ValidateBaseURL(""))
}
