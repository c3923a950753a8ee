package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/wfgraph/engine/types"
	"resty.dev/v3"
)

// HTTPSource is a Source backed by an HTTP repository server: List and
// Get hit JSON/YAML endpoints under baseURL, Resolve turns a repository
// sub-path and file reference into an absolute fetchable URL.
type HTTPSource struct {
	baseURL string
	client  *resty.Client
}

// NewHTTPSource builds an HTTPSource against baseURL, sharing httpClient
// across requests if provided (nil creates a default resty client).
func NewHTTPSource(baseURL string, httpClient *resty.Client) *HTTPSource {
	if httpClient == nil {
		httpClient = resty.New()
	}
	return &HTTPSource{baseURL: strings.TrimRight(baseURL, "/"), client: httpClient}
}

// Close releases the underlying HTTP client's idle connections.
func (s *HTTPSource) Close() error {
	return s.client.Close()
}

func (s *HTTPSource) urlFor(elem ...string) string {
	return s.baseURL + "/" + path.Join(elem...)
}

// List returns the repository entries under path ("" lists the root).
func (s *HTTPSource) List(ctx context.Context, listPath string) ([]Item, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("path", listPath).
		Get(s.urlFor("api", "list"))
	if err != nil {
		return nil, types.RepositoryNetworkError(err)
	}
	if err := statusToError(resp.StatusCode(), listPath); err != nil {
		return nil, err
	}
	var items []Item
	if err := json.Unmarshal(resp.Bytes(), &items); err != nil {
		return nil, types.RepositoryParseError(err)
	}
	return items, nil
}

// Get fetches and decodes the workflow document at path.
func (s *HTTPSource) Get(ctx context.Context, docPath string) (*types.Workflow, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("path", docPath).
		Get(s.urlFor("api", "get"))
	if err != nil {
		return nil, types.RepositoryNetworkError(err)
	}
	if err := statusToError(resp.StatusCode(), docPath); err != nil {
		return nil, err
	}

	wf, err := decodeYAML(resp.Bytes())
	if err != nil {
		return nil, types.RepositoryParseError(err)
	}
	return wf, nil
}

// Resolve maps a repository sub-path and file reference to an absolute
// URL the template executor can fetch directly.
func (s *HTTPSource) Resolve(ctx context.Context, resolvePath, file string) (string, error) {
	if file == "" {
		return "", types.TemplateInvalidURL(file)
	}
	u, err := url.Parse(s.urlFor("api", "raw", resolvePath, file))
	if err != nil {
		return "", types.TemplateInvalidURL(file)
	}
	return u.String(), nil
}

func statusToError(status int, path string) error {
	switch {
	case status == 404:
		return types.RepositoryPathNotFound(path)
	case status >= 400:
		return types.RepositoryHTTPError(status)
	default:
		return nil
	}
}

var errEmptyBaseURL = errors.New("repository: base URL must not be empty")

// ValidateBaseURL rejects an empty base URL before an HTTPSource is
// constructed with it.
func ValidateBaseURL(baseURL string) error {
	if strings.TrimSpace(baseURL) == "" {
		return errEmptyBaseURL
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return fmt.Errorf("repository: invalid base URL %q: %w", baseURL, err)
	}
	return nil
}
