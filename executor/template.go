package executor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/valyala/fasttemplate"
	"github.com/wfgraph/engine/repository"
	"github.com/wfgraph/engine/types"
)

// TemplateExecutor implements spec §4.3's template executor contract:
// for each (source, output) pair in order, resolve, fetch, render, and
// write atomically, emitting one templateProgress event per pair.
type TemplateExecutor struct {
	// HTTPClient fetches http(s):// locations a Source.Resolve returns
	// when the Source itself doesn't implement repository.Fetcher.
	// Defaults to http.DefaultClient.
	HTTPClient *http.Client
	// StartTag/EndTag bound the fasttemplate placeholders. Default to
	// "{{" and "}}".
	StartTag, EndTag string
}

// Kind implements Executor.
func (e *TemplateExecutor) Kind() types.ScriptKind { return types.ScriptTemplate }

// Run implements Executor.
func (e *TemplateExecutor) Run(ctx context.Context, script types.Script, opts RunOptions) <-chan Result {
	out := make(chan Result)
	go e.run(ctx, script, opts, out)
	return out
}

func (e *TemplateExecutor) run(ctx context.Context, script types.Script, opts RunOptions, out chan<- Result) {
	defer close(out)

	total := len(script.Files)
	for i, pair := range script.Files {
		if ctx.Err() != nil {
			fail(ctx, out, ctx.Err())
			return
		}

		data, err := e.fetch(ctx, opts, pair.File)
		if err != nil {
			fail(ctx, out, err)
			return
		}

		rendered, err := e.render(data, opts.FormData)
		if err != nil {
			fail(ctx, out, types.TemplateInvalid(pair.File))
			return
		}

		outputPath := pair.Output
		if !filepath.IsAbs(outputPath) {
			outputPath = filepath.Join(opts.WorkDir, outputPath)
		}
		if err := writeAtomic(outputPath, rendered); err != nil {
			fail(ctx, out, types.ExecutionFailed(fmt.Sprintf("write %s: %v", outputPath, err)))
			return
		}

		if !emit(ctx, out, types.TemplateProgress(script.ID, outputPath, i+1, total)) {
			return
		}
	}
}

func (e *TemplateExecutor) fetch(ctx context.Context, opts RunOptions, file string) ([]byte, error) {
	if opts.Repository == nil {
		return nil, types.TemplateFileNotFound(file)
	}

	location, err := opts.Repository.Resolve(ctx, opts.RepoPath, file)
	if err != nil {
		return nil, types.TemplateInvalidURL(file)
	}

	cacheKey := location
	if opts.Cache != nil {
		if cached, err := opts.Cache.Get(ctx, cacheKey); err == nil {
			return cached, nil
		}
	}

	data, err := e.fetchLocation(ctx, opts.Repository, location)
	if err != nil {
		return nil, err
	}

	if opts.Cache != nil {
		_ = opts.Cache.Put(ctx, cacheKey, data)
	}
	return data, nil
}

func (e *TemplateExecutor) fetchLocation(ctx context.Context, src repository.Source, location string) ([]byte, error) {
	if fetcher, ok := src.(repository.Fetcher); ok {
		return fetcher.FetchBytes(ctx, location)
	}

	switch {
	case strings.HasPrefix(location, "file://"):
		return os.ReadFile(strings.TrimPrefix(location, "file://"))
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		return e.fetchHTTP(ctx, location)
	default:
		return nil, types.TemplateInvalidURL(location)
	}
}

func (e *TemplateExecutor) fetchHTTP(ctx context.Context, location string) ([]byte, error) {
	client := e.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, types.TemplateInvalidURL(location)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, types.RepositoryNetworkError(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, types.TemplateFileNotFound(location)
	}
	if resp.StatusCode >= 400 {
		return nil, types.RepositoryHTTPError(resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (e *TemplateExecutor) render(data []byte, formData map[string]interface{}) ([]byte, error) {
	startTag, endTag := e.StartTag, e.EndTag
	if startTag == "" {
		startTag = "{{"
	}
	if endTag == "" {
		endTag = "}}"
	}

	tpl, err := fasttemplate.NewTemplate(string(data), startTag, endTag)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	_, err = tpl.ExecuteFunc(&buf, func(w io.Writer, tag string) (int, error) {
		v, ok := formData[tag]
		if !ok {
			return 0, nil
		}
		return fmt.Fprintf(w, "%v", v)
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
