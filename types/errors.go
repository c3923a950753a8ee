package types

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel error kinds. Every error the core surfaces across the
// execute() boundary wraps one of these so callers can classify it with
// errors.Is, per spec §7.
var (
	ErrDuplicateNode        = errors.New("duplicate node")
	ErrMissingDependency    = errors.New("missing dependency")
	ErrCyclicDependency     = errors.New("cyclic dependency")
	ErrParsingFailed        = errors.New("parsing failed")
	ErrUnsupportedScript    = errors.New("unsupported script type")
	ErrNotRootNode          = errors.New("not a root node")
	ErrInvalidPath          = errors.New("invalid path")
	ErrExecutionFailed      = errors.New("execution failed")
	ErrCommandFailed        = errors.New("command failed")
	ErrProcessFailed        = errors.New("process failed")
	ErrTemplateFileNotFound = errors.New("template file not found")
	ErrTemplateInvalidURL   = errors.New("template invalid url")
	ErrTemplateInvalid      = errors.New("template invalid")
	ErrRepositoryNotFound   = errors.New("repository path not found")
	ErrRepositoryHTTP       = errors.New("repository http error")
	ErrRepositoryNetwork    = errors.New("repository network error")
	ErrRepositoryParse      = errors.New("repository parse error")
)

// DuplicateNode reports a job/node id that appears more than once in a
// workflow's job list.
func DuplicateNode(id string) error {
	return fmt.Errorf("%w: %s", ErrDuplicateNode, id)
}

// MissingDependency reports a `needs` entry that references no node.
func MissingDependency(jobID, depID string) error {
	return fmt.Errorf("%w: job %s needs unknown job %s", ErrMissingDependency, jobID, depID)
}

// CyclicDependency reports a cycle found while validating the graph. Path
// lists the cycle's node ids in traversal order.
func CyclicDependency(path []string) error {
	return fmt.Errorf("%w: %s", ErrCyclicDependency, strings.Join(path, " -> "))
}

// CyclePath extracts the cycle path from an error produced by
// CyclicDependency, if any.
func CyclePath(err error) ([]string, bool) {
	if !errors.Is(err, ErrCyclicDependency) {
		return nil, false
	}
	msg := err.Error()
	idx := strings.Index(msg, ": ")
	if idx < 0 {
		return nil, false
	}
	return strings.Split(msg[idx+2:], " -> "), true
}

// UnsupportedScriptType reports a script kind the executor registry has
// no handler for.
func UnsupportedScriptType(kind string) error {
	return fmt.Errorf("%w: %s", ErrUnsupportedScript, kind)
}

// InvalidPath reports a lookup path that fails to resolve, per §4.8.
func InvalidPath(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidPath, reason)
}

// ExecutionFailed wraps a generic runtime failure with a free-form detail.
func ExecutionFailed(detail string) error {
	return fmt.Errorf("%w: %s", ErrExecutionFailed, detail)
}

// CommandFailed reports a shell command that exited non-zero, per §4.3.
func CommandFailed(exitCode int, tail string) error {
	return fmt.Errorf("%w: exit code %d, output tail: %s", ErrCommandFailed, exitCode, tail)
}

// ProcessFailed reports a failure to even start/run the shell process.
func ProcessFailed(reason string) error {
	return fmt.Errorf("%w: %s", ErrProcessFailed, reason)
}

// TemplateFileNotFound reports a source file the repository could not
// resolve to bytes.
func TemplateFileNotFound(path string) error {
	return fmt.Errorf("%w: %s", ErrTemplateFileNotFound, path)
}

// TemplateInvalidURL reports a resolved location the template executor
// could not fetch.
func TemplateInvalidURL(url string) error {
	return fmt.Errorf("%w: %s", ErrTemplateInvalidURL, url)
}

// TemplateInvalid reports a template file that failed to parse or render.
func TemplateInvalid(file string) error {
	return fmt.Errorf("%w: %s", ErrTemplateInvalid, file)
}

// RepositoryPathNotFound reports a sub-path the repository source has no
// item for.
func RepositoryPathNotFound(path string) error {
	return fmt.Errorf("%w: %s", ErrRepositoryNotFound, path)
}

// RepositoryHTTPError reports a non-2xx response from the repository's
// HTTP transport.
func RepositoryHTTPError(code int) error {
	return fmt.Errorf("%w: status %d", ErrRepositoryHTTP, code)
}

// RepositoryNetworkError wraps a transport-level failure.
func RepositoryNetworkError(cause error) error {
	return fmt.Errorf("%w: %v", ErrRepositoryNetwork, cause)
}

// RepositoryParseError wraps a decode failure for a fetched document.
func RepositoryParseError(cause error) error {
	return fmt.Errorf("%w: %v", ErrRepositoryParse, cause)
}
