// Package resource resolves location strings to readable resources:
// classpath:<path> from a registered file system, file:<path> or a bare path
// on disk, and http(s) URLs.
package resource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"
	"time"
)

// Resource is something that can be opened for reading.
type Resource interface {
	Open() (io.ReadCloser, error)
	// Description names the resource for error messages.
	Description() string
}

// Loader resolves locations to resources. Resolving never fails; problems
// surface when the resource is opened.
type Loader interface {
	Resource(location string) Resource
}

const (
	ClasspathPrefix = "classpath:"
	FilePrefix      = "file:"
)

// ErrNotFound is returned when a resource does not exist.
var ErrNotFound = errors.New("resource not found")

// DefaultLoader resolves classpath locations in Classpath, files through the
// operating system and URLs with Client.
type DefaultLoader struct {
	Classpath fs.FS
	Client    *http.Client
	// Context bounds HTTP fetches; nil means context.Background.
	Context context.Context
}

var _ Loader = (*DefaultLoader)(nil)

// NewLoader returns a DefaultLoader over classpath with a 30 second HTTP
// client.
func NewLoader(classpath fs.FS) *DefaultLoader {
	return &DefaultLoader{
		Classpath: classpath,
		Client:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (l *DefaultLoader) Resource(location string) Resource {
	switch {
	case strings.HasPrefix(location, ClasspathPrefix):
		p := strings.TrimPrefix(strings.TrimPrefix(location, ClasspathPrefix), "/")
		return &fsResource{fsys: l.Classpath, path: path.Clean(p)}
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		client := l.Client
		if client == nil {
			client = http.DefaultClient
		}
		ctx := l.Context
		if ctx == nil {
			ctx = context.Background()
		}
		return &urlResource{ctx: ctx, client: client, url: location}
	case strings.HasPrefix(location, FilePrefix):
		return &fileResource{path: strings.TrimPrefix(location, FilePrefix)}
	default:
		return &fileResource{path: location}
	}
}

type fsResource struct {
	fsys fs.FS
	path string
}

func (r *fsResource) Description() string { return "class path resource [" + r.path + "]" }

func (r *fsResource) Open() (io.ReadCloser, error) {
	if r.fsys == nil {
		return nil, fmt.Errorf("%s: %w", r.Description(), ErrNotFound)
	}
	f, err := r.fsys.Open(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", r.Description(), ErrNotFound)
		}
		return nil, err
	}
	return f, nil
}

type fileResource struct {
	path string
}

func (r *fileResource) Description() string { return "file [" + r.path + "]" }

func (r *fileResource) Open() (io.ReadCloser, error) {
	f, err := os.Open(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", r.Description(), ErrNotFound)
		}
		return nil, err
	}
	return f, nil
}

type urlResource struct {
	ctx    context.Context
	client *http.Client
	url    string
}

func (r *urlResource) Description() string { return "URL [" + r.url + "]" }

func (r *urlResource) Open() (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(r.ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, fmt.Errorf("%s: %w", r.Description(), ErrNotFound)
	case resp.StatusCode >= 300:
		resp.Body.Close()
		return nil, fmt.Errorf("%s: unexpected status %s", r.Description(), resp.Status)
	}
	return resp.Body, nil
}
