package resource

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func read(t *testing.T, r Resource) string {
	t.Helper()
	rc, err := r.Open()
	require.NoError(t, err)
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(b)
}

func TestClasspath(t *testing.T) {
	l := NewLoader(fstest.MapFS{"graphql/schema.graphqls": {Data: []byte("type Person { name: String }")}})

	r := l.Resource("classpath:graphql/schema.graphqls")
	require.Equal(t, "class path resource [graphql/schema.graphqls]", r.Description())
	require.Equal(t, "type Person { name: String }", read(t, r))
	require.Equal(t, "type Person { name: String }", read(t, l.Resource("classpath:/graphql/schema.graphqls")))

	_, err := l.Resource("classpath:missing.graphqls").Open()
	require.ErrorIs(t, err, ErrNotFound)
}

func TestClasspath_NoFS(t *testing.T) {
	_, err := (&DefaultLoader{}).Resource("classpath:x").Open()
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "schema.graphqls")
	require.NoError(t, os.WriteFile(p, []byte("type A { b: Int }"), 0o600))
	l := NewLoader(nil)

	require.Equal(t, "type A { b: Int }", read(t, l.Resource(p)))
	require.Equal(t, "type A { b: Int }", read(t, l.Resource("file:"+p)))

	_, err := l.Resource(filepath.Join(dir, "nope")).Open()
	require.ErrorIs(t, err, ErrNotFound)
}

func TestURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/schema.graphqls":
			io.WriteString(w, "type Q { a: Int }")
		case "/broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	l := NewLoader(nil)

	require.Equal(t, "type Q { a: Int }", read(t, l.Resource(srv.URL+"/schema.graphqls")))

	_, err := l.Resource(srv.URL + "/missing").Open()
	require.ErrorIs(t, err, ErrNotFound)

	_, err = l.Resource(srv.URL + "/broken").Open()
	require.ErrorContains(t, err, "unexpected status")
}
