package collab

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvCredentials(t *testing.T) {
	env := map[string]string{"SECOND": "  tok-2  ", "EMPTY": " "}
	creds := &EnvCredentials{
		Vars: []string{"FIRST", "EMPTY", "SECOND"},
		lookup: func(name string) (string, bool) {
			v, ok := env[name]
			return v, ok
		},
	}

	token, err := creds.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-2", token)

	creds.Vars = []string{"FIRST"}
	_, err = creds.Token(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoCredentials))
}

func TestNewEnvCredentials(t *testing.T) {
	t.Setenv("SKILLCTL_TEST_TOKEN", "abc")

	token, err := NewEnvCredentials("SKILLCTL_TEST_TOKEN").Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", token)
}

func TestStaticCredentials(t *testing.T) {
	token, err := StaticCredentials("x").Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "x", token)

	_, err = StaticCredentials("").Token(context.Background())
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestHTTPFetcher(t *testing.T) {
	t.Run("converts html to markdown", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			fmt.Fprint(w, "<html><body><h1>Title</h1><p>Hello <strong>world</strong></p></body></html>")
		}))
		defer srv.Close()

		doc, err := NewHTTPFetcher(WithHTTPClient(srv.Client())).Fetch(context.Background(), srv.URL)
		require.NoError(t, err)
		assert.Contains(t, doc.Markdown, "# Title")
		assert.Contains(t, doc.Markdown, "**world**")
		assert.Contains(t, doc.ContentType, "text/html")
	})

	t.Run("passes markdown through", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/markdown")
			fmt.Fprint(w, "# Raw\n")
		}))
		defer srv.Close()

		doc, err := NewHTTPFetcher().Fetch(context.Background(), srv.URL)
		require.NoError(t, err)
		assert.Equal(t, "# Raw\n", doc.Markdown)
	})

	t.Run("retries server errors", func(t *testing.T) {
		var calls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if atomic.AddInt32(&calls, 1) < 3 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			w.Header().Set("Content-Type", "text/plain")
			fmt.Fprint(w, "ok")
		}))
		defer srv.Close()

		doc, err := NewHTTPFetcher(WithRetry(3, time.Millisecond)).Fetch(context.Background(), srv.URL)
		require.NoError(t, err)
		assert.Equal(t, "ok", doc.Markdown)
		assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	})

	t.Run("does not retry client errors", func(t *testing.T) {
		var calls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		_, err := NewHTTPFetcher(WithRetry(3, time.Millisecond)).Fetch(context.Background(), srv.URL)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "404")
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("rejects unsupported schemes", func(t *testing.T) {
		_, err := NewHTTPFetcher().Fetch(context.Background(), "file:///etc/passwd")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported URL scheme")
	})
}

func TestExecGit(t *testing.T) {
	g := NewExecGit()

	err := g.Add(context.Background(), t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no files to stage")

	_, err = g.Commit(context.Background(), t.TempDir(), "  ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "commit message cannot be empty")
}

func TestFirstNonFlag(t *testing.T) {
	assert.Equal(t, "push", firstNonFlag([]string{"-c", "http.extraHeader=secret", "push", "origin"}))
	assert.Equal(t, "commit", firstNonFlag([]string{"commit", "-m", "x"}))
	assert.Equal(t, "", firstNonFlag(nil))
}
