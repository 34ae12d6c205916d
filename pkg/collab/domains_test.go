package collab

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainFilter(t *testing.T) {
	df, err := NewDomainFilter([]string{
		"example.com",
		"https://Docs.Example.org/path",
		"*.golang.org",
		"api.github.com:443",
		"# comment",
		"",
	})
	require.NoError(t, err)
	assert.False(t, df.Empty())

	tests := []struct {
		url  string
		want bool
	}{
		{"https://example.com/page", true},
		{"https://EXAMPLE.com", true},
		{"https://docs.example.org/", true},
		{"https://pkg.golang.org/x", true},
		{"https://a.b.golang.org/x", false},
		{"https://golang.org", false},
		{"https://api.github.com/repos", true},
		{"https://evil.com", false},
		{"http://localhost:8080", true},
		{"http://127.0.0.1:9000", true},
		{"http://[::1]:9000", true},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, err := df.IsAllowed(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDomainFilterEmptyAllowsAll(t *testing.T) {
	df, err := NewDomainFilter(nil)
	require.NoError(t, err)
	assert.True(t, df.Empty())

	ok, err := df.IsAllowed("https://anything.example")
	require.NoError(t, err)
	assert.True(t, ok)

	var nilFilter *DomainFilter
	ok, err = nilFilter.IsAllowed("https://anything.example")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDomainFilterInvalidPattern(t *testing.T) {
	_, err := NewDomainFilter([]string{"[broken"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid domain pattern")
}

func TestHTTPFetcherRejectsDisallowedDomain(t *testing.T) {
	df, err := NewDomainFilter([]string{"example.com"})
	require.NoError(t, err)

	f := NewHTTPFetcher(WithDomainFilter(df), WithRetry(1, 0))
	_, err = f.Fetch(context.Background(), "https://evil.com/page")
	require.Error(t, err)
	assert.Equal(t, "domain not allowed: evil.com", err.Error())
}
