package tools

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchPageHTML = `<html><body>
<div class="result">
  <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fgo.dev%2Fdoc%2F">Go Documentation</a>
  <div class="result__snippet">The official <b>Go</b> documentation.</div>
</div>
<div class="result">
  <a class="result__a" href="https://pkg.go.dev/std">Standard library</a>
  <div class="result__snippet">Package index.</div>
</div>
<div class="result">
  <a class="result__a" href=""></a>
</div>
</body></html>`

func TestParseSearchResults(t *testing.T) {
	results, err := parseSearchResults(strings.NewReader(searchPageHTML), 10)
	require.NoError(t, err)
	require.Len(t, results, 2, "results without title or href are skipped")

	assert.Equal(t, "Go Documentation", results[0].Title)
	assert.Equal(t, "https://go.dev/doc/", results[0].URL, "redirect links are unwrapped")
	assert.Contains(t, results[0].Snippet, "**Go**", "highlight tags become markdown emphasis")

	assert.Equal(t, "https://pkg.go.dev/std", results[1].URL, "direct links pass through")
}

func TestParseSearchResultsRespectsLimit(t *testing.T) {
	results, err := parseSearchResults(strings.NewReader(searchPageHTML), 1)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestResolveRedirect(t *testing.T) {
	tests := []struct {
		name string
		href string
		want string
	}{
		{"wrapped redirect", "//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fpage", "https://example.com/page"},
		{"plain url", "https://example.com", "https://example.com"},
		{"no uddg param", "//duckduckgo.com/l/?other=x", "//duckduckgo.com/l/?other=x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveRedirect(tt.href))
		})
	}
}

func TestWebSearchHandler(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "golang testing", r.URL.Query().Get("q"))
		io.WriteString(w, searchPageHTML)
	}))
	defer server.Close()

	orig := searchEndpoint
	searchEndpoint = server.URL + "/"
	defer func() { searchEndpoint = orig }()

	output, err := webSearchHandler(context.Background(), WebSearchInput{Query: "golang testing"})
	require.NoError(t, err)
	assert.Equal(t, "golang testing", output.Query)
	assert.Len(t, output.Results, 2)
}

func TestWebSearchHandlerEmptyQuery(t *testing.T) {
	_, err := webSearchHandler(context.Background(), WebSearchInput{Query: "   "})
	assert.Error(t, err)
}

func TestWebSearchHandlerServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	orig := searchEndpoint
	searchEndpoint = server.URL + "/"
	defer func() { searchEndpoint = orig }()

	_, err := webSearchHandler(context.Background(), WebSearchInput{Query: "anything"})
	assert.Error(t, err)
}

func TestDefaultCatalog(t *testing.T) {
	catalog, err := DefaultCatalog()
	require.NoError(t, err)

	assert.True(t, catalog.Has(WebSearchName))
	assert.True(t, catalog.Has(RunCodeName))

	descriptors := catalog.Descriptors()
	require.Len(t, descriptors, 2)
	assert.Equal(t, WebSearchName, descriptors[0].ID)
	assert.Equal(t, RunCodeName, descriptors[1].ID)
}
