package websearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(server *httptest.Server) *Client {
	client := NewClient("test-key")
	client.searchURL = server.URL
	client.httpClient = server.Client()
	return client
}

func TestClient_Search(t *testing.T) {
	t.Run("decodes results and sends subscription token", func(t *testing.T) {
		var gotToken, gotQuery string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotToken = r.Header.Get("X-Subscription-Token")
			gotQuery = r.URL.Query().Get("q")
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"web":{"results":[
				{"title":"Gold prices today","url":"https://example.com/gold","description":"Live gold prices"},
				{"title":"","url":"https://example.com/2","description":"second"}
			]}}`))
		}))
		defer server.Close()

		results, err := newTestClient(server).Search(context.Background(), "gold prices")
		require.NoError(t, err)
		assert.Equal(t, "test-key", gotToken)
		assert.Equal(t, "gold prices", gotQuery)
		require.Len(t, results, 2)
		assert.Equal(t, "Gold prices today", results[0].Title)
		assert.Equal(t, "https://example.com/gold", results[0].URL)
		assert.Equal(t, "Live gold prices", results[0].Summary)
		assert.Equal(t, "No Title", results[1].Title)
	})

	t.Run("empty result set", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"web":{"results":[]}}`))
		}))
		defer server.Close()

		results, err := newTestClient(server).Search(context.Background(), "no hits")
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("HTTP error returns error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		_, err := newTestClient(server).Search(context.Background(), "q")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "429")
	})
}

func TestExtractPageContent(t *testing.T) {
	t.Run("strips markup and scripts", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<html><head><title>ignored</title><style>body{}</style></head>
				<body><script>var x = 1;</script>
				<h1>Gold Report</h1>
				<p>Gold is trading at $2000/oz.</p>
				</body></html>`))
		}))
		defer server.Close()

		content, err := ExtractPageContent(context.Background(), server.Client(), server.URL)
		require.NoError(t, err)
		assert.Contains(t, content, "Gold Report")
		assert.Contains(t, content, "Gold is trading at $2000/oz.")
		assert.NotContains(t, content, "var x")
		assert.NotContains(t, content, "ignored")
		assert.NotContains(t, content, "<p>")
	})

	t.Run("non-200 returns error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		_, err := ExtractPageContent(context.Background(), server.Client(), server.URL)
		require.Error(t, err)
	})
}

func TestTool_Run(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><p>Spot gold at $2000 per ounce.</p></body></html>`))
	}))
	defer page.Close()

	search := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"web":{"results":[
			{"title":"Gold today","url":"` + page.URL + `","description":"Latest prices"}
		]}}`))
	}))
	defer search.Close()

	tool := NewTool(newTestClient(search))

	t.Run("searches and scrapes", func(t *testing.T) {
		obs, err := tool.Run(context.Background(), map[string]any{"query": "gold prices"})
		require.NoError(t, err)
		assert.Contains(t, obs, `Found 1 results for "gold prices".`)
		assert.Contains(t, obs, "Gold today")
		assert.Contains(t, obs, "Spot gold at $2000 per ounce.")
	})

	t.Run("missing query parameter", func(t *testing.T) {
		_, err := tool.Run(context.Background(), map[string]any{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "query")
	})
}

func TestTool_ExtractionFailureIsNonFatal(t *testing.T) {
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer dead.Close()

	search := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"web":{"results":[
			{"title":"Broken page","url":"` + dead.URL + `","description":"still listed"}
		]}}`))
	}))
	defer search.Close()

	tool := NewTool(newTestClient(search))
	results, err := tool.SearchAndExtract(context.Background(), "q")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Empty(t, results[0].ExtractedContent)
	assert.Equal(t, "still listed", results[0].Summary)
}

func TestFormatResults(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, `No results found for "nothing".`, FormatResults("nothing", nil))
	})

	t.Run("truncates long content", func(t *testing.T) {
		long := make([]byte, maxContentChars+100)
		for i := range long {
			long[i] = 'a'
		}
		out := FormatResults("q", []Result{{Title: "T", ExtractedContent: string(long)}})
		assert.Contains(t, out, "...")
		assert.Less(t, len(out), maxContentChars+200)
	})
}
