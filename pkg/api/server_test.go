package api

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpath-labs/concierge/pkg/config"
	"github.com/brightpath-labs/concierge/pkg/llm"
	"github.com/brightpath-labs/concierge/pkg/tools"
	"github.com/brightpath-labs/concierge/pkg/tools/files"
)

func testServer(t *testing.T, mutate func(*Deps)) *Server {
	t.Helper()

	fileSvc, err := files.NewService(t.TempDir(), t.TempDir())
	require.NoError(t, err)

	cfg := config.Default()
	deps := Deps{
		Config:   cfg,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Registry: tools.NewRegistry(),
		FileSvc:  fileSvc,
	}
	if mutate != nil {
		mutate(&deps)
	}
	return NewServer(deps)
}

func TestCORSMiddleware(t *testing.T) {
	server := testServer(t, nil)
	router := server.Handler()

	t.Run("wildcard reflects origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/files", nil)
		req.Header.Set("Origin", "https://app.example.com")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("restricted origin list", func(t *testing.T) {
		server := testServer(t, func(d *Deps) {
			d.Config.Server.AllowedOrigins = []string{"https://allowed.example.com"}
		})
		router := server.Handler()

		req := httptest.NewRequest(http.MethodGet, "/files", nil)
		req.Header.Set("Origin", "https://other.example.com")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestFileEndpoints(t *testing.T) {
	server := testServer(t, nil)
	router := server.Handler()

	t.Run("create then read", func(t *testing.T) {
		body := `{"path": "output/report.md", "content": "# Findings"}`
		req := httptest.NewRequest(http.MethodPost, "/files", stringBody(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code)

		req = httptest.NewRequest(http.MethodGet, "/files/content?path=output/report.md", nil)
		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "# Findings")
	})

	t.Run("traversal rejected", func(t *testing.T) {
		body := `{"path": "output/../../etc/passwd", "content": "x"}`
		req := httptest.NewRequest(http.MethodPost, "/files", stringBody(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing path", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/files/content", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("append via put", func(t *testing.T) {
		create := `{"path": "output/log.txt", "content": "first\n"}`
		req := httptest.NewRequest(http.MethodPost, "/files", stringBody(create))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code)

		edit := `{"path": "output/log.txt", "content": "second\n", "append": true}`
		req = httptest.NewRequest(http.MethodPut, "/files", stringBody(edit))
		req.Header.Set("Content-Type", "application/json")
		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		req = httptest.NewRequest(http.MethodGet, "/files/content?path=output/log.txt", nil)
		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Contains(t, rec.Body.String(), "first\\nsecond\\n")
	})
}

func TestChatStreaming(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Hello\"}}]}\n\n")
		io.WriteString(w, "data: {\"choices\":[{\"delta\":{\"content\":\" there\"}}]}\n\n")
		io.WriteString(w, "data: [DONE]\n\n")
	}))
	defer upstream.Close()

	server := testServer(t, func(d *Deps) {
		d.LLMClient = llm.NewClient(llm.Config{
			BaseURL: upstream.URL,
			APIKey:  "test-key",
			Model:   "gpt-4o",
		})
	})
	router := server.Handler()

	body := `{"messages": [{"role": "user", "content": "hi"}]}`
	req := httptest.NewRequest(http.MethodPost, "/chat", stringBody(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "data: Hello")
	assert.Contains(t, rec.Body.String(), "data:  there")
}

func TestChatBadRequest(t *testing.T) {
	server := testServer(t, nil)
	router := server.Handler()

	req := httptest.NewRequest(http.MethodPost, "/chat", stringBody(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
