package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stringBody(s string) *strings.Reader {
	return strings.NewReader(s)
}

func TestDataStreamWriter(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/v2/assistant", nil)

	writer := newDataStreamWriter(c)
	writer.Data(map[string]any{"turn_id": "t1"})
	writer.Text("🤔 **Thinking:**\nlooking things up\n\n")
	writer.Error("upstream failed")
	writer.Finish()

	assert.Equal(t, "v1", rec.Header().Get("x-vercel-ai-data-stream"))

	lines := strings.Split(strings.TrimRight(rec.Body.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, `2:[{"turn_id":"t1"}]`, lines[0])
	assert.Equal(t, `0:"🤔 **Thinking:**\nlooking things up\n\n"`, lines[1])
	assert.Equal(t, `3:"upstream failed"`, lines[2])
	assert.Equal(t, `d:{"finishReason":"stop","usage":{"completionTokens":0,"promptTokens":0}}`, lines[3])
}
