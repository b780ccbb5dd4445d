package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// dataStreamWriter emits the Vercel AI SDK data stream protocol: text
// parts as `0:<json string>`, data parts as `2:<json array>`, errors as
// `3:<json string>`, and a closing `d:` finish message.
type dataStreamWriter struct {
	w       gin.ResponseWriter
	flusher http.Flusher
}

func newDataStreamWriter(c *gin.Context) *dataStreamWriter {
	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("x-vercel-ai-data-stream", "v1")
	c.Status(http.StatusOK)

	flusher, _ := c.Writer.(http.Flusher)
	return &dataStreamWriter{w: c.Writer, flusher: flusher}
}

func (d *dataStreamWriter) writePart(prefix string, v any) {
	encoded, err := json.Marshal(v)
	if err != nil {
		return
	}
	fmt.Fprintf(d.w, "%s:%s\n", prefix, encoded)
	if d.flusher != nil {
		d.flusher.Flush()
	}
}

// Text emits a text part.
func (d *dataStreamWriter) Text(content string) {
	d.writePart("0", content)
}

// Data emits a data part carrying one JSON value.
func (d *dataStreamWriter) Data(v any) {
	d.writePart("2", []any{v})
}

// Error emits an error part.
func (d *dataStreamWriter) Error(message string) {
	d.writePart("3", message)
}

// Finish emits the terminating finish message.
func (d *dataStreamWriter) Finish() {
	d.writePart("d", map[string]any{
		"finishReason": "stop",
		"usage": map[string]int{
			"promptTokens":     0,
			"completionTokens": 0,
		},
	})
}
