package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTool struct {
	name string
	desc string
}

func (f *fakeTool) Name() string        { return f.name }
func (f *fakeTool) Description() string { return f.desc }
func (f *fakeTool) Run(_ context.Context, _ map[string]any) (string, error) {
	return "ok", nil
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&fakeTool{name: "web_search", desc: "searches the web"}))

	tool, ok := r.Get("web_search")
	require.True(t, ok)
	assert.Equal(t, "web_search", tool.Name())

	_, ok = r.Get("unknown")
	assert.False(t, ok)
}

func TestRegistry_DuplicateRegistration(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&fakeTool{name: "read_file"}))

	err := r.Register(&fakeTool{name: "read_file"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestRegistry_NamesSorted(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&fakeTool{name: "web_search"}))
	require.NoError(t, r.Register(&fakeTool{name: "create_file"}))
	require.NoError(t, r.Register(&fakeTool{name: "list_files"}))

	assert.Equal(t, []string{"create_file", "list_files", "web_search"}, r.Names())
}

func TestRegistry_Describe(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&fakeTool{name: "web_search", desc: "Performs a web search."}))
	require.NoError(t, r.Register(&fakeTool{name: "read_file", desc: "Reads a file."}))

	catalog := r.Describe()
	assert.Contains(t, catalog, "- read_file: Reads a file.\n")
	assert.Contains(t, catalog, "- web_search: Performs a web search.\n")
}

func TestRegistry_Filter(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&fakeTool{name: "web_search"}))
	require.NoError(t, r.Register(&fakeTool{name: "read_file"}))
	require.NoError(t, r.Register(&fakeTool{name: "create_file"}))

	filtered := r.Filter([]string{"web_search", "read_file", "retired_tool"})
	assert.Equal(t, 2, filtered.Len())
	assert.Equal(t, []string{"read_file", "web_search"}, filtered.Names())

	_, ok := filtered.Get("create_file")
	assert.False(t, ok)

	// The source registry is untouched.
	assert.Equal(t, 3, r.Len())

	empty := r.Filter(nil)
	assert.Equal(t, 0, empty.Len())
}

func TestStringParam(t *testing.T) {
	input := map[string]any{"query": "gold prices", "count": 3}

	v, err := StringParam(input, "query")
	require.NoError(t, err)
	assert.Equal(t, "gold prices", v)

	_, err = StringParam(input, "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required parameter")

	_, err = StringParam(input, "count")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be a string")

	_, err = StringParam(map[string]any{"query": ""}, "query")
	require.Error(t, err)
}

func TestBoolParam(t *testing.T) {
	input := map[string]any{"append": true, "query": "x"}

	v, err := BoolParam(input, "append", false)
	require.NoError(t, err)
	assert.True(t, v)

	v, err = BoolParam(input, "absent", true)
	require.NoError(t, err)
	assert.True(t, v)

	_, err = BoolParam(input, "query", false)
	require.Error(t, err)
}
