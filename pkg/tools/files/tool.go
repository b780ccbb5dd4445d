package files

import (
	"context"
	"fmt"
	"strings"

	"github.com/brightpath-labs/concierge/pkg/tools"
)

// RegisterTools adds the four file system tools to a registry, all
// backed by the same sandboxed service.
func RegisterTools(r *tools.Registry, svc *Service) error {
	for _, t := range []tools.Tool{
		&listFilesTool{svc: svc},
		&readFileTool{svc: svc},
		&createFileTool{svc: svc},
		&editFileTool{svc: svc},
	} {
		if err := r.Register(t); err != nil {
			return err
		}
	}
	return nil
}

type listFilesTool struct {
	svc *Service
}

func (t *listFilesTool) Name() string { return "list_files" }

func (t *listFilesTool) Description() string {
	return "Lists all files in a specified directory. Use 'knowledge_base' or 'output' as " +
		"directory names, or relative paths within them. " +
		`Input must be a JSON object with a "directory" key.`
}

func (t *listFilesTool) Run(_ context.Context, input map[string]any) (string, error) {
	directory, err := tools.StringParam(input, "directory")
	if err != nil {
		return "", err
	}

	names, err := t.svc.ListFiles(directory)
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return fmt.Sprintf("Directory %q is empty.", directory), nil
	}
	return fmt.Sprintf("Found %d files in %q:\n%s", len(names), directory, strings.Join(names, "\n")), nil
}

type readFileTool struct {
	svc *Service
}

func (t *readFileTool) Name() string { return "read_file" }

func (t *readFileTool) Description() string {
	return "Reads and returns the contents of a text file. Use format like " +
		"'knowledge_base/filename.txt' or 'output/filename.txt'. " +
		`Input must be a JSON object with a "filepath" key.`
}

func (t *readFileTool) Run(_ context.Context, input map[string]any) (string, error) {
	filepath, err := tools.StringParam(input, "filepath")
	if err != nil {
		return "", err
	}

	content, err := t.svc.ReadFile(filepath)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Contents of %q (%d bytes):\n%s", filepath, len(content), content), nil
}

type createFileTool struct {
	svc *Service
}

func (t *createFileTool) Name() string { return "create_file" }

func (t *createFileTool) Description() string {
	return "Creates a new file with specified content in the output directory. Use format " +
		"like 'output/filename.txt'. " +
		`Input must be a JSON object with "filepath" and "content" keys.`
}

func (t *createFileTool) Run(_ context.Context, input map[string]any) (string, error) {
	filepath, err := tools.StringParam(input, "filepath")
	if err != nil {
		return "", err
	}
	content, err := tools.StringParam(input, "content")
	if err != nil {
		return "", err
	}

	if err := t.svc.CreateFile(filepath, content); err != nil {
		return "", err
	}
	return fmt.Sprintf("File %q created successfully (%d bytes).", filepath, len(content)), nil
}

type editFileTool struct {
	svc *Service
}

func (t *editFileTool) Name() string { return "edit_file" }

func (t *editFileTool) Description() string {
	return "Edits an existing file by replacing or appending content. " +
		`Input must be a JSON object with "filepath", "content", and optional "append" keys.`
}

func (t *editFileTool) Run(_ context.Context, input map[string]any) (string, error) {
	filepath, err := tools.StringParam(input, "filepath")
	if err != nil {
		return "", err
	}
	content, err := tools.StringParam(input, "content")
	if err != nil {
		return "", err
	}
	appendMode, err := tools.BoolParam(input, "append", false)
	if err != nil {
		return "", err
	}

	if err := t.svc.EditFile(filepath, content, appendMode); err != nil {
		return "", err
	}

	mode := "replace"
	if appendMode {
		mode = "append"
	}
	return fmt.Sprintf("File %q edited successfully (%s).", filepath, mode), nil
}
