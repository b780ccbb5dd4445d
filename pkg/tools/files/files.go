// Package files provides sandboxed file system tools. Operations are
// confined to two configured roots: a read-mostly knowledge base and
// an output directory where the agent may create files.
package files

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Names of the two sandbox roots as tools address them.
const (
	KnowledgeBaseDir = "knowledge_base"
	OutputDir        = "output"
)

// Service resolves tool paths against the sandbox roots and performs
// the actual file operations.
type Service struct {
	kbRoot  string
	outRoot string
	logger  *slog.Logger
}

// NewService creates a file service over the given roots and creates
// them if missing.
func NewService(knowledgeBasePath, outputPath string) (*Service, error) {
	s := &Service{
		kbRoot:  knowledgeBasePath,
		outRoot: outputPath,
		logger:  slog.Default(),
	}
	for _, root := range []string{knowledgeBasePath, outputPath} {
		if err := os.MkdirAll(root, 0o755); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", root, err)
		}
	}
	return s, nil
}

// validateToolPath rejects traversal attempts before any resolution.
func validateToolPath(p string) error {
	if strings.Contains(p, "..") {
		return fmt.Errorf("path %q must not contain '..'", p)
	}
	if filepath.IsAbs(p) {
		return fmt.Errorf("path %q must be relative", p)
	}
	return nil
}

// resolve maps a tool path like "knowledge_base/notes.txt" or
// "output" to an absolute path under the matching root. Bare relative
// paths are tried against the knowledge base first, then output.
func (s *Service) resolve(toolPath string) (string, error) {
	if err := validateToolPath(toolPath); err != nil {
		return "", err
	}

	switch {
	case toolPath == KnowledgeBaseDir:
		return filepath.Abs(s.kbRoot)
	case toolPath == OutputDir:
		return filepath.Abs(s.outRoot)
	case strings.HasPrefix(toolPath, KnowledgeBaseDir+"/"):
		return filepath.Abs(filepath.Join(s.kbRoot, strings.TrimPrefix(toolPath, KnowledgeBaseDir+"/")))
	case strings.HasPrefix(toolPath, OutputDir+"/"):
		return filepath.Abs(filepath.Join(s.outRoot, strings.TrimPrefix(toolPath, OutputDir+"/")))
	}

	// Bare path: knowledge base wins if the file exists there.
	kbPath, err := filepath.Abs(filepath.Join(s.kbRoot, toolPath))
	if err != nil {
		return "", err
	}
	if _, statErr := os.Stat(kbPath); statErr == nil {
		return kbPath, nil
	}
	return filepath.Abs(filepath.Join(s.outRoot, toolPath))
}

// ListFiles returns the sorted names of regular files in a sandbox
// directory.
func (s *Service) ListFiles(directory string) ([]string, error) {
	resolved, err := s.resolve(directory)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(resolved)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("directory not found: %q", directory)
		}
		return nil, fmt.Errorf("list %q: %w", directory, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	s.logger.Info("Listed files", "directory", directory, "count", len(names))
	return names, nil
}

// ReadFile returns the content of a sandbox file.
func (s *Service) ReadFile(toolPath string) (string, error) {
	resolved, err := s.resolve(toolPath)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("file not found: %q", toolPath)
		}
		return "", fmt.Errorf("read %q: %w", toolPath, err)
	}

	s.logger.Info("Read file", "path", toolPath, "bytes", len(data))
	return string(data), nil
}

// CreateFile writes a new file. Creation is only allowed under the
// output root, and never over an existing file.
func (s *Service) CreateFile(toolPath, content string) error {
	if err := validateToolPath(toolPath); err != nil {
		return err
	}
	if !strings.HasPrefix(toolPath, OutputDir+"/") {
		return fmt.Errorf("new files can only be created in the %q directory", OutputDir)
	}

	resolved, err := s.resolve(toolPath)
	if err != nil {
		return err
	}
	if _, err := os.Stat(resolved); err == nil {
		return fmt.Errorf("file already exists: %q, use edit_file to modify it", toolPath)
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create parent directory: %w", err)
	}
	if err := os.WriteFile(resolved, []byte(content), 0o644); err != nil {
		return fmt.Errorf("create %q: %w", toolPath, err)
	}

	s.logger.Info("Created file", "path", toolPath, "bytes", len(content))
	return nil
}

// EditFile replaces a sandbox file's content, or appends when append
// is set. The file is created if it does not exist.
func (s *Service) EditFile(toolPath, content string, append bool) error {
	resolved, err := s.resolve(toolPath)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create parent directory: %w", err)
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if append {
		flags = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	}
	f, err := os.OpenFile(resolved, flags, 0o644)
	if err != nil {
		return fmt.Errorf("edit %q: %w", toolPath, err)
	}
	defer f.Close()

	if _, err := f.WriteString(content); err != nil {
		return fmt.Errorf("write %q: %w", toolPath, err)
	}

	mode := "replace"
	if append {
		mode = "append"
	}
	s.logger.Info("Edited file", "path", toolPath, "mode", mode, "bytes", len(content))
	return nil
}
