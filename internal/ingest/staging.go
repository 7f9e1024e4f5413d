// Package ingest moves uploaded documents into the searchable corpus:
// staging directory, object storage upload, chunking, embedding, upsert.
package ingest

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// allowedExtensions lists the document types accepted for upload.
var allowedExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".txt":  true,
	".md":   true,
	".csv":  true,
	".xlsx": true,
	".ppt":  true,
	".pptx": true,
}

// AllowedExtension reports whether the file name has an accepted extension.
func AllowedExtension(filename string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// StagedFile describes one file waiting in the staging directory.
type StagedFile struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// Staging manages the local directory where uploads wait for ingestion.
type Staging struct {
	dir string
}

// NewStaging creates a staging area rooted at dir.
func NewStaging(dir string) *Staging {
	return &Staging{dir: dir}
}

// Save writes an uploaded file into the staging directory. The file name is
// flattened to its base to keep uploads inside the staging root.
func (s *Staging) Save(filename string, r io.Reader) (string, error) {
	name := filepath.Base(filename)
	if name == "." || name == "/" || name == "" {
		return "", fmt.Errorf("invalid file name %q", filename)
	}
	if !AllowedExtension(name) {
		return "", fmt.Errorf("unsupported file type %q", filepath.Ext(name))
	}

	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to create staged file: %w", err)
	}
	defer func() {
		_ = dst.Close()
	}()

	if _, err := io.Copy(dst, r); err != nil {
		return "", fmt.Errorf("failed to write staged file: %w", err)
	}
	return name, nil
}

// List returns the staged files with accepted extensions, sorted by name.
func (s *Staging) List() ([]StagedFile, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read staging directory: %w", err)
	}

	files := make([]StagedFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !AllowedExtension(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, StagedFile{Name: entry.Name(), Size: info.Size()})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// Read returns the contents of a staged file by name.
func (s *Staging) Read(name string) ([]byte, error) {
	base := filepath.Base(name)
	if base != name || name == "" {
		return nil, fmt.Errorf("invalid staged file name %q", name)
	}
	content, err := os.ReadFile(filepath.Join(s.dir, base))
	if err != nil {
		return nil, fmt.Errorf("failed to read staged file: %w", err)
	}
	return content, nil
}

// Remove deletes a staged file after successful ingestion.
func (s *Staging) Remove(name string) error {
	base := filepath.Base(name)
	if base != name || name == "" {
		return fmt.Errorf("invalid staged file name %q", name)
	}
	return os.Remove(filepath.Join(s.dir, base))
}
