package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/KaustubhAChavan/watermark-app/internal/shared/config"
)

// Role identifies a logical folder
type Role string

const (
	RoleInputImages  Role = "input_images"
	RoleOutputImages Role = "output_images"
	RoleInputVideos  Role = "input_videos"
	RoleOutputVideos Role = "output_videos"
	RoleInputAudio   Role = "input_audio"
)

// Service resolves folder roles to concrete paths and owns the small amount
// of filesystem bookkeeping the pipeline needs: output path derivation,
// existence checks, listing, and best-effort cleanup.
type Service struct {
	paths map[Role]string
}

// NewService maps the configured folders and creates every referenced
// directory. Processing must never start against a missing directory.
func NewService(folders config.Folders) (*Service, error) {
	paths := map[Role]string{
		RoleInputImages:  folders.InputImages,
		RoleOutputImages: folders.OutputImages,
		RoleInputVideos:  folders.InputVideos,
		RoleOutputVideos: folders.OutputVideos,
	}
	if folders.InputAudio != "" {
		paths[RoleInputAudio] = folders.InputAudio
	}

	for role, path := range paths {
		if err := os.MkdirAll(path, 0755); err != nil {
			return nil, fmt.Errorf("failed to create %s directory %s: %w", role, path, err)
		}
	}
	return &Service{paths: paths}, nil
}

// HasRole reports whether a role is configured.
func (s *Service) HasRole(role Role) bool {
	_, ok := s.paths[role]
	return ok
}

// Path returns the directory for a role. Empty string for unconfigured roles.
func (s *Service) Path(role Role) string {
	return s.paths[role]
}

// OutputPath derives the output location for a source file: the role's
// directory plus the source's base name. No renaming, no content-based naming.
func (s *Service) OutputPath(role Role, sourcePath string) string {
	return filepath.Join(s.paths[role], filepath.Base(sourcePath))
}

// Exists reports whether a path refers to an existing file.
func (s *Service) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// List returns the regular files directly inside a role's directory, sorted
// by name. Subdirectories are not descended into; the watch is not recursive.
func (s *Service) List(role Role) ([]string, error) {
	dir, ok := s.paths[role]
	if !ok {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// RemoveIfExists deletes a path best-effort. Cleanup must never fail the
// caller, so errors are reported back but safe to ignore.
func (s *Service) RemoveIfExists(path string) error {
	err := os.Remove(path)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}
