// Package blob stores encrypted document payloads on the local filesystem.
// Payloads arrive already sealed; this adapter never sees keys or plaintext.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FilesystemStore writes each payload under a flat directory. Locations
// returned to callers are file names relative to the root, so the root can
// move between deployments without rewriting document records.
type FilesystemStore struct {
	root string
}

func NewFilesystemStore(root string) (*FilesystemStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("blob root directory is required")
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create blob root: %w", err)
	}
	return &FilesystemStore{root: root}, nil
}

// Store writes atomically: a temp file is renamed into place, so a crash
// mid-write never leaves a half-written payload at the final location.
func (s *FilesystemStore) Store(ctx context.Context, name string, payload []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	location := sanitizeName(name)
	final := filepath.Join(s.root, location)

	tmp, err := os.CreateTemp(s.root, location+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temp blob: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("close blob: %w", err)
	}
	if err := os.Rename(tmpName, final); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("finalize blob: %w", err)
	}
	return location, nil
}

func (s *FilesystemStore) Fetch(ctx context.Context, location string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	payload, err := os.ReadFile(filepath.Join(s.root, sanitizeName(location)))
	if err != nil {
		return nil, fmt.Errorf("read blob %s: %w", location, err)
	}
	return payload, nil
}

func (s *FilesystemStore) Delete(ctx context.Context, location string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(s.root, sanitizeName(location)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete blob %s: %w", location, err)
	}
	return nil
}

// sanitizeName strips path separators so a crafted name cannot escape the
// blob root.
func sanitizeName(name string) string {
	name = filepath.Base(filepath.Clean(name))
	if name == "." || name == string(filepath.Separator) {
		return "blob"
	}
	return name
}
