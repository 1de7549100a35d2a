// Package security guards the files pointview writes.
package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrPathEscapes is returned when a path resolves outside every allowed
// directory.
var ErrPathEscapes = errors.New("path escapes allowed directories")

// ValidatePathWithinDirectory reports whether filePath stays inside dir once
// "..", relative components and symlinks are resolved. filePath need not
// exist yet: its nearest existing ancestor is resolved instead, so a
// symlinked parent cannot smuggle the write elsewhere.
func ValidatePathWithinDirectory(filePath, dir string) error {
	target, err := canonical(filePath)
	if err != nil {
		return err
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve directory: %w", err)
	}
	if root, err = filepath.EvalSymlinks(root); err != nil {
		return fmt.Errorf("failed to resolve directory symlinks: %w", err)
	}

	rel, err := filepath.Rel(root, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return fmt.Errorf("%s: %w (%s)", filePath, ErrPathEscapes, dir)
	}
	return nil
}

// canonical resolves path through its deepest existing ancestor.
func canonical(path string) (string, error) {
	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	for dir := filepath.Dir(abs); ; dir = filepath.Dir(dir) {
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			rest, _ := filepath.Rel(dir, abs)
			return filepath.Join(resolved, rest), nil
		}
		if parent := filepath.Dir(dir); parent == dir {
			return abs, nil
		}
	}
}

// ValidateOutputPath checks that a snapshot or export path lies inside one
// of dirs. With no dirs it allows the working directory and the system
// temp directory.
func ValidateOutputPath(filePath string, dirs ...string) error {
	if len(dirs) == 0 {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
		dirs = []string{cwd, os.TempDir()}
	}
	for _, dir := range dirs {
		if ValidatePathWithinDirectory(filePath, dir) == nil {
			return nil
		}
	}
	return fmt.Errorf("%s: %w %v", filePath, ErrPathEscapes, dirs)
}

// SanitizeFilename turns an arbitrary identifier (a source URI, a session
// id) into a safe file name: runs of characters outside [A-Za-z0-9._-]
// become one underscore, the result is capped at 128 bytes and stripped of
// leading and trailing dots and underscores.
func SanitizeFilename(s string) string {
	const maxLen = 128
	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		if b.Len() >= maxLen {
			break
		}
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		case !lastUnderscore:
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unknown"
	}
	return out
}
