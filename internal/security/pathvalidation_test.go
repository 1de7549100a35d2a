package security

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePathWithinDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "out"), 0755))

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"existing subdir file", filepath.Join(dir, "out", "view.png"), false},
		{"new nested dirs", filepath.Join(dir, "a", "b", "c.png"), false},
		{"dir itself", dir, false},
		{"dotdot escape", filepath.Join(dir, "..", "view.png"), true},
		{"dotdot inside", filepath.Join(dir, "out", "..", "view.png"), false},
		{"absolute elsewhere", "/etc/passwd", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePathWithinDirectory(tt.path, dir)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrPathEscapes)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePathWithinDirectory_Symlink(t *testing.T) {
	dir := t.TempDir()
	outside := t.TempDir()
	link := filepath.Join(dir, "evil")
	if err := os.Symlink(outside, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	err := ValidatePathWithinDirectory(filepath.Join(link, "new", "view.png"), dir)
	assert.ErrorIs(t, err, ErrPathEscapes)
}

func TestValidatePathWithinDirectory_MissingDir(t *testing.T) {
	err := ValidatePathWithinDirectory("x.png", filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestValidateOutputPath(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()

	assert.NoError(t, ValidateOutputPath(filepath.Join(b, "snap.png"), a, b))
	assert.ErrorIs(t, ValidateOutputPath("/etc/snap.png", a, b), ErrPathEscapes)

	// defaults: working directory and temp dir
	assert.NoError(t, ValidateOutputPath("snapshot.png"))
	assert.NoError(t, ValidateOutputPath(filepath.Join(os.TempDir(), "snapshot.png")))
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"output.csv":                       "output.csv",
		"http://example.com/data/pts.csv":  "http_example.com_data_pts.csv",
		"../../etc/passwd":                 "etc_passwd",
		"":                                 "unknown",
		"___":                              "unknown",
		"café latte":                       "caf_latte",
		"a  b":                             "a_b",
	}
	for in, want := range tests {
		assert.Equal(t, want, SanitizeFilename(in), in)
	}
}
