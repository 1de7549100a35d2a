package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	v, sha, built := Version, GitSHA, BuildTime
	t.Cleanup(func() { Version, GitSHA, BuildTime = v, sha, built })

	Version, GitSHA, BuildTime = "1.2.3", "abc123", "2026-01-01T00:00:00Z"
	assert.Equal(t, "pointview 1.2.3 (commit abc123, built 2026-01-01T00:00:00Z)", String())
}
