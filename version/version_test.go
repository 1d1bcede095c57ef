package version

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionDefaultsToDev(t *testing.T) {
	// Without ldflags or a module version, the fallback is "dev".
	v := Version()
	assert.NotEmpty(t, v)
}

func TestVersionOverride(t *testing.T) {
	orig := version
	defer func() { version = orig }()

	version = "1.2.3"
	assert.Equal(t, "1.2.3", Version())
	assert.True(t, strings.HasPrefix(String(), "simengine version 1.2.3"))
}

func TestCommitOverride(t *testing.T) {
	orig := gitCommit
	defer func() { gitCommit = orig }()

	gitCommit = "abc1234"
	assert.Equal(t, "abc1234", Commit())
	assert.Contains(t, String(), "commit: abc1234")
}

func TestBuildInfoAttrs(t *testing.T) {
	attrs := BuildInfo()
	assert.GreaterOrEqual(t, len(attrs), 2)
	assert.Equal(t, "version", attrs[0])
}

func TestBuildDateInString(t *testing.T) {
	orig := buildDate
	defer func() { buildDate = orig }()

	buildDate = "2026-08-27"
	assert.Contains(t, String(), "built: 2026-08-27")
}
