package version_test

import (
	"runtime"
	"testing"

	// Packages
	version "github.com/mutablelogic/go-requeue/pkg/version"
	assert "github.com/stretchr/testify/assert"
)

func Test_Version_001(t *testing.T) {
	assert := assert.New(t)
	assert.NotEmpty(version.ExecName())
	assert.NotEmpty(version.Version())
	assert.Contains(version.Compiler(), runtime.GOOS)
}

func Test_Version_002(t *testing.T) {
	assert := assert.New(t)
	version.GitHash = "abc123"
	assert.Equal("abc123", version.Version())
	version.GitTag = "v1.0.0"
	assert.Equal("v1.0.0", version.Version())
}
