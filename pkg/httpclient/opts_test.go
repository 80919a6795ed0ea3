package httpclient

import (
	"testing"
	"time"

	// Packages
	assert "github.com/stretchr/testify/assert"
)

func Test_WithOffsetLimit(t *testing.T) {
	assert := assert.New(t)

	t.Run("ZeroOffsetNoLimit", func(t *testing.T) {
		opt, err := applyOpts(WithOffsetLimit(0, nil))
		assert.NoError(err)
		assert.Empty(opt.Values)
	})

	t.Run("WithOffsetAndLimit", func(t *testing.T) {
		limit := uint64(50)
		opt, err := applyOpts(WithOffsetLimit(100, &limit))
		assert.NoError(err)
		assert.Equal("100", opt.Get("offset"))
		assert.Equal("50", opt.Get("limit"))
	})
}

func Test_WithChannelStatus(t *testing.T) {
	assert := assert.New(t)

	t.Run("Empty", func(t *testing.T) {
		opt, err := applyOpts(WithChannel(""), WithStatus(""))
		assert.NoError(err)
		assert.Empty(opt.Values)
	})

	t.Run("Set", func(t *testing.T) {
		opt, err := applyOpts(WithChannel("hooks"), WithStatus("failed"))
		assert.NoError(err)
		assert.Equal("hooks", opt.Get("channel"))
		assert.Equal("failed", opt.Get("status"))
	})
}

func Test_WithWait(t *testing.T) {
	assert := assert.New(t)

	t.Run("Zero", func(t *testing.T) {
		opt, err := applyOpts(WithWait(0))
		assert.NoError(err)
		assert.Empty(opt.Get("wait"))
	})

	t.Run("Positive", func(t *testing.T) {
		opt, err := applyOpts(WithWait(1500 * time.Millisecond))
		assert.NoError(err)
		assert.Equal("1.5s", opt.Get("wait"))
	})

	t.Run("Negative", func(t *testing.T) {
		_, err := applyOpts(WithWait(-time.Second))
		assert.Error(err)
	})
}
