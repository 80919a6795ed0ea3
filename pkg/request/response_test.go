package request_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	// Packages
	request "github.com/mutablelogic/go-requeue/pkg/request"
	assert "github.com/stretchr/testify/assert"
)

func Test_Response_001(t *testing.T) {
	assert := assert.New(t)

	// Result is cached by the recorder, so each read needs a new one
	result := func() *http.Response {
		rec := httptest.NewRecorder()
		rec.Header().Set("X-Test", "1")
		rec.WriteHeader(http.StatusAccepted)
		rec.WriteString("0123456789")
		return rec.Result()
	}

	t.Run("Read", func(t *testing.T) {
		resp, err := request.ReadResponse(result(), 0)
		if !assert.NoError(err) {
			t.FailNow()
		}
		assert.Equal(http.StatusAccepted, resp.Status)
		assert.Equal("1", resp.Header.Get("X-Test"))
		assert.Equal([]byte("0123456789"), resp.Body)
		assert.False(resp.Truncated)
	})

	t.Run("Limit", func(t *testing.T) {
		resp, err := request.ReadResponse(result(), 4)
		if !assert.NoError(err) {
			t.FailNow()
		}
		assert.Equal([]byte("0123"), resp.Body)
		assert.True(resp.Truncated)
	})

	t.Run("LimitExact", func(t *testing.T) {
		resp, err := request.ReadResponse(result(), 10)
		if !assert.NoError(err) {
			t.FailNow()
		}
		assert.Equal([]byte("0123456789"), resp.Body)
		assert.False(resp.Truncated)
	})

	t.Run("HTTP", func(t *testing.T) {
		r := (&request.Response{Status: http.StatusNotFound, Body: []byte("nope")}).HTTP()
		assert.Equal(http.StatusNotFound, r.StatusCode)
		assert.Equal("404 Not Found", r.Status)
		body, err := io.ReadAll(r.Body)
		assert.NoError(err)
		assert.Equal("nope", string(body))
	})
}
