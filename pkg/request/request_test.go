package request_test

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	// Packages
	request "github.com/mutablelogic/go-requeue/pkg/request"
	assert "github.com/stretchr/testify/assert"
)

func Test_Request_001(t *testing.T) {
	assert := assert.New(t)

	t.Run("Get", func(t *testing.T) {
		req, err := request.Get("https://example.com/a?b=1")
		if !assert.NoError(err) {
			t.FailNow()
		}
		assert.Equal(http.MethodGet, req.Method())
		assert.Equal("https://example.com/a?b=1", req.URL().String())
		assert.Nil(req.Body())
		assert.Equal(request.DefaultAccept, req.Accept())
	})

	t.Run("Post", func(t *testing.T) {
		req, err := request.Post("http://localhost:8080/", []byte("data"))
		if !assert.NoError(err) {
			t.FailNow()
		}
		assert.Equal(http.MethodPost, req.Method())
		assert.Equal([]byte("data"), req.Body())
	})

	t.Run("DeleteWithBody", func(t *testing.T) {
		req, err := request.Delete("http://localhost/", request.WithBody([]byte("x")))
		assert.NoError(err)
		assert.Equal([]byte("x"), req.Body())
	})

	t.Run("LowercaseMethod", func(t *testing.T) {
		req, err := request.New("patch", "http://localhost/")
		assert.NoError(err)
		assert.Equal(http.MethodPatch, req.Method())
	})

	t.Run("UnknownMethod", func(t *testing.T) {
		_, err := request.New("BREW", "http://localhost/")
		assert.ErrorIs(err, request.ErrBadParameter)
	})

	t.Run("RelativeURL", func(t *testing.T) {
		_, err := request.Get("/relative")
		assert.ErrorIs(err, request.ErrBadParameter)
	})

	t.Run("InvalidPolicy", func(t *testing.T) {
		_, err := request.Get("http://localhost/", request.WithAccept(request.Range(300, 200)))
		assert.ErrorIs(err, request.ErrBadParameter)
	})

	t.Run("InvalidHeader", func(t *testing.T) {
		_, err := request.Get("http://localhost/", request.WithHeader("X-Bad", "a\r\nb"))
		assert.ErrorIs(err, request.ErrBadParameter)
	})

	t.Run("InvalidHeaderName", func(t *testing.T) {
		for _, name := range []string{"", "X(Bad)", "X Bad", "X:Bad", "X\"Bad", "Ünicode"} {
			_, err := request.Get("http://localhost/", request.WithHeader(name, "1"))
			assert.ErrorIs(err, request.ErrBadParameter, name)
		}
	})

	t.Run("InvalidHeaderValue", func(t *testing.T) {
		for _, value := range []string{"caf\xe9", "a\x00b", "a\x7fb"} {
			_, err := request.Get("http://localhost/", request.WithHeader("X-Value", value))
			assert.ErrorIs(err, request.ErrBadParameter, value)
		}
	})

	t.Run("ValidHeaderValue", func(t *testing.T) {
		req, err := request.Get("http://localhost/", request.WithHeader("X-Value", "café\tau lait"))
		if assert.NoError(err) {
			assert.Equal("café\tau lait", req.Header().Get("X-Value"))
		}
	})

	t.Run("Immutable", func(t *testing.T) {
		req, err := request.Post("http://localhost/", []byte("abc"), request.WithHeader("A", "1"))
		if !assert.NoError(err) {
			t.FailNow()
		}
		req.URL().Path = "/changed"
		req.Body()[0] = 'X'
		req.Headers()[0].Value = "2"
		assert.Equal("/", req.URL().Path)
		assert.Equal([]byte("abc"), req.Body())
		assert.Equal("1", req.Headers()[0].Value)
	})
}

func Test_Request_002(t *testing.T) {
	assert := assert.New(t)

	req, err := request.Put("http://localhost/x", []byte("body"),
		request.WithHeader("X-Multi", "a"),
		request.WithHeader("Authorization", "Bearer t"),
		request.WithHeader("X-Multi", "b"),
		request.WithHeader("Host", "example.org"),
	)
	if !assert.NoError(err) {
		t.FailNow()
	}

	t.Run("HeadersOrdered", func(t *testing.T) {
		assert.Equal([]request.Header{
			{Name: "X-Multi", Value: "a"},
			{Name: "Authorization", Value: "Bearer t"},
			{Name: "X-Multi", Value: "b"},
			{Name: "Host", Value: "example.org"},
		}, req.Headers())
		assert.Equal([]string{"a", "b"}, req.Header().Values("X-Multi"))
	})

	t.Run("HTTPRequest", func(t *testing.T) {
		r, err := req.HTTPRequest(context.Background())
		if !assert.NoError(err) {
			t.FailNow()
		}
		assert.Equal(http.MethodPut, r.Method)
		assert.Equal("example.org", r.Host)
		assert.Equal([]string{"a", "b"}, r.Header.Values("X-Multi"))
		body, err := io.ReadAll(r.Body)
		assert.NoError(err)
		assert.Equal("body", string(body))
	})
}

func Test_Request_003(t *testing.T) {
	assert := assert.New(t)

	r, err := http.NewRequest(http.MethodPost, "https://example.com/hook", strings.NewReader("payload"))
	if !assert.NoError(err) {
		t.FailNow()
	}
	r.Header.Set("Content-Type", "text/plain")
	r.Header.Add("Accept", "a")
	r.Header.Add("Accept", "b")

	req, err := request.FromHTTP(r)
	if !assert.NoError(err) {
		t.FailNow()
	}
	assert.Equal(http.MethodPost, req.Method())
	assert.Equal("https://example.com/hook", req.URL().String())
	assert.Equal([]byte("payload"), req.Body())
	assert.Equal([]request.Header{
		{Name: "Accept", Value: "a"},
		{Name: "Accept", Value: "b"},
		{Name: "Content-Type", Value: "text/plain"},
	}, req.Headers())
	assert.Equal(request.DefaultAccept, req.Accept())

	_, err = request.FromHTTP(nil)
	assert.ErrorIs(err, request.ErrBadParameter)
}
