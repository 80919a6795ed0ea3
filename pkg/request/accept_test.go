package request_test

import (
	"testing"

	// Packages
	json "github.com/goccy/go-json"
	request "github.com/mutablelogic/go-requeue/pkg/request"
	assert "github.com/stretchr/testify/assert"
)

func Test_Accept_001(t *testing.T) {
	assert := assert.New(t)

	categories := []struct {
		Policy request.AcceptedResponse
		Min    int
	}{
		{request.Informational, 100},
		{request.Success, 200},
		{request.Redirection, 300},
		{request.ClientError, 400},
		{request.ServerError, 500},
	}
	for _, test := range categories {
		t.Run(test.Policy.String(), func(t *testing.T) {
			for status := 100; status <= 599; status++ {
				expect := status >= test.Min && status <= test.Min+99
				assert.Equal(expect, test.Policy.Accepts(status), "status %d", status)
			}
		})
	}
}

func Test_Accept_002(t *testing.T) {
	assert := assert.New(t)

	t.Run("Single", func(t *testing.T) {
		for _, n := range []int{100, 204, 404, 599} {
			policy := request.Single(n)
			assert.NoError(policy.Validate())
			for status := 100; status <= 599; status++ {
				assert.Equal(status == n, policy.Accepts(status))
			}
		}
	})

	t.Run("Range", func(t *testing.T) {
		for _, r := range [][2]int{{100, 100}, {200, 204}, {400, 599}, {150, 450}} {
			policy := request.Range(r[0], r[1])
			assert.NoError(policy.Validate())
			for status := 100; status <= 599; status++ {
				assert.Equal(r[0] <= status && status <= r[1], policy.Accepts(status))
			}
		}
	})

	t.Run("InvalidRange", func(t *testing.T) {
		assert.ErrorIs(request.Range(500, 400).Validate(), request.ErrBadParameter)
	})

	t.Run("InvalidSingle", func(t *testing.T) {
		assert.ErrorIs(request.Single(42).Validate(), request.ErrBadParameter)
	})
}

func Test_Accept_003(t *testing.T) {
	assert := assert.New(t)

	t.Run("EmptyIsDefault", func(t *testing.T) {
		accept := request.NewAccept()
		assert.Equal(request.DefaultAccept, accept)
		assert.True(accept.Accepts(200))
		assert.False(accept.Accepts(302))
		assert.False(accept.Accepts(500))
	})

	t.Run("SortedAndUnique", func(t *testing.T) {
		accept := request.NewAccept(request.Single(404), request.Success, request.Single(404), request.Success)
		assert.Equal(request.Accept{request.Success, request.Single(404)}, accept)
		assert.Equal("success,404", accept.String())
	})

	t.Run("Any", func(t *testing.T) {
		accept := request.NewAccept(request.Success, request.Range(400, 404))
		assert.True(accept.Accepts(201))
		assert.True(accept.Accepts(403))
		assert.False(accept.Accepts(405))
	})
}

func Test_Accept_004(t *testing.T) {
	assert := assert.New(t)

	t.Run("Marshal", func(t *testing.T) {
		data, err := json.Marshal(request.Accept{request.Success, request.Single(409), request.Range(400, 404)})
		assert.NoError(err)
		assert.JSONEq(`[{"kind":"success"},{"kind":"single","code":409},{"kind":"range","min":400,"max":404}]`, string(data))
	})

	t.Run("Unmarshal", func(t *testing.T) {
		var accept request.Accept
		assert.NoError(json.Unmarshal([]byte(`[{"kind":"client_error"},{"kind":"range","min":500,"max":503}]`), &accept))
		assert.Equal(request.Accept{request.ClientError, request.Range(500, 503)}, accept)
	})

	t.Run("UnknownKind", func(t *testing.T) {
		var policy request.AcceptedResponse
		assert.Error(json.Unmarshal([]byte(`{"kind":"teapot"}`), &policy))
	})

	t.Run("MissingCode", func(t *testing.T) {
		var policy request.AcceptedResponse
		assert.Error(json.Unmarshal([]byte(`{"kind":"single"}`), &policy))
	})
}
