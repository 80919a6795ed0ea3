package httphandler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	// Packages
	requeue "github.com/mutablelogic/go-requeue"
	httphandler "github.com/mutablelogic/go-requeue/pkg/httphandler"
	schema "github.com/mutablelogic/go-requeue/pkg/queue/schema"
	request "github.com/mutablelogic/go-requeue/pkg/request"
	test "github.com/mutablelogic/go-requeue/pkg/test"
	assert "github.com/stretchr/testify/assert"
)

// Global connection variable
var conn test.Conn

// Start up a container and test the pool
func TestMain(m *testing.M) {
	test.Main(m, &conn)
}

// newRouter returns a router and a client in the namespace. When run is
// true the client sends requests until the test ends.
func newRouter(t *testing.T, ns string, run bool) (*http.ServeMux, *requeue.Client) {
	t.Helper()
	conn := conn.Begin(t)
	client, err := requeue.New(context.Background(), conn, requeue.WithNamespace(ns), requeue.WithPeriod(10*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	if run {
		ctx, cancel := context.WithCancel(context.Background())
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			client.Run(ctx)
		}()
		t.Cleanup(func() {
			cancel()
			wg.Wait()
		})
	}

	router := http.NewServeMux()
	httphandler.RegisterHandlers(router, "/api", client, nil)
	return router, client
}

func spawnBody(t *testing.T, channel string, req *request.Request, config *requeue.JobConfig) *bytes.Buffer {
	t.Helper()
	data, err := json.Marshal(requeue.SpawnRequest{Channel: channel, Request: req, Config: config})
	if err != nil {
		t.Fatal(err)
	}
	return bytes.NewBuffer(data)
}

////////////////////////////////////////////////////////////////////////////////
// TESTS

func Test_Request_Spawn(t *testing.T) {
	assert := assert.New(t)
	router, client := newRouter(t, "test_request_spawn", false)

	req, err := request.Post("http://localhost/", []byte("hello"))
	assert.NoError(err)

	t.Run("Created", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/api/request", spawnBody(t, "spawn", req, nil))
		r.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)

		if !assert.Equal(http.StatusCreated, w.Code) {
			t.Logf("Response: %s", w.Body.String())
		}
		var response requeue.SpawnResponse
		assert.NoError(json.Unmarshal(w.Body.Bytes(), &response))

		job, err := client.Job(context.TODO(), response.Id)
		assert.NoError(err)
		assert.Equal("spawn", job.Queue)
		assert.True(job.Ordered)
	})

	t.Run("Config", func(t *testing.T) {
		config := &requeue.JobConfig{Retries: 5, Backoff: time.Second}
		r := httptest.NewRequest(http.MethodPost, "/api/request", spawnBody(t, "spawn", req, config))
		r.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)

		if !assert.Equal(http.StatusCreated, w.Code) {
			t.Logf("Response: %s", w.Body.String())
		}
		var response requeue.SpawnResponse
		assert.NoError(json.Unmarshal(w.Body.Bytes(), &response))

		job, err := client.Job(context.TODO(), response.Id)
		assert.NoError(err)
		assert.Equal(uint64(5), job.Retries)
		assert.False(job.Ordered)
	})

	t.Run("MissingRequest", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/api/request", bytes.NewBufferString(`{"channel":"spawn"}`))
		r.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)
		assert.Equal(http.StatusBadRequest, w.Code)
	})

	t.Run("InvalidChannel", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/api/request", spawnBody(t, "", req, nil))
		r.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)
		assert.Equal(http.StatusBadRequest, w.Code)
	})

	t.Run("InvalidWait", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/api/request?wait=forever", spawnBody(t, "spawn", req, nil))
		r.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)
		assert.Equal(http.StatusBadRequest, w.Code)
	})

	t.Run("MethodNotAllowed", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/request", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)
		assert.Equal(http.StatusMethodNotAllowed, w.Code)
	})
}

func Test_Request_Wait(t *testing.T) {
	assert := assert.New(t)
	router, _ := newRouter(t, "test_request_wait", true)

	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			body, _ := io.ReadAll(r.Body)
			w.Write(body)
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer target.Close()

	t.Run("Accepted", func(t *testing.T) {
		req, err := request.Post(target.URL+"/ok", []byte("echo"))
		assert.NoError(err)

		r := httptest.NewRequest(http.MethodPost, "/api/request?wait=5s", spawnBody(t, "wait", req, nil))
		r.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)

		if !assert.Equal(http.StatusOK, w.Code) {
			t.Logf("Response: %s", w.Body.String())
		}
		var response request.Response
		assert.NoError(json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(http.StatusOK, response.Status)
		assert.Equal("echo", string(response.Body))
	})

	t.Run("Timeout", func(t *testing.T) {
		req, err := request.Get(target.URL + "/unavailable")
		assert.NoError(err)

		r := httptest.NewRequest(http.MethodPost, "/api/request?wait=200ms", spawnBody(t, "wait_timeout", req, &requeue.JobConfig{Retries: 100, Backoff: time.Second}))
		r.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)
		assert.Equal(http.StatusGatewayTimeout, w.Code)
	})

	t.Run("NotAccepted", func(t *testing.T) {
		req, err := request.Get(target.URL + "/unavailable")
		assert.NoError(err)

		r := httptest.NewRequest(http.MethodPost, "/api/request?wait=5s", spawnBody(t, "wait_fail", req, &requeue.JobConfig{Retries: 1}))
		r.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)
		assert.Equal(http.StatusBadGateway, w.Code)
	})
}

func Test_Job(t *testing.T) {
	assert := assert.New(t)
	router, client := newRouter(t, "test_job", false)
	ctx := context.TODO()

	req, err := request.Get("http://localhost/")
	assert.NoError(err)
	id, err := client.Spawn(ctx, "jobs", req)
	assert.NoError(err)
	_, err = client.Spawn(ctx, "other", req)
	assert.NoError(err)

	t.Run("List", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/job", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)

		assert.Equal(http.StatusOK, w.Code)
		var list schema.TaskList
		assert.NoError(json.Unmarshal(w.Body.Bytes(), &list))
		assert.Equal(uint64(2), list.Count)
	})

	t.Run("ListByChannel", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/job?channel=jobs", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)

		assert.Equal(http.StatusOK, w.Code)
		var list schema.TaskList
		assert.NoError(json.Unmarshal(w.Body.Bytes(), &list))
		assert.Equal(uint64(1), list.Count)
		if assert.Len(list.Body, 1) {
			assert.Equal(id, list.Body[0].Id)
		}
	})

	t.Run("Get", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/job/"+id.String(), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)

		assert.Equal(http.StatusOK, w.Code)
		var job schema.TaskWithStatus
		assert.NoError(json.Unmarshal(w.Body.Bytes(), &job))
		assert.Equal(id, job.Id)
		assert.Equal(schema.StatusNew, job.Status)
	})

	t.Run("GetInvalid", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/job/123", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)
		assert.Equal(http.StatusBadRequest, w.Code)
	})

	t.Run("GetNotFound", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/job/00000000-0000-0000-0000-000000000001", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)
		assert.Equal(http.StatusNotFound, w.Code)
	})

	t.Run("ResponsePending", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/job/"+id.String()+"/response", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)
		assert.Equal(http.StatusNotFound, w.Code)
	})
}

func Test_Channel(t *testing.T) {
	assert := assert.New(t)
	router, client := newRouter(t, "test_channel", false)
	ctx := context.TODO()

	req, err := request.Get("http://localhost/")
	assert.NoError(err)
	for i := 0; i < 3; i++ {
		_, err := client.Spawn(ctx, "channel", req)
		assert.NoError(err)
	}

	t.Run("List", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/channel", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)

		assert.Equal(http.StatusOK, w.Code)
		var list schema.QueueList
		assert.NoError(json.Unmarshal(w.Body.Bytes(), &list))
		assert.Equal(uint64(1), list.Count)
	})

	t.Run("Status", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/channel/channel", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)

		assert.Equal(http.StatusOK, w.Code)
		var statuses []schema.QueueStatus
		assert.NoError(json.Unmarshal(w.Body.Bytes(), &statuses))
		assert.Contains(statuses, schema.QueueStatus{Queue: "channel", Status: schema.StatusNew, Count: 3})
	})

	t.Run("StatusNotFound", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/channel/missing", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)
		assert.Equal(http.StatusNotFound, w.Code)
	})

	t.Run("Clear", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodDelete, "/api/channel/channel", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)

		assert.Equal(http.StatusOK, w.Code)
		var tasks []schema.Task
		assert.NoError(json.Unmarshal(w.Body.Bytes(), &tasks))
		assert.Len(tasks, 3)
	})
}

func Test_Metrics(t *testing.T) {
	assert := assert.New(t)
	router, client := newRouter(t, "test_metrics", false)

	req, err := request.Get("http://localhost/")
	assert.NoError(err)
	_, err = client.Spawn(context.TODO(), "metrics", req)
	assert.NoError(err)

	server := httptest.NewServer(router)
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/metrics")
	if !assert.NoError(err) {
		return
	}
	defer resp.Body.Close()
	assert.Equal(http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	assert.NoError(err)
	assert.Contains(string(body), "requeue_jobs")
	assert.Contains(string(body), `namespace="test_metrics"`)
	assert.Contains(string(body), `channel="metrics"`)
	assert.Contains(string(body), `status="new"`)
	assert.Contains(string(body), "requeue_waiters")
}
