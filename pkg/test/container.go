package test

import (
	"context"
	"fmt"
	"time"

	// Packages
	nat "github.com/docker/go-connections/nat"
	testcontainers "github.com/testcontainers/testcontainers-go"
	wait "github.com/testcontainers/testcontainers-go/wait"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Container is a running docker container
type Container struct {
	testcontainers.Container
	Env map[string]string
}

// Opt sets a value on the container request
type Opt func(*testcontainers.ContainerRequest) error

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	startupTimeout = 2 * time.Minute
)

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewContainer starts a container from an image, and waits until the
// wait strategy set by the options succeeds
func NewContainer(ctx context.Context, name, image string, opts ...Opt) (*Container, error) {
	req := testcontainers.ContainerRequest{
		Name:  name,
		Image: image,
		Env:   make(map[string]string),
	}
	for _, opt := range opts {
		if err := opt(&req); err != nil {
			return nil, err
		}
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
		Reuse:            false,
	})
	if err != nil {
		return nil, err
	}

	// Return success
	return &Container{Container: container, Env: req.Env}, nil
}

// Close terminates the container
func (c *Container) Close(ctx context.Context) error {
	return c.Terminate(ctx)
}

////////////////////////////////////////////////////////////////////////////////
// OPTIONS

// OptEnv sets an environment variable
func OptEnv(key, value string) Opt {
	return func(req *testcontainers.ContainerRequest) error {
		req.Env[key] = value
		return nil
	}
}

// OptPostgres sets the credentials and database for a postgres image,
// exposes the postgres port and waits for the server to accept connections
func OptPostgres(user, password, database string) Opt {
	return func(req *testcontainers.ContainerRequest) error {
		req.Env["POSTGRES_USER"] = user
		req.Env["POSTGRES_PASSWORD"] = password
		req.Env["POSTGRES_DB"] = database
		req.ExposedPorts = append(req.ExposedPorts, pgxPort)
		req.WaitingFor = wait.ForAll(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			wait.ForListeningPort(pgxPort),
		).WithDeadline(startupTimeout)
		return nil
	}
}

// OptPostgresSetting sets a server configuration parameter on the command line
func OptPostgresSetting(key, value string) Opt {
	return func(req *testcontainers.ContainerRequest) error {
		if len(req.Cmd) == 0 {
			req.Cmd = []string{"postgres"}
		}
		req.Cmd = append(req.Cmd, "-c", fmt.Sprintf("%s=%s", key, value))
		return nil
	}
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// GetEnv returns an environment variable set on the container. The value
// of POSTGRES_HOST is the host the container is reachable on.
func (c *Container) GetEnv(key string) (string, error) {
	if key == "POSTGRES_HOST" {
		return c.Host(context.Background())
	}
	if value, exists := c.Env[key]; exists {
		return value, nil
	}
	return "", fmt.Errorf("environment variable %q not set", key)
}

// GetPort returns the host port mapped to a container port
func (c *Container) GetPort(port string) (string, error) {
	mapped, err := c.MappedPort(context.Background(), nat.Port(port))
	if err != nil {
		return "", err
	}
	return mapped.Port(), nil
}
