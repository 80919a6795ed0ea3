package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	// Packages
	requeue "github.com/mutablelogic/go-requeue"
	httphandler "github.com/mutablelogic/go-requeue/pkg/httphandler"
	pg "github.com/mutablelogic/go-requeue/pkg/pg"
	version "github.com/mutablelogic/go-requeue/pkg/version"
	server "github.com/mutablelogic/go-server"
	httpserver "github.com/mutablelogic/go-server/pkg/httpserver"
	logger "github.com/mutablelogic/go-server/pkg/logger"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type ServerCommands struct {
	RunServer RunServer `cmd:"" name:"run" help:"Run server." group:"SERVER"`
}

type RunServer struct {
	URL       string   `arg:"" name:"url" env:"PG_URL" help:"Database URL" default:""`
	Namespace string   `name:"namespace" env:"REQUEUE_NAMESPACE" help:"Channel namespace" default:"default"`
	Channels  []string `name:"channel" help:"Send requests from these channels only"`
	Workers   int      `name:"workers" help:"Number of requests sent concurrently" default:"0"`
	MaxBody   int64    `name:"max-body" help:"Maximum response body kept, in bytes" default:"10485760"`

	// Postgres options
	PG struct {
		// Database options
		User     string `name:"user" env:"PG_USER" help:"Database user"`
		Password string `name:"password" env:"PG_PASSWORD" help:"Database password"`
		Schema   string `name:"schema" env:"PG_SCHEMA" help:"Database schema"`
	} `embed:"" prefix:"pg."`

	// TLS server options
	TLS struct {
		ServerName string `name:"name" help:"TLS server name"`
		CertFile   string `name:"cert" help:"TLS certificate file"`
		KeyFile    string `name:"key" help:"TLS key file"`
	} `embed:"" prefix:"tls."`
}

///////////////////////////////////////////////////////////////////////////////
// COMMANDS

func (cmd *RunServer) Run(ctx *Globals) error {
	log := logger.New(os.Stderr, logger.Text, ctx.Debug)

	opts := []pg.Opt{
		pg.WithURL(cmd.URL),
		pg.WithApplicationName(version.ExecName()),
	}
	if cmd.PG.User != "" || cmd.PG.Password != "" {
		opts = append(opts, pg.WithCredentials(cmd.PG.User, cmd.PG.Password))
	}
	if cmd.PG.Schema != "" {
		opts = append(opts, pg.WithSchemaSearchPath(cmd.PG.Schema))
	}
	if ctx.Debug {
		opts = append(opts, pg.WithTrace(func(ctx context.Context, query string, args any, err error) {
			if err != nil {
				log.With("args", args).Print(ctx, "query error: ", err, ": ", query)
			} else {
				log.With("args", args).Debug(ctx, query)
			}
		}))
	}

	// Create a pool connection
	conn, err := pg.NewPool(ctx.ctx, opts...)
	if err != nil {
		return err
	}
	defer conn.Close()

	// Ping the database
	if err := conn.Ping(ctx.ctx); err != nil {
		return err
	}

	// Create the client
	clientOpts := []requeue.Opt{
		requeue.WithNamespace(cmd.Namespace),
		requeue.WithChannels(cmd.Channels...),
		requeue.WithLogger(log),
		requeue.WithMaxResponseBody(cmd.MaxBody),
	}
	if cmd.Workers > 0 {
		clientOpts = append(clientOpts, requeue.WithWorkers(cmd.Workers))
	}
	client, err := requeue.New(ctx.ctx, conn, clientOpts...)
	if err != nil {
		return err
	}

	// Register HTTP handlers
	router := http.NewServeMux()
	httphandler.RegisterHandlers(router, ctx.HTTP.Prefix, client, httphandler.HTTPMiddlewareFuncs{logRequests(log)})
	httphandler.RegisterNotFoundHandler(router, "")

	// Create a TLS config
	var tlsconfig *tls.Config
	if cmd.TLS.CertFile != "" || cmd.TLS.KeyFile != "" {
		tlsconfig, err = httpserver.TLSConfig(cmd.TLS.ServerName, true, cmd.TLS.CertFile, cmd.TLS.KeyFile)
		if err != nil {
			return err
		}
	}

	// Create a HTTP server
	server, err := httpserver.New(ctx.HTTP.Addr, router, tlsconfig)
	if err != nil {
		return err
	}

	// We run the client and the server concurrently
	var wg sync.WaitGroup
	var mu sync.Mutex
	var result error
	log.Print(ctx.ctx, version.ExecName(), " ", version.Version())

	wg.Add(1)
	go func() {
		defer wg.Done()

		if err := client.Run(ctx.ctx); err != nil {
			if !errors.Is(err, context.Canceled) {
				mu.Lock()
				result = errors.Join(result, fmt.Errorf("queue error: %w", err))
				mu.Unlock()
			}
		}
		ctx.cancel()
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Print(ctx.ctx, "listening on ", ctx.HTTP.Addr+ctx.HTTP.Prefix)
		if err := server.Run(ctx.ctx); err != nil {
			if !errors.Is(err, context.Canceled) {
				mu.Lock()
				result = errors.Join(result, fmt.Errorf("server error: %w", err))
				mu.Unlock()
			}
		}
		ctx.cancel()
	}()

	// Wait for both to finish
	wg.Wait()

	// Terminated message
	if result == nil {
		log.Print(context.Background(), version.ExecName(), " terminated")
	}

	// Return any error
	return result
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// logRequests logs each request with the time taken
func logRequests(log server.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()
			next(w, r)
			log.With("method", r.Method, "path", r.URL.Path, "duration", time.Since(started).String()).Debug(r.Context(), "request")
		}
	}
}
