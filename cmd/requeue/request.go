package main

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	// Packages
	requeue "github.com/mutablelogic/go-requeue"
	request "github.com/mutablelogic/go-requeue/pkg/request"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type RequestCommands struct {
	Spawn SpawnCommand `cmd:"" name:"spawn" help:"Enqueue a request on a channel." group:"REQUEST"`
}

type SpawnCommand struct {
	Channel   string        `arg:"" name:"channel" help:"Channel name"`
	Method    string        `arg:"" name:"method" help:"Request method"`
	URL       string        `arg:"" name:"url" help:"Request URL"`
	Headers   []string      `name:"header" short:"H" help:"Request header, as name: value"`
	Body      string        `name:"body" help:"Request body"`
	BodyFile  string        `name:"body-file" help:"Read the request body from a file" type:"existingfile"`
	Accept    []string      `name:"accept" help:"Accepted responses: a status code, a range such as 200-204, or success, redirection, client_error, server_error"`
	Retries   uint64        `name:"retries" help:"Number of attempts" default:"${retries}"`
	Backoff   time.Duration `name:"backoff" help:"Delay before the second attempt, doubled after each failure"`
	Unordered bool          `name:"unordered" help:"Send without waiting for earlier requests on the channel"`
	Delay     time.Duration `name:"delay" help:"Delay before the first attempt"`
	Wait      time.Duration `name:"wait" help:"Wait for the accepted response"`
}

///////////////////////////////////////////////////////////////////////////////
// COMMANDS

func (cmd *SpawnCommand) Run(ctx *Globals) error {
	client, err := ctx.Client()
	if err != nil {
		return err
	}

	// Build the request
	req, err := cmd.request()
	if err != nil {
		return err
	}
	config := &requeue.JobConfig{
		Retries: cmd.Retries,
		Backoff: cmd.Backoff,
		Ordered: !cmd.Unordered,
		Delay:   cmd.Delay,
	}

	// Spawn and wait for the response
	if cmd.Wait > 0 {
		resp, err := client.SpawnReturning(ctx.ctx, cmd.Channel, req, config, cmd.Wait)
		if err != nil {
			return err
		}
		printResponse(resp)
		return nil
	}

	// Spawn
	job, err := client.Spawn(ctx.ctx, cmd.Channel, req, config)
	if err != nil {
		return err
	}

	// Print
	fmt.Println(job.Id)
	return nil
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (cmd *SpawnCommand) request() (*request.Request, error) {
	var opts []request.Opt

	// Headers
	for _, header := range cmd.Headers {
		name, value, ok := strings.Cut(header, ":")
		if !ok {
			return nil, fmt.Errorf("invalid header %q", header)
		}
		opts = append(opts, request.WithHeader(strings.TrimSpace(name), strings.TrimSpace(value)))
	}

	// Body
	switch {
	case cmd.Body != "" && cmd.BodyFile != "":
		return nil, fmt.Errorf("body and body-file cannot both be set")
	case cmd.Body != "":
		opts = append(opts, request.WithBody([]byte(cmd.Body)))
	case cmd.BodyFile != "":
		data, err := os.ReadFile(cmd.BodyFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, request.WithBody(data))
	}

	// Accepted responses
	accept := make([]request.AcceptedResponse, 0, len(cmd.Accept))
	for _, value := range cmd.Accept {
		a, err := parseAccept(value)
		if err != nil {
			return nil, err
		}
		accept = append(accept, a)
	}
	opts = append(opts, request.WithAccept(accept...))

	return request.New(cmd.Method, cmd.URL, opts...)
}

func printResponse(resp *request.Response) {
	fmt.Println(resp.Status, http.StatusText(resp.Status))
	for name, values := range resp.Header {
		for _, value := range values {
			fmt.Printf("%s: %s\n", name, value)
		}
	}
	if len(resp.Body) > 0 {
		fmt.Println()
		fmt.Println(string(resp.Body))
	}
	if resp.Truncated {
		fmt.Println("(body truncated)")
	}
}

// parseAccept returns an accepted response from a status code, a range of
// codes or the name of a category
func parseAccept(value string) (request.AcceptedResponse, error) {
	value = strings.TrimSpace(value)
	if min, max, ok := strings.Cut(value, "-"); ok {
		lo, err := strconv.Atoi(min)
		if err != nil {
			return request.AcceptedResponse{}, fmt.Errorf("invalid range %q", value)
		}
		hi, err := strconv.Atoi(max)
		if err != nil {
			return request.AcceptedResponse{}, fmt.Errorf("invalid range %q", value)
		}
		a := request.Range(lo, hi)
		return a, a.Validate()
	}
	if code, err := strconv.Atoi(value); err == nil {
		a := request.Single(code)
		return a, a.Validate()
	}

	// Category name
	var a request.AcceptedResponse
	return a, a.UnmarshalJSON(fmt.Appendf(nil, `{"kind":%q}`, strings.ToLower(value)))
}
