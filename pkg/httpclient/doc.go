// Package httpclient provides a typed Go client for the request queue
// REST API.
//
// Create a client with:
//
//	client, err := httpclient.New("http://localhost:8080/api/v1")
//	if err != nil {
//	   panic(err)
//	}
//
// Then enqueue requests and read jobs:
//
//	job, err := client.Spawn(ctx, "hooks", req, nil)
//	resp, err := client.SpawnReturning(ctx, "hooks", req, nil, 30*time.Second)
//	jobs, err := client.ListJobs(ctx, httpclient.WithChannel("hooks"))
//	channels, err := client.ListChannels(ctx)
package httpclient
