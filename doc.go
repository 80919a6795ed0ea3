/*
Package requeue sends HTTP requests through a durable job queue in
PostgreSQL. A request is enqueued on a named channel and sent by a worker,
and retried with exponential backoff until a response is accepted or no
retries remain.

	client, err := requeue.New(ctx, conn, requeue.WithNamespace("myapp"))
	if err != nil {
		panic(err)
	}
	go client.Run(ctx)

	req, err := request.Post("https://example.com/hook", body,
		request.WithHeader("Content-Type", "application/json"),
		request.WithAccept(request.Success),
	)

	// Send and forget the response
	id, err := client.Spawn(ctx, "hooks", req)

	// Send and wait for the accepted response
	resp, err := client.SpawnReturning(ctx, "hooks", req)

By default a request is attempted many times and is sent only after every
earlier request on the same channel was accepted or gave up. Use
SpawnWithConfig to change this.

A response is delivered to SpawnReturning only in the process which spawned
the request. The accepted response is also stored with the job, and can be
read with Response.
*/
package requeue
