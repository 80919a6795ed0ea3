/*
Package request describes an HTTP request which can be stored in a queue
and replayed later, together with the policy deciding which responses
complete it.

Build a request with one of the method helpers:

	req, err := request.Post("https://example.com/hook", body,
		request.WithHeader("Content-Type", "application/json"),
		request.WithAccept(request.Success, request.Single(409)),
	)

A request is stored as JSON with Encode and read back with Decode.
*/
package request
