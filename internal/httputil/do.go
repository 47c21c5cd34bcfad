// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by network clients.
package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"slices"
)

// MaxBodyBytes caps how much of a response body Do will read.
const MaxBodyBytes = 8 << 20

// StatusError reports a response whose status code is outside the set the
// caller accepts.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d from %s", e.StatusCode, e.URL)
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Body       []byte
}

// Do executes req once and reads the body. Only status codes listed in
// accept are returned as a Response; any other code yields a *StatusError
// after the body is drained. When accept is empty, 200 is the only accepted
// code. Bodies larger than MaxBodyBytes are an error.
//
// Do never retries. A cancelled ctx surfaces as the error from client.Do.
func Do(ctx context.Context, client *http.Client, req *http.Request, accept ...int) (*Response, error) {
	if len(accept) == 0 {
		accept = []int{http.StatusOK}
	}
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if !slices.Contains(accept, resp.StatusCode) {
		io.Copy(io.Discard, io.LimitReader(resp.Body, MaxBodyBytes))
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: req.URL.Redacted()}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if len(body) > MaxBodyBytes {
		return nil, fmt.Errorf("response body exceeds %d bytes", MaxBodyBytes)
	}
	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}
