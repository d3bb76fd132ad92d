package client

import (
	"context"
	"net/http"
)

// getResource performs a GET and decodes the (unwrapped) payload into a T.
func getResource[T any](ctx context.Context, c *Client, rawURL string) (*T, error) {
	var result T
	if _, err := c.doJSON(ctx, http.MethodGet, rawURL, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// listResources performs a GET and decodes the payload into a slice of T.
// A missing payload yields an empty, non-nil slice.
func listResources[T any](ctx context.Context, c *Client, rawURL string) ([]T, error) {
	var results []T
	if _, err := c.doJSON(ctx, http.MethodGet, rawURL, nil, &results); err != nil {
		return nil, err
	}
	if results == nil {
		results = []T{}
	}
	return results, nil
}

// deleteResource performs a DELETE and returns the server's message.
func deleteResource(ctx context.Context, c *Client, rawURL string) (string, error) {
	return c.doJSON(ctx, http.MethodDelete, rawURL, nil, nil)
}
