package client

import (
	"context"
	"strings"
)

// Resource groups requests under a fixed path, e.g. "/users".
//
//	users := c.Resource("/users")
//	resp, err := users.Get(ctx, "42", nil)
type Resource struct {
	client *Client
	path   string
}

func (c *Client) Resource(path string) *Resource {
	return &Resource{client: c, path: path}
}

// Path joins sub onto the resource path with a single slash. An empty sub
// returns the resource path itself.
func (r *Resource) Path(sub string) string {
	if sub == "" {
		return r.path
	}
	return strings.TrimRight(r.path, "/") + "/" + strings.TrimLeft(sub, "/")
}

func (r *Resource) Get(ctx context.Context, sub string, opts *RequestOptions) (*Response, error) {
	return r.client.Get(ctx, r.Path(sub), opts)
}

func (r *Resource) Post(ctx context.Context, sub string, opts *RequestOptions) (*Response, error) {
	return r.client.Post(ctx, r.Path(sub), opts)
}

func (r *Resource) Put(ctx context.Context, sub string, opts *RequestOptions) (*Response, error) {
	return r.client.Put(ctx, r.Path(sub), opts)
}

func (r *Resource) Patch(ctx context.Context, sub string, opts *RequestOptions) (*Response, error) {
	return r.client.Patch(ctx, r.Path(sub), opts)
}

func (r *Resource) Delete(ctx context.Context, sub string, opts *RequestOptions) (*Response, error) {
	return r.client.Delete(ctx, r.Path(sub), opts)
}
