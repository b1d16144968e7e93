package api

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

// Fully-qualified service names.
const (
	LedgerServiceName    = "fintrack.v1.LedgerService"
	PortfolioServiceName = "fintrack.v1.PortfolioService"
	SnapshotServiceName  = "fintrack.v1.SnapshotService"
)

// Procedure returns the HTTP path of method on service.
func Procedure(service, method string) string {
	return "/" + service + "/" + method
}

// Route is one mounted procedure.
type Route struct {
	procedure string
	handler   http.Handler
}

// Unary builds a route for a unary handler. The JSON codec is always
// installed.
func Unary[Req, Res any](
	procedure string,
	fn func(context.Context, *connect.Request[Req]) (*connect.Response[Res], error),
	opts ...connect.HandlerOption,
) Route {
	opts = append([]connect.HandlerOption{connect.WithCodec(JSONCodec{})}, opts...)
	return Route{procedure: procedure, handler: connect.NewUnaryHandler(procedure, fn, opts...)}
}

// NewServiceHandler mounts routes under "/service/" and returns the prefix
// for http.ServeMux or mux.Router registration.
func NewServiceHandler(service string, routes ...Route) (string, http.Handler) {
	byPath := make(map[string]http.Handler, len(routes))
	for _, r := range routes {
		byPath[r.procedure] = r.handler
	}
	prefix := "/" + service + "/"
	return prefix, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, prefix) {
			http.NotFound(w, r)
			return
		}
		h, ok := byPath[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		h.ServeHTTP(w, r)
	})
}

// Client calls fintrack procedures on one server.
type Client struct {
	httpClient connect.HTTPClient
	baseURL    string
	token      string
	opts       []connect.ClientOption
}

// NewClient creates a client for the server at baseURL.
func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		opts:       append([]connect.ClientOption{connect.WithCodec(JSONCodec{})}, opts...),
	}
}

// WithToken returns a copy of c that sends token as a bearer credential.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

// Call invokes procedure with req and returns the decoded response.
func Call[Req, Res any](ctx context.Context, c *Client, procedure string, req *Req) (*Res, error) {
	client := connect.NewClient[Req, Res](c.httpClient, c.baseURL+procedure, c.opts...)
	r := connect.NewRequest(req)
	if c.token != "" {
		r.Header().Set("Authorization", "Bearer "+c.token)
	}
	resp, err := client.CallUnary(ctx, r)
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}
