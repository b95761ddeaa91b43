package toolsession

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
)

// Conn is one live tool-calling handle. *client.Client satisfies it.
type Conn interface {
	CallTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
	ListTools(ctx context.Context, request mcp.ListToolsRequest) (*mcp.ListToolsResult, error)
	Close() error
}

// Dialer opens a Conn against a provider endpoint, handshake included.
type Dialer interface {
	Dial(ctx context.Context, endpoint string) (Conn, error)
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(ctx context.Context, endpoint string) (Conn, error)

// Dial calls f.
func (f DialerFunc) Dial(ctx context.Context, endpoint string) (Conn, error) {
	return f(ctx, endpoint)
}

// SSEDialer connects to MCP servers over server-sent events.
type SSEDialer struct {
	ClientName    string
	ClientVersion string
	Headers       map[string]string
}

// Dial starts the SSE stream and performs the initialize handshake.
// The stream is bound to a context detached from ctx so it outlives the
// request that happened to open it; Close ends it.
func (d SSEDialer) Dial(ctx context.Context, endpoint string) (Conn, error) {
	var opts []transport.ClientOption
	if len(d.Headers) > 0 {
		opts = append(opts, client.WithHeaders(d.Headers))
	}

	c, err := client.NewSSEMCPClient(endpoint, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sse client: %w", err)
	}

	if err := c.Start(context.WithoutCancel(ctx)); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("start sse stream: %w", err)
	}

	conn := &sseConn{Client: c}
	c.OnConnectionLost(func(error) {
		conn.lost.Store(true)
	})

	req := mcp.InitializeRequest{}
	req.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	req.Params.ClientInfo = mcp.Implementation{
		Name:    d.ClientName,
		Version: d.ClientVersion,
	}
	if _, err := c.Initialize(ctx, req); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("initialize: %w", err)
	}

	return conn, nil
}

// sseConn flags itself when the transport reports the stream dropped.
type sseConn struct {
	*client.Client
	lost atomic.Bool
}

// Alive reports false once the SSE stream has been lost.
func (c *sseConn) Alive() bool {
	return !c.lost.Load()
}

// liveness is implemented by handles that can tell when they have gone stale.
type liveness interface {
	Alive() bool
}
