package toolsession

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signaldesk/signaldesk/internal/models"
)

type fakeConn struct {
	mu       sync.Mutex
	calls    []string
	callErr  error
	result   *mcp.CallToolResult
	closed   bool
	stale    bool
	tools    []mcp.Tool
	listErr  error
	closeErr error
}

func (c *fakeConn) CallTool(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, req.Params.Name)
	if c.callErr != nil {
		return nil, c.callErr
	}
	if c.result != nil {
		return c.result, nil
	}
	return mcp.NewToolResultText("ok"), nil
}

func (c *fakeConn) ListTools(ctx context.Context, req mcp.ListToolsRequest) (*mcp.ListToolsResult, error) {
	if c.listErr != nil {
		return nil, c.listErr
	}
	return &mcp.ListToolsResult{Tools: c.tools}, nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return c.closeErr
}

func (c *fakeConn) Alive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.stale
}

func (c *fakeConn) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

type fakeDialer struct {
	mu    sync.Mutex
	conns []*fakeConn
	errs  []error // consumed in order; nil entries succeed
}

func (d *fakeDialer) Dial(ctx context.Context, endpoint string) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	idx := len(d.conns)
	if idx < len(d.errs) && d.errs[idx] != nil {
		d.conns = append(d.conns, nil)
		return nil, d.errs[idx]
	}
	c := &fakeConn{}
	d.conns = append(d.conns, c)
	return c, nil
}

func (d *fakeDialer) dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.conns)
}

func (d *fakeDialer) conn(i int) *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conns[i]
}

func newTestSession(d Dialer, opts ...Option) *Session {
	return New(models.ProviderSentiment, "http://provider.test/sse", d, opts...)
}

func TestConnectIsIdempotent(t *testing.T) {
	d := &fakeDialer{}
	s := newTestSession(d)

	require.NoError(t, s.Connect(context.Background()))
	require.NoError(t, s.Connect(context.Background()))

	assert.Equal(t, 1, d.dials())
	state := s.State()
	assert.Equal(t, models.ConnectionStatusConnected, state.Status)
	assert.NotNil(t, state.ConnectedAt)
	assert.Equal(t, 1, state.Dials)
}

func TestInvokeConnectsImplicitly(t *testing.T) {
	d := &fakeDialer{}
	s := newTestSession(d)

	result, err := s.Invoke(context.Background(), "get_social_sentiment", map[string]any{"topic": "BTC"})
	require.NoError(t, err)

	text, frames, ok := FirstText(result)
	require.True(t, ok)
	assert.Equal(t, "ok", text)
	assert.Equal(t, 1, frames)
	assert.Equal(t, 1, d.dials())
	assert.Equal(t, []string{"get_social_sentiment"}, d.conn(0).calls)
}

func TestInvokeFailureTearsDownAndNextCallReconnectsOnce(t *testing.T) {
	d := &fakeDialer{}
	s := newTestSession(d)
	ctx := context.Background()

	require.NoError(t, s.Connect(ctx))
	first := d.conn(0)
	first.callErr = errors.New("stream reset")

	_, err := s.Invoke(ctx, "get_coins_markets", nil)
	require.Error(t, err)

	var connErr *models.ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, "invoke get_coins_markets", connErr.Op)
	assert.True(t, models.IsRetryable(err))
	assert.True(t, first.closed, "dead handle must be released")
	assert.Equal(t, models.ConnectionStatusDisconnected, s.State().Status)
	assert.Equal(t, "stream reset", s.State().LastError)

	_, err = s.Invoke(ctx, "get_coins_markets", nil)
	require.NoError(t, err)

	assert.Equal(t, 2, d.dials(), "exactly one fresh connect")
	assert.Equal(t, 1, first.callCount(), "no call on the dead handle")
	assert.Equal(t, 1, d.conn(1).callCount())

	state := s.State()
	assert.Equal(t, int64(2), state.Invocations)
	assert.Equal(t, int64(1), state.Failures)
}

func TestConnectFailureRetainsNoHandle(t *testing.T) {
	d := &fakeDialer{errs: []error{errors.New("connection refused")}}
	s := newTestSession(d)
	ctx := context.Background()

	err := s.Connect(ctx)
	require.Error(t, err)
	var connErr *models.ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, "connect", connErr.Op)

	state := s.State()
	assert.Equal(t, models.ConnectionStatusDisconnected, state.Status)
	assert.False(t, state.IsConnected())
	assert.Nil(t, state.ConnectedAt)
	assert.Equal(t, "connection refused", state.LastError)

	require.NoError(t, s.Connect(ctx))
	assert.Equal(t, 2, d.dials())
	state = s.State()
	assert.Equal(t, models.ConnectionStatusConnected, state.Status)
	assert.Empty(t, state.LastError)
}

func TestDisconnectIsSafeWhenDisconnected(t *testing.T) {
	d := &fakeDialer{}
	s := newTestSession(d)

	s.Disconnect()
	assert.Equal(t, models.ConnectionStatusDisconnected, s.State().Status)

	require.NoError(t, s.Connect(context.Background()))
	s.Disconnect()
	s.Disconnect()

	assert.True(t, d.conn(0).closed)
	assert.Equal(t, models.ConnectionStatusDisconnected, s.State().Status)
}

func TestStaleHandleIsReplaced(t *testing.T) {
	d := &fakeDialer{}
	s := newTestSession(d)
	ctx := context.Background()

	require.NoError(t, s.Connect(ctx))
	d.conn(0).stale = true

	require.NoError(t, s.Connect(ctx))
	assert.Equal(t, 2, d.dials())
	assert.True(t, d.conn(0).closed)
	assert.False(t, d.conn(1).closed)
}

func TestCallerCancellationKeepsSession(t *testing.T) {
	d := &fakeDialer{}
	s := newTestSession(d)

	require.NoError(t, s.Connect(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.conn(0).callErr = context.Canceled

	_, err := s.Invoke(ctx, "get_social_sentiment", nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, models.IsRetryable(err))
	assert.False(t, d.conn(0).closed)
	assert.Equal(t, models.ConnectionStatusConnected, s.State().Status)
}

func TestToolLevelErrorIsReturnedWithoutTeardown(t *testing.T) {
	d := &fakeDialer{}
	s := newTestSession(d)
	require.NoError(t, s.Connect(context.Background()))
	d.conn(0).result = mcp.NewToolResultError("unknown topic")

	result, err := s.Invoke(context.Background(), "get_social_sentiment", nil)
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Equal(t, "unknown topic", ErrorText(result))
	assert.False(t, d.conn(0).closed)
}

func TestListToolsFailureTearsDown(t *testing.T) {
	d := &fakeDialer{}
	s := newTestSession(d)
	require.NoError(t, s.Connect(context.Background()))
	d.conn(0).listErr = errors.New("eof")

	_, err := s.ListTools(context.Background())
	require.Error(t, err)
	assert.True(t, models.IsRetryable(err))
	assert.True(t, d.conn(0).closed)
}

type recordingObserver struct {
	mu       sync.Mutex
	connects []error
	invokes  []string
}

func (o *recordingObserver) ObserveConnect(provider string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.connects = append(o.connects, err)
}

func (o *recordingObserver) ObserveInvoke(provider, tool string, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.invokes = append(o.invokes, tool)
}

func TestObserverReceivesOutcomes(t *testing.T) {
	obs := &recordingObserver{}
	s := newTestSession(&fakeDialer{}, WithObserver(obs), WithRateLimit(100))

	_, err := s.Invoke(context.Background(), "get_id_coins", nil)
	require.NoError(t, err)

	assert.Len(t, obs.connects, 1)
	assert.NoError(t, obs.connects[0])
	assert.Equal(t, []string{"get_id_coins"}, obs.invokes)
}
