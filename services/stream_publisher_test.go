package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenilmodi00/market-backend/models"
	"github.com/fenilmodi00/market-backend/services"
	"github.com/fenilmodi00/market-backend/shared"
)

type fakeStreamConn struct {
	mutex      sync.Mutex
	writes     []models.TickSnapshot
	failWrites bool
	closed     bool

	clientGone     chan struct{}
	clientGoneOnce sync.Once
	closedCh       chan struct{}
	closeOnce      sync.Once
}

func newFakeStreamConn() *fakeStreamConn {
	return &fakeStreamConn{
		clientGone: make(chan struct{}),
		closedCh:   make(chan struct{}),
	}
}

func (c *fakeStreamConn) WriteJSON(v interface{}) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.closed {
		return errors.New("write on closed connection")
	}
	if c.failWrites {
		return errors.New("broken pipe")
	}
	c.writes = append(c.writes, v.(models.TickSnapshot))
	return nil
}

func (c *fakeStreamConn) ReadMessage() (int, []byte, error) {
	select {
	case <-c.clientGone:
		return 0, nil, errors.New("close 1000 (normal)")
	case <-c.closedCh:
		return 0, nil, errors.New("use of closed network connection")
	}
}

func (c *fakeStreamConn) SetWriteDeadline(time.Time) error {
	return nil
}

func (c *fakeStreamConn) Close() error {
	c.closeOnce.Do(func() {
		c.mutex.Lock()
		c.closed = true
		c.mutex.Unlock()
		close(c.closedCh)
	})
	return nil
}

func (c *fakeStreamConn) disconnect() {
	c.clientGoneOnce.Do(func() { close(c.clientGone) })
}

func (c *fakeStreamConn) writeCount() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.writes)
}

func (c *fakeStreamConn) isClosed() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.closed
}

func streamConfig(interval time.Duration) *shared.StreamConfig {
	config := shared.NewDefaultUnifiedConfiguration().Stream
	config.Interval = interval
	return &config
}

func serveAsync(publisher *services.StreamPublisher, ctx context.Context, conn services.StreamConn) <-chan error {
	done := make(chan error, 1)
	go func() { done <- publisher.Serve(ctx, conn) }()
	return done
}

func TestStreamPublisher_PushesUntilClientDisconnects(t *testing.T) {
	t.Parallel()

	publisher := services.NewStreamPublisher(services.NewStaticSnapshotSource(), streamConfig(20*time.Millisecond))
	conn := newFakeStreamConn()
	done := serveAsync(publisher, t.Context(), conn)

	require.Eventually(t, func() bool { return conn.writeCount() >= 3 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, publisher.ActiveSubscriptions())

	conn.disconnect()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after client disconnect")
	}

	writesAtClose := conn.writeCount()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, writesAtClose, conn.writeCount(), "no writes after close")
	assert.Equal(t, 0, publisher.ActiveSubscriptions())
	assert.True(t, conn.isClosed())

	conn.mutex.Lock()
	defer conn.mutex.Unlock()
	assert.Equal(t, "NIFTY", conn.writes[0].Symbol)
	assert.Equal(t, 22350.0, conn.writes[0].Price)
}

func TestStreamPublisher_FirstPushIsImmediate(t *testing.T) {
	t.Parallel()

	publisher := services.NewStreamPublisher(services.NewStaticSnapshotSource(), streamConfig(time.Hour))
	conn := newFakeStreamConn()
	done := serveAsync(publisher, t.Context(), conn)

	require.Eventually(t, func() bool { return conn.writeCount() == 1 }, time.Second, 5*time.Millisecond)

	conn.disconnect()
	require.NoError(t, <-done)
	assert.Equal(t, 1, conn.writeCount())
}

func TestStreamPublisher_ContextCancellationStopsLoop(t *testing.T) {
	t.Parallel()

	publisher := services.NewStreamPublisher(services.NewStaticSnapshotSource(), streamConfig(10*time.Millisecond))
	conn := newFakeStreamConn()

	ctx, cancel := context.WithCancel(t.Context())
	done := serveAsync(publisher, ctx, conn)

	require.Eventually(t, func() bool { return conn.writeCount() >= 2 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	require.NoError(t, <-done)
	assert.True(t, conn.isClosed())
	assert.Equal(t, 0, publisher.ActiveSubscriptions())
}

func TestStreamPublisher_WriteFailureClosesOnlyThatConnection(t *testing.T) {
	t.Parallel()

	publisher := services.NewStreamPublisher(services.NewStaticSnapshotSource(), streamConfig(10*time.Millisecond))

	healthy := newFakeStreamConn()
	broken := newFakeStreamConn()
	broken.failWrites = true

	healthyDone := serveAsync(publisher, t.Context(), healthy)
	brokenDone := serveAsync(publisher, t.Context(), broken)

	select {
	case err := <-brokenDone:
		require.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after write failure")
	}
	assert.True(t, broken.isClosed())

	require.Eventually(t, func() bool { return healthy.writeCount() >= 3 }, 2*time.Second, 5*time.Millisecond)
	assert.False(t, healthy.isClosed())
	assert.Equal(t, 1, publisher.ActiveSubscriptions())

	healthy.disconnect()
	require.NoError(t, <-healthyDone)
}

func TestStreamPublisher_ShutdownCancelsEveryLoop(t *testing.T) {
	t.Parallel()

	publisher := services.NewStreamPublisher(services.NewStaticSnapshotSource(), streamConfig(10*time.Millisecond))

	conns := []*fakeStreamConn{newFakeStreamConn(), newFakeStreamConn(), newFakeStreamConn()}
	dones := make([]<-chan error, 0, len(conns))
	for _, conn := range conns {
		dones = append(dones, serveAsync(publisher, t.Context(), conn))
	}

	require.Eventually(t, func() bool { return publisher.ActiveSubscriptions() == 3 }, 2*time.Second, 5*time.Millisecond)

	publisher.Shutdown()
	for _, done := range dones {
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("Serve did not return after shutdown")
		}
	}
	assert.Equal(t, 0, publisher.ActiveSubscriptions())
}

type stubIndexLister struct {
	mutex   sync.Mutex
	indices []models.IndexValue
	err     error
}

func (s *stubIndexLister) GetIndices(context.Context) ([]models.IndexValue, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.indices, s.err
}

func (s *stubIndexLister) set(indices []models.IndexValue, err error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.indices, s.err = indices, err
}

func TestIndexSnapshotSource_FallsBackToLastGoodValue(t *testing.T) {
	t.Parallel()

	lister := &stubIndexLister{err: errors.New("provider down")}
	source := services.NewIndexSnapshotSource(lister)

	snapshot := source.Snapshot(t.Context())
	assert.Equal(t, "NIFTY", snapshot.Symbol)
	assert.Equal(t, 22350.0, snapshot.Price)

	lister.set([]models.IndexValue{{Name: "NIFTY 50", Symbol: "^NSEI", Value: 22480.15}}, nil)
	snapshot = source.Snapshot(t.Context())
	assert.Equal(t, "NIFTY 50", snapshot.Symbol)
	assert.Equal(t, 22480.15, snapshot.Price)

	lister.set(nil, errors.New("provider down again"))
	snapshot = source.Snapshot(t.Context())
	assert.Equal(t, "NIFTY 50", snapshot.Symbol)
	assert.Equal(t, 22480.15, snapshot.Price)
}
