package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fenilmodi00/market-backend/models"
	"github.com/fenilmodi00/market-backend/shared"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const streamServiceName = "StreamPublisher"

// StreamConn is the subset of a websocket connection the publisher needs
type StreamConn interface {
	WriteJSON(v interface{}) error
	ReadMessage() (messageType int, p []byte, err error)
	SetWriteDeadline(t time.Time) error
	Close() error
}

// SubscriptionState is the lifecycle state of one stream connection
type SubscriptionState int32

const (
	StateConnecting SubscriptionState = iota
	StateStreaming
	StateClosed
)

func (s SubscriptionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("unknown(%d)", int32(s))
	}
}

var errClientClosed = errors.New("client closed connection")

// Subscription is one live stream connection
type Subscription struct {
	ID          string
	CallerID    string
	ConnectedAt time.Time

	state      atomic.Int32
	pushes     atomic.Int64
	cancel     context.CancelCauseFunc
	closeOnce  sync.Once
	writeMutex sync.Mutex
}

// State returns the current lifecycle state
func (s *Subscription) State() SubscriptionState {
	return SubscriptionState(s.state.Load())
}

// Pushes returns the number of snapshots written
func (s *Subscription) Pushes() int64 {
	return s.pushes.Load()
}

func (s *Subscription) stop(cause error) {
	s.closeOnce.Do(func() {
		s.writeMutex.Lock()
		s.state.Store(int32(StateClosed))
		s.writeMutex.Unlock()
		s.cancel(cause)
	})
}

// SnapshotSource produces the payload pushed on every tick
type SnapshotSource interface {
	Snapshot(ctx context.Context) models.TickSnapshot
}

// StreamPublisher runs one push loop per connected subscriber
type StreamPublisher struct {
	source         SnapshotSource
	interval       time.Duration
	writeTimeout   time.Duration
	serviceMetrics *shared.ServiceMetrics

	rootCtx    context.Context
	rootCancel context.CancelFunc

	mutex         sync.RWMutex
	subscriptions map[string]*Subscription
}

// NewStreamPublisher creates a publisher pushing source snapshots every interval
func NewStreamPublisher(source SnapshotSource, config *shared.StreamConfig) *StreamPublisher {
	if config == nil {
		defaults := shared.NewDefaultUnifiedConfiguration().Stream
		config = &defaults
	}

	rootCtx, rootCancel := context.WithCancel(context.Background())
	return &StreamPublisher{
		source:         source,
		interval:       config.Interval,
		writeTimeout:   config.WriteTimeout,
		serviceMetrics: shared.NewServiceMetrics(streamServiceName),
		rootCtx:        rootCtx,
		rootCancel:     rootCancel,
		subscriptions:  make(map[string]*Subscription),
	}
}

// Serve streams snapshots to conn until the client disconnects, a write
// fails, ctx is cancelled or the publisher shuts down. It closes conn before
// returning. Only a write failure is reported as an error.
func (p *StreamPublisher) Serve(ctx context.Context, conn StreamConn) error {
	startTime := time.Now()
	loopCtx, cancel := context.WithCancelCause(ctx)
	stopOnShutdown := context.AfterFunc(p.rootCtx, func() { cancel(context.Canceled) })
	defer stopOnShutdown()

	subscription := &Subscription{
		ID:          uuid.NewString(),
		CallerID:    models.CallerFromContext(ctx).ID,
		ConnectedAt: startTime,
		cancel:      cancel,
	}
	subscription.state.Store(int32(StateConnecting))
	p.register(subscription)

	logger := logrus.WithFields(logrus.Fields{
		"component":       streamServiceName,
		"subscription_id": subscription.ID,
		"caller":          subscription.CallerID,
	})
	logger.Info("Stream subscriber connected")

	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				subscription.stop(errClientClosed)
				return
			}
		}
	}()

	var loopErr error
	if subscription.state.CompareAndSwap(int32(StateConnecting), int32(StateStreaming)) {
		loopErr = p.pushLoop(loopCtx, conn, subscription)
	}

	subscription.stop(context.Canceled)
	p.unregister(subscription.ID)
	conn.Close()
	<-readerDone

	p.serviceMetrics.RecordRequest(loopErr == nil, time.Since(startTime))
	logger.WithFields(logrus.Fields{
		"pushes":   subscription.Pushes(),
		"duration": time.Since(startTime),
		"cause":    context.Cause(loopCtx),
	}).Info("Stream subscriber disconnected")

	return loopErr
}

// pushLoop writes one snapshot immediately and then one per interval
func (p *StreamPublisher) pushLoop(ctx context.Context, conn StreamConn, subscription *Subscription) error {
	if err := p.push(ctx, conn, subscription); err != nil {
		return err
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := p.push(ctx, conn, subscription); err != nil {
				return err
			}
		}
	}
}

func (p *StreamPublisher) push(ctx context.Context, conn StreamConn, subscription *Subscription) error {
	snapshot := p.source.Snapshot(ctx)

	// Closed subscriptions never see another write
	subscription.writeMutex.Lock()
	defer subscription.writeMutex.Unlock()
	if ctx.Err() != nil || subscription.State() != StateStreaming {
		return nil
	}

	if err := conn.SetWriteDeadline(time.Now().Add(p.writeTimeout)); err != nil {
		p.serviceMetrics.IncrementCustomCounter("write_failures")
		return fmt.Errorf("set write deadline: %w", err)
	}
	if err := conn.WriteJSON(snapshot); err != nil {
		p.serviceMetrics.IncrementCustomCounter("write_failures")
		return fmt.Errorf("write snapshot: %w", err)
	}

	subscription.pushes.Add(1)
	p.serviceMetrics.IncrementCustomCounter("pushes")
	return nil
}

func (p *StreamPublisher) register(subscription *Subscription) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.subscriptions[subscription.ID] = subscription
}

func (p *StreamPublisher) unregister(id string) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	delete(p.subscriptions, id)
}

// ActiveSubscriptions returns the number of connections not yet closed
func (p *StreamPublisher) ActiveSubscriptions() int {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	active := 0
	for _, subscription := range p.subscriptions {
		if subscription.State() != StateClosed {
			active++
		}
	}
	return active
}

// Shutdown cancels every running loop. Serve calls made afterwards return immediately.
func (p *StreamPublisher) Shutdown() {
	p.rootCancel()

	p.mutex.RLock()
	defer p.mutex.RUnlock()
	for _, subscription := range p.subscriptions {
		subscription.stop(context.Canceled)
	}
}

// StaticSnapshotSource always returns the same placeholder tick
type StaticSnapshotSource struct {
	Symbol string
	Price  float64
}

// NewStaticSnapshotSource returns the default NIFTY placeholder source
func NewStaticSnapshotSource() *StaticSnapshotSource {
	return &StaticSnapshotSource{Symbol: "NIFTY", Price: 22350}
}

func (s *StaticSnapshotSource) Snapshot(_ context.Context) models.TickSnapshot {
	return models.TickSnapshot{
		Symbol:    s.Symbol,
		Price:     s.Price,
		Timestamp: time.Now().UTC(),
	}
}

// IndexLister is satisfied by MarketService
type IndexLister interface {
	GetIndices(ctx context.Context) ([]models.IndexValue, error)
}

// IndexSnapshotSource streams the latest value of the first configured index.
// On failure it repeats the last good value, or the static placeholder.
type IndexSnapshotSource struct {
	indices  IndexLister
	fallback *StaticSnapshotSource

	mutex    sync.Mutex
	lastGood *models.TickSnapshot
}

func NewIndexSnapshotSource(indices IndexLister) *IndexSnapshotSource {
	return &IndexSnapshotSource{
		indices:  indices,
		fallback: NewStaticSnapshotSource(),
	}
}

func (s *IndexSnapshotSource) Snapshot(ctx context.Context) models.TickSnapshot {
	indices, err := s.indices.GetIndices(ctx)

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err == nil && len(indices) > 0 {
		snapshot := models.TickSnapshot{
			Symbol:    indices[0].Name,
			Price:     indices[0].Value,
			Timestamp: time.Now().UTC(),
		}
		s.lastGood = &snapshot
		return snapshot
	}

	logrus.WithField("component", "IndexSnapshotSource").WithError(err).Debug("Live index unavailable, reusing previous snapshot")
	if s.lastGood != nil {
		snapshot := *s.lastGood
		snapshot.Timestamp = time.Now().UTC()
		return snapshot
	}
	return s.fallback.Snapshot(ctx)
}
