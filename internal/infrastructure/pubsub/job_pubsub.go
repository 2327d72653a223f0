package pubsub

import (
	"context"
	"fmt"
	"sync"

	"metaforge-shopify-sync/internal/domain"

	"github.com/rs/zerolog"
)

// JobEventChannel represents a subscription channel
type JobEventChannel struct {
	ID     string
	Filter *JobEventFilter
	Events chan *domain.JobEvent
	Done   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
}

// JobEventFilter filters job lifecycle events
type JobEventFilter struct {
	Types  []domain.JobEventType // Filter by event types
	RuleID string                // Filter by rule
}

// JobPubSub fans job lifecycle events out to in-process subscribers. The
// queue publishes here on every admission, progress report, and terminal
// transition.
type JobPubSub struct {
	mu       sync.RWMutex
	channels map[string]*JobEventChannel
	logger   zerolog.Logger
	nextID   int64
	idMu     sync.Mutex
}

// NewJobPubSub creates a new job event pub/sub system
func NewJobPubSub(logger zerolog.Logger) *JobPubSub {
	return &JobPubSub{
		channels: make(map[string]*JobEventChannel),
		logger:   logger,
	}
}

// Subscribe creates a new subscription channel
func (ps *JobPubSub) Subscribe(ctx context.Context, filter *JobEventFilter) *JobEventChannel {
	ps.idMu.Lock()
	ps.nextID++
	id := fmt.Sprintf("channel-%d", ps.nextID)
	ps.idMu.Unlock()

	subCtx, cancel := context.WithCancel(ctx)

	channel := &JobEventChannel{
		ID:     id,
		Filter: filter,
		Events: make(chan *domain.JobEvent, 16),
		Done:   make(chan struct{}),
		ctx:    subCtx,
		cancel: cancel,
	}

	ps.mu.Lock()
	ps.channels[id] = channel
	ps.mu.Unlock()

	ps.logger.Debug().
		Str("channelId", id).
		Msg("Job event subscription created")

	// Cleanup when context is cancelled
	go func() {
		<-subCtx.Done()
		ps.Unsubscribe(id)
	}()

	return channel
}

// Unsubscribe removes a subscription channel
func (ps *JobPubSub) Unsubscribe(channelID string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	channel, exists := ps.channels[channelID]
	if !exists {
		return
	}

	close(channel.Events)
	close(channel.Done)
	channel.cancel()
	delete(ps.channels, channelID)
}

// Publish broadcasts a job event to all matching subscribers. Delivery is
// non-blocking: a subscriber with a full buffer misses the event.
func (ps *JobPubSub) Publish(event *domain.JobEvent) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	for _, channel := range ps.channels {
		if !matchesFilter(event, channel.Filter) {
			continue
		}
		select {
		case channel.Events <- event:
		case <-channel.ctx.Done():
		default:
			ps.logger.Warn().
				Str("channelId", channel.ID).
				Str("jobId", event.JobID).
				Msg("Channel buffer full, dropping job event")
		}
	}
}

// matchesFilter checks if an event matches the subscription filter
func matchesFilter(event *domain.JobEvent, filter *JobEventFilter) bool {
	if filter == nil {
		return true
	}
	if len(filter.Types) > 0 {
		typeMatch := false
		for _, t := range filter.Types {
			if event.Type == t {
				typeMatch = true
				break
			}
		}
		if !typeMatch {
			return false
		}
	}
	if filter.RuleID != "" && event.RuleID != filter.RuleID {
		return false
	}
	return true
}

// ActiveSubscriptions returns the current subscriber count
func (ps *JobPubSub) ActiveSubscriptions() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return len(ps.channels)
}
