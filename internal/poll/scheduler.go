// Package poll drives periodic synchronization of one open conversation
// against the remote message store.
package poll

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/retrend/chat/internal/chat"
	"github.com/retrend/chat/internal/logging"
	"github.com/retrend/chat/internal/visibility"
)

// Scheduler errors.
var (
	ErrSchedulerAlreadyRunning = errors.New("scheduler already running")
)

// DefaultInterval is the fixed poll cadence of the production client.
const DefaultInterval = 3 * time.Second

// Fetcher retrieves the full ordered message set for a conversation. The
// implementation carries the auth credential.
type Fetcher interface {
	FetchNewMessages(ctx context.Context, conversationID, counterpart string) ([]chat.Message, error)
}

// ReadMarker submits read receipts. Resubmitting an already-read id is
// harmless.
type ReadMarker interface {
	MarkMessagesRead(ctx context.Context, ids []string) error
}

// UpdateFunc receives the view snapshot and scroll intent after every fetch
// attempt, successful or not.
type UpdateFunc func(view chat.View, intent chat.ScrollIntent)

// Config contains configuration for a conversation scheduler.
type Config struct {
	// Interval is the poll cadence. Default: 3s.
	Interval time.Duration
}

// Binding identifies the conversation a scheduler is bound to for its
// whole lifetime. Switching conversations means tearing the scheduler down
// and constructing a fresh one.
type Binding struct {
	// ConversationID identifies the conversation at the remote store.
	ConversationID string

	// Counterpart is the other participant.
	Counterpart string

	// Self is the current viewer's identity; read receipts are computed
	// against it.
	Self string
}

// Scheduler owns the fetch loop and the display state of one open
// conversation. The view is mutated by the scheduler only.
type Scheduler struct {
	cfg     Config
	binding Binding
	fetcher Fetcher
	marker  ReadMarker
	vis     *visibility.Signal
	logger  zerolog.Logger

	onUpdate UpdateFunc

	mu             sync.Mutex
	running        bool
	inFlight       bool
	pollingEnabled bool
	view           chat.View
	ctx            context.Context
	cancel         context.CancelFunc
	unsubscribe    func()
	wg             sync.WaitGroup
}

// NewScheduler creates a scheduler bound to one conversation. The
// visibility signal is required; polling is suspended whenever it reports
// hidden.
func NewScheduler(cfg Config, binding Binding, fetcher Fetcher, marker ReadMarker, vis *visibility.Signal) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if vis == nil {
		vis = visibility.NewSignal()
	}
	return &Scheduler{
		cfg:     cfg,
		binding: binding,
		fetcher: fetcher,
		marker:  marker,
		vis:     vis,
		logger:  logging.WithConversation(binding.ConversationID).With().Str("component", "sync-scheduler").Logger(),
	}
}

// OnUpdate registers the renderer callback. Must be called before Start.
func (s *Scheduler) OnUpdate(fn UpdateFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onUpdate = fn
}

// Start performs an immediate fetch and arms the recurring timer.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrSchedulerAlreadyRunning
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running = true
	s.pollingEnabled = s.vis.Visible()
	s.unsubscribe = s.vis.Subscribe(s.setVisible)
	s.mu.Unlock()

	s.logger.Info().
		Dur("interval", s.cfg.Interval).
		Str("counterpart", s.binding.Counterpart).
		Msg("conversation sync starting")

	s.wg.Add(1)
	go s.runLoop()

	s.tryFetch()
	return nil
}

// Stop tears the scheduler down: the timer is cancelled and no further
// fetch or mark-read calls are issued afterward. An in-flight cycle's
// result is discarded. Stop is idempotent.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.cancel()
	s.unsubscribe()
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info().Msg("conversation sync stopped")
}

// IsRunning returns true between Start and Stop.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// View returns a snapshot of the conversation display state.
func (s *Scheduler) View() chat.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// SetScrolledAway is fed by the presentation boundary's proximity test:
// true once the viewer leaves the bottom of the list, false when they
// return to it.
func (s *Scheduler) SetScrolledAway(away bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.UserHasScrolledAway = away
}

// PollNow requests an immediate fetch, subject to the same suspension and
// in-flight rules as a timer tick.
func (s *Scheduler) PollNow() {
	s.tryFetch()
}

func (s *Scheduler) setVisible(visible bool) {
	s.mu.Lock()
	s.pollingEnabled = visible
	s.mu.Unlock()
	s.logger.Debug().Bool("visible", visible).Msg("visibility changed")
}

// runLoop keeps ticking in both the polling and the suspended state; the
// tick is a no-op while suspended.
func (s *Scheduler) runLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.tryFetch()
		}
	}
}

// tryFetch starts a fetch cycle unless the scheduler is torn down,
// suspended, or the previous cycle has not resolved yet. Skipping a tick
// while one is in flight keeps cycles strictly sequential per conversation.
func (s *Scheduler) tryFetch() {
	s.mu.Lock()
	if !s.running || s.ctx.Err() != nil {
		s.mu.Unlock()
		return
	}
	if !s.pollingEnabled {
		s.mu.Unlock()
		s.logger.Debug().Msg("poll tick skipped, surface hidden")
		return
	}
	if s.inFlight {
		s.mu.Unlock()
		s.logger.Debug().Msg("poll tick skipped, previous fetch still in flight")
		return
	}
	s.inFlight = true
	ctx := s.ctx
	s.mu.Unlock()

	s.wg.Add(1)
	go s.fetchCycle(ctx)
}

// fetchCycle performs one fetch-reconcile-mark-read pass.
func (s *Scheduler) fetchCycle(ctx context.Context) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
	}()

	messages, err := s.fetcher.FetchNewMessages(ctx, s.binding.ConversationID, s.binding.Counterpart)

	s.mu.Lock()
	if ctx.Err() != nil {
		// Torn down while the call was in flight; discard the result.
		s.mu.Unlock()
		return
	}

	if err != nil {
		// Prior messages stay untouched; the next scheduled tick is the
		// retry. Loaded still flips so a failed first fetch does not wedge
		// the view in a loading state.
		s.view.Loaded = true
		view := s.view
		onUpdate := s.onUpdate
		s.mu.Unlock()

		s.logger.Warn().Err(err).Msg("fetch failed")
		if onUpdate != nil {
			onUpdate(view, chat.PreservePosition)
		}
		return
	}

	reduction := chat.Reduce(s.view, messages, s.binding.Self)
	s.view = reduction.View
	view := s.view
	onUpdate := s.onUpdate
	s.mu.Unlock()

	s.logger.Debug().
		Int("messages", len(view.Messages)).
		Int("read_receipts", len(reduction.ReadReceipts)).
		Str("scroll", reduction.Scroll.String()).
		Msg("fetch cycle complete")

	if onUpdate != nil {
		onUpdate(view, reduction.Scroll)
	}
	if len(reduction.ReadReceipts) > 0 {
		s.dispatchReadReceipts(ctx, reduction.ReadReceipts)
	}
}

// dispatchReadReceipts submits the batch fire-and-forget. Failures are
// logged and swallowed: the condition persists at the store, so the batch
// is recomputed and resubmitted after the next successful fetch.
func (s *Scheduler) dispatchReadReceipts(ctx context.Context, ids []string) {
	if ctx.Err() != nil {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.marker.MarkMessagesRead(ctx, ids); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			s.logger.Warn().Err(err).Int("count", len(ids)).Msg("mark-read failed")
		}
	}()
}
