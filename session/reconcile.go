package session

import (
	"context"
	"sync"
	"time"
)

// Reconciler coalesces bursts of reconciliation triggers into a single
// run: each Schedule restarts the delay timer, so the run fires once
// things settle.
type Reconciler struct {
	mu    sync.Mutex
	timer *time.Timer
	delay time.Duration
	run   func()
}

// NewReconciler creates a reconciler calling run after the debounce
// delay.
func NewReconciler(delay time.Duration, run func()) *Reconciler {
	return &Reconciler{delay: delay, run: run}
}

// Schedule (re)starts the debounce timer.
func (r *Reconciler) Schedule() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(r.delay, r.run)
}

// Flush cancels any pending timer and runs immediately.
func (r *Reconciler) Flush() {
	r.mu.Lock()
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	r.mu.Unlock()
	r.run()
}

// Stop cancels any pending run.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

// OnFocus reconciles immediately. Call when the application regains
// focus: local counters may have drifted while events were missed.
func (s *Session) OnFocus() {
	s.reconciler.Flush()
}

// RefreshCounters reconciles immediately, bypassing the debounce.
func (s *Session) RefreshCounters() {
	s.reconciler.Flush()
}

// reconcile replaces local unread counters with the server's view. Local
// increments are provisional; the server is authoritative.
func (s *Session) reconcile() {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	fresh, err := s.fetchCounters(ctx)
	if err != nil {
		// Keep provisional counters; the next trigger retries.
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters = fresh
	if s.openKey != "" {
		// The open thread is being read right now.
		s.counters[s.openKey] = 0
	}
}

// fetchCounters pulls the authoritative counters from the conversation
// listing.
func (s *Session) fetchCounters(ctx context.Context) (map[string]int64, error) {
	counters := make(map[string]int64)

	if s.role == RoleClient {
		list, err := s.store.ListClientConversations(ctx, 1, 100)
		if err != nil {
			return nil, err
		}
		for _, conv := range list.Support {
			counters[conv.CounterpartId] = conv.UnreadCount
		}
		for _, conv := range list.Specialists {
			counters[conv.CounterpartId] = conv.UnreadCount
		}
		for _, conv := range list.Groups {
			counters[conv.CounterpartId] = conv.UnreadCount
		}
		return counters, nil
	}

	page, err := s.store.ListConversations(ctx, 1, 100)
	if err != nil {
		return nil, err
	}
	for _, conv := range page.Items {
		counters[conv.CounterpartId] = conv.UnreadCount
	}
	return counters, nil
}
