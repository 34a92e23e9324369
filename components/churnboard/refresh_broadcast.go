package churnboard

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Campaign event actions.
const (
	CampaignCreated = "created"
	CampaignUpdated = "updated"
	CampaignDeleted = "deleted"
)

// CampaignEvent announces a successful campaign mutation.
type CampaignEvent struct {
	Action     string    `json:"action"`
	CampaignID int       `json:"campaign_id"`
	Name       string    `json:"name,omitempty"`
	Viewer     string    `json:"viewer,omitempty"`
	At         time.Time `json:"at"`
}

// CampaignHook is notified after campaign mutations.
type CampaignHook interface {
	CampaignChanged(ctx context.Context, event CampaignEvent) error
}

// BroadcastHook fans out campaign events to in-process subscribers.
// Slow subscribers drop events instead of blocking publishers.
type BroadcastHook struct {
	mu        sync.RWMutex
	subs      map[int]chan CampaignEvent
	next      int
	closed    bool
	done      chan struct{}
	keepAlive time.Duration
}

// NewBroadcastHook creates a broadcast hook.
func NewBroadcastHook() *BroadcastHook {
	return &BroadcastHook{
		subs:      make(map[int]chan CampaignEvent),
		done:      make(chan struct{}),
		keepAlive: 15 * time.Second,
	}
}

// CampaignChanged implements CampaignHook.
func (h *BroadcastHook) CampaignChanged(_ context.Context, event CampaignEvent) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

// Subscribe returns a channel of events and a cancel func.
func (h *BroadcastHook) Subscribe() (<-chan CampaignEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch := make(chan CampaignEvent, 8)
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	id := h.next
	h.next++
	h.subs[id] = ch
	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Subscribers reports the number of live subscriptions.
func (h *BroadcastHook) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close ends every subscription and open stream.
func (h *BroadcastHook) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	close(h.done)
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}

// StreamSSE writes events to w in Server-Sent Events framing until ctx is
// done, the hook closes or a write fails.
func (h *BroadcastHook) StreamSSE(ctx context.Context, w *bufio.Writer) error {
	events, cancel := h.Subscribe()
	defer cancel()

	if _, err := fmt.Fprint(w, "retry: 3000\n\n"); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-h.done:
			return nil
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return err
			}
		case event, ok := <-events:
			if !ok {
				return nil
			}
			payload, err := json.Marshal(event)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "event: campaign\ndata: %s\n\n", payload); err != nil {
				return err
			}
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
}

type noopCampaignHook struct{}

func (noopCampaignHook) CampaignChanged(context.Context, CampaignEvent) error { return nil }
