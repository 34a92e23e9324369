package churnboard

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcastHookSubscribe(t *testing.T) {
	hook := NewBroadcastHook()
	defer hook.Close()
	ch, cancel := hook.Subscribe()
	defer cancel()

	event := CampaignEvent{Action: CampaignCreated, CampaignID: 3, Name: "Spring"}
	require.NoError(t, hook.CampaignChanged(context.Background(), event))

	select {
	case got := <-ch:
		assert.Equal(t, event.CampaignID, got.CampaignID)
		assert.Equal(t, CampaignCreated, got.Action)
	default:
		t.Fatal("expected event to be delivered")
	}
}

func TestBroadcastHookCancelAndClose(t *testing.T) {
	hook := NewBroadcastHook()
	_, cancel := hook.Subscribe()
	other, _ := hook.Subscribe()
	assert.Equal(t, 2, hook.Subscribers())

	cancel()
	assert.Equal(t, 1, hook.Subscribers())

	hook.Close()
	hook.Close()
	_, open := <-other
	assert.False(t, open)
	assert.NoError(t, hook.CampaignChanged(context.Background(), CampaignEvent{Action: CampaignDeleted}))
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestBroadcastHookStreamSSE(t *testing.T) {
	hook := NewBroadcastHook()
	defer hook.Close()
	out := &lockedBuffer{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- hook.StreamSSE(ctx, bufio.NewWriter(out))
	}()
	require.Eventually(t, func() bool { return hook.Subscribers() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, hook.CampaignChanged(context.Background(), CampaignEvent{Action: CampaignUpdated, CampaignID: 7}))
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), `"campaign_id":7`)
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("stream did not stop after cancel")
	}
	assert.Contains(t, out.String(), "retry: 3000")
	assert.Contains(t, out.String(), "event: campaign\ndata: ")
	assert.Zero(t, hook.Subscribers())
}
