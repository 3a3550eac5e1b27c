package dashboard

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/consorcioci/viernes/client"
)

func TestPollerKeepsLatestSnapshot(t *testing.T) {
	var calls atomic.Int32
	updates := make(chan Snapshot, 8)
	p := NewPoller(func(context.Context) (client.PanelInfo, error) {
		n := calls.Add(1)
		if n == 2 {
			return nil, errors.New("boom")
		}
		return client.PanelInfo{"lecturas": n}, nil
	}, WithInterval(10*time.Millisecond), WithOnUpdate(func(s Snapshot) { updates <- s }))

	_, ok := p.Latest()
	assert.False(t, ok)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	first := <-updates
	assert.Equal(t, int32(1), first.Info["lecturas"])
	second := <-updates
	assert.Equal(t, int32(3), second.Info["lecturas"], "failed tick leaves no snapshot")

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	snap, ok := p.Latest()
	require.True(t, ok)
	assert.False(t, snap.FetchedAt.IsZero())
}

func TestPollerSkipsTicksWhileFetching(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	p := NewPoller(func(ctx context.Context) (client.PanelInfo, error) {
		calls.Add(1)
		select {
		case <-release:
		case <-ctx.Done():
		}
		return client.PanelInfo{}, nil
	}, WithInterval(5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())

	close(release)
	cancel()
	<-done
}
