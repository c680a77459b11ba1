// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package bus

import (
	"context"
	"testing"

	"github.com/ManuGH/syncd/internal/model"
	"github.com/stretchr/testify/require"
)

func TestPublishSubscribe(t *testing.T) {
	b := NewMemoryBus()
	ctx := context.Background()

	sub, err := b.Subscribe(ctx, "sync.status")
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, b.Publish(ctx, "sync.status", Event{Kind: model.EventSyncStatus, ProfileName: "P"}))

	select {
	case ev := <-sub.C():
		require.Equal(t, "P", ev.ProfileName)
	default:
		t.Fatal("expected message on subscriber channel")
	}
}

func TestPublish_NoSubscribersIsNoOp(t *testing.T) {
	b := NewMemoryBus()
	require.NoError(t, b.Publish(context.Background(), "unused.topic", Event{}))
}

func TestClose_RemovesSubscriber(t *testing.T) {
	b := NewMemoryBus()
	ctx := context.Background()
	sub, err := b.Subscribe(ctx, "topic")
	require.NoError(t, err)
	require.NoError(t, sub.Close())

	_, open := <-sub.C()
	require.False(t, open)
}

func TestPublish_DropsOnBackpressure(t *testing.T) {
	b := NewMemoryBus()
	ctx := context.Background()
	sub, err := b.Subscribe(ctx, "topic")
	require.NoError(t, err)
	defer sub.Close()

	for i := 0; i < 100; i++ {
		require.NoError(t, b.Publish(ctx, "topic", Event{}))
	}
}
