package mcp_test

import (
	"context"
	"testing"
	"time"

	mcpserver "siapcheck/internal/mcp"
)

func TestWatchParent_StopsWhenContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	mcpserver.WatchParent(ctx, cancel)
	cancel()

	// The goroutine must exit without calling cancel again or blocking.
	time.Sleep(50 * time.Millisecond)
}

func TestWatchParent_LeavesContextAliveWhileParentLives(t *testing.T) {
	old := mcpserver.ParentPollInterval
	mcpserver.ParentPollInterval = 10 * time.Millisecond
	t.Cleanup(func() { mcpserver.ParentPollInterval = old })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	mcpserver.WatchParent(ctx, cancel)

	time.Sleep(60 * time.Millisecond)
	if ctx.Err() != nil {
		t.Fatal("context cancelled although the parent is alive")
	}
}
