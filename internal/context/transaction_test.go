package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOnCommit_RunsImmediatelyWithoutQueue(t *testing.T) {
	called := false
	OnCommit(context.Background(), func() {
		called = true
	})

	assert.True(t, called)
}

func TestOnCommit_QueuesWhenHooksPresent(t *testing.T) {
	hooks := &CommitHooks{}
	ctx := WithCommitHooks(context.Background(), hooks)

	called := false
	OnCommit(ctx, func() {
		called = true
	})

	assert.False(t, called, "hook must wait for Drain")
	assert.Equal(t, 1, hooks.Len())
}

func TestCommitHooks_DrainRunsInOrderAndClears(t *testing.T) {
	hooks := &CommitHooks{}
	ctx := WithCommitHooks(context.Background(), hooks)

	var order []int
	OnCommit(ctx, func() { order = append(order, 1) })
	OnCommit(ctx, func() { order = append(order, 2) })
	OnCommit(ctx, func() { order = append(order, 3) })

	hooks.Drain()

	assert.Equal(t, []int{1, 2, 3}, order)
	assert.Equal(t, 0, hooks.Len())

	// A second drain is a no-op
	hooks.Drain()
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestGetCommitHooks(t *testing.T) {
	_, ok := GetCommitHooks(context.Background())
	assert.False(t, ok)

	hooks := &CommitHooks{}
	ctx := WithCommitHooks(context.Background(), hooks)

	got, ok := GetCommitHooks(ctx)
	assert.True(t, ok)
	assert.Same(t, hooks, got)
}
