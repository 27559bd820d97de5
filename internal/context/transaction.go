package context

import (
	"context"

	"gorm.io/gorm"
)

type contextKey string

const (
	TRANSACTION_KEY  contextKey = "transaction"
	COMMIT_HOOKS_KEY contextKey = "commitHooks"
)

// GetTransaction retrieves a transaction from the context
func GetTransaction(ctx context.Context) (*gorm.DB, bool) {
	tx, ok := ctx.Value(TRANSACTION_KEY).(*gorm.DB)
	return tx, ok
}

// WithTransaction adds a transaction to the context
func WithTransaction(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, TRANSACTION_KEY, tx)
}

// CommitHooks collects side effects that must only run after the enclosing
// transaction commits, such as deleting files from disk or fanning out
// events. Hooks never run on rollback.
type CommitHooks struct {
	hooks []func()
}

// WithCommitHooks attaches a hook queue to the context. The transaction
// service installs one per Execute call and drains it after commit.
func WithCommitHooks(ctx context.Context, hooks *CommitHooks) context.Context {
	return context.WithValue(ctx, COMMIT_HOOKS_KEY, hooks)
}

// GetCommitHooks retrieves the hook queue from the context.
func GetCommitHooks(ctx context.Context) (*CommitHooks, bool) {
	hooks, ok := ctx.Value(COMMIT_HOOKS_KEY).(*CommitHooks)
	return hooks, ok
}

// OnCommit queues fn to run after the surrounding transaction commits. When
// no transaction is active the function runs immediately.
func OnCommit(ctx context.Context, fn func()) {
	if hooks, ok := GetCommitHooks(ctx); ok {
		hooks.hooks = append(hooks.hooks, fn)
		return
	}
	fn()
}

// Drain runs all queued hooks in registration order and clears the queue.
func (c *CommitHooks) Drain() {
	for _, fn := range c.hooks {
		fn()
	}
	c.hooks = nil
}

// Len reports the number of queued hooks.
func (c *CommitHooks) Len() int {
	return len(c.hooks)
}
