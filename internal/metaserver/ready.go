package metaserver

import (
	"context"
	"fmt"
	"sync"
)

// readyGate is a deferred "initializedMcpServer" promise: every meta-tool
// handler suspends on await until resolve is called exactly once,
// whether that is a successful fleet connect or a fatal startup error.
type readyGate struct {
	done chan struct{}
	once sync.Once
	err  error
}

func newReadyGate() *readyGate {
	return &readyGate{done: make(chan struct{})}
}

// resolve unblocks every waiter. Only the first call has any effect.
func (g *readyGate) resolve(err error) {
	g.once.Do(func() {
		g.err = err
		close(g.done)
	})
}

// await blocks until resolve has been called or ctx is canceled, whichever
// happens first.
func (g *readyGate) await(ctx context.Context) error {
	select {
	case <-g.done:
		return g.err
	case <-ctx.Done():
		return fmt.Errorf("context canceled while waiting for meta-server initialization: %w", ctx.Err())
	}
}
