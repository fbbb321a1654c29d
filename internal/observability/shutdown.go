package observability

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Closers runs release functions in reverse registration order: the store
// client registered after the tracer closes before the last spans flush.
type Closers struct {
	mu    sync.Mutex
	names []string
	fns   []func(context.Context) error
}

// Register adds fn under name.
func (c *Closers) Register(name string, fn func(context.Context) error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.names = append(c.names, name)
	c.fns = append(c.fns, fn)
}

// Close runs every registered function once, newest first, and joins
// their errors. Later calls are no-ops.
func (c *Closers) Close(ctx context.Context) error {
	c.mu.Lock()
	names, fns := c.names, c.fns
	c.names, c.fns = nil, nil
	c.mu.Unlock()

	var err error
	for i := len(fns) - 1; i >= 0; i-- {
		if ferr := fns[i](ctx); ferr != nil {
			err = errors.Join(err, fmt.Errorf("close %s: %w", names[i], ferr))
		}
	}
	return err
}
