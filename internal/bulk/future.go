package bulk

import (
	"context"
	"sync"
)

// Future is the pending result of one logical request.
type Future struct {
	done chan struct{}
	once sync.Once
	resp *Response
	err  error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func (f *Future) resolve(resp *Response) {
	f.once.Do(func() {
		f.resp = resp
		close(f.done)
	})
}

func (f *Future) reject(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

// Done is closed once the future settled.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the future settled or ctx is done. A cancelled wait does
// not cancel the request, it still ships with its transaction.
func (f *Future) Wait(ctx context.Context) (*Response, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-f.done:
		return f.resp, f.err
	}
}

// Result returns the settled value, it must only be called after Done was closed.
func (f *Future) Result() (*Response, error) {
	return f.resp, f.err
}
