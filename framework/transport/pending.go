package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/fastmcp4j/mcp-test-harness/framework"
	"github.com/fastmcp4j/mcp-test-harness/protodef"
)

// pendingCalls correlates responses that arrive asynchronously with the requests waiting for
// them. Once failAll has been called, every current and future waiter gets that error.
type pendingCalls struct {
	nextID  int64
	waiters map[string]chan protodef.Message
	failure error
	lock    sync.Mutex
}

func newPendingCalls() *pendingCalls {
	return &pendingCalls{waiters: make(map[string]chan protodef.Message)}
}

func (p *pendingCalls) register() (int64, <-chan protodef.Message, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.failure != nil {
		return 0, nil, p.failure
	}
	p.nextID++
	ch := make(chan protodef.Message, 1)
	p.waiters[protodef.RequestIDKey(p.nextID)] = ch
	return p.nextID, ch, nil
}

func (p *pendingCalls) cancel(id int64) {
	p.lock.Lock()
	delete(p.waiters, protodef.RequestIDKey(id))
	p.lock.Unlock()
}

// deliver hands a response to its waiter. It returns false if nobody is waiting for that ID.
func (p *pendingCalls) deliver(m protodef.Message) bool {
	key := protodef.IDKey(m.ID)
	p.lock.Lock()
	ch, ok := p.waiters[key]
	delete(p.waiters, key)
	p.lock.Unlock()
	if ok {
		ch <- m
	}
	return ok
}

func (p *pendingCalls) failAll(err error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.failure != nil {
		return
	}
	p.failure = err
	for key, ch := range p.waiters {
		close(ch)
		delete(p.waiters, key)
	}
}

func (p *pendingCalls) err() error {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.failure
}

func (p *pendingCalls) await(
	ctx context.Context,
	id int64,
	ch <-chan protodef.Message,
	method string,
	timeout time.Duration,
) (json.RawMessage, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case m, ok := <-ch:
		if !ok {
			return nil, fmt.Errorf("%s: %w", method, p.err())
		}
		if m.Error != nil {
			return nil, m.Error
		}
		return m.Result, nil
	case <-timer.C:
		p.cancel(id)
		return nil, fmt.Errorf("%s: no response after %s: %w", method, timeout, framework.ErrTimeout)
	case <-ctx.Done():
		p.cancel(id)
		return nil, fmt.Errorf("%s: %w", method, ctx.Err())
	}
}
