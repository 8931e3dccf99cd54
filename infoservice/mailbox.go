package infoservice

import (
	"context"

	"dht-ocean/common/executor"
)

// request is one queued call against the mailbox: run it against the
// Service and report back on reply.
type request struct {
	run   func(*Service)
	reply chan struct{}
}

// Mailbox serializes reads through dht-ocean's generic Executor, the same
// worker pool the DHT transaction/listen loop uses to fan work off a
// single channel. It exists for consumers that want the "single actor
// mailbox" shape Design Notes §9 describes; since Service state is
// immutable after construction, calling Service's methods directly from
// multiple goroutines is equally correct and needs no Mailbox at all —
// this type only adds request ordering and safe cancellation for callers
// that specifically want it. Running with a single worker preserves
// strict FIFO request order; more workers trade that order for throughput.
type Mailbox struct {
	svc *Service
	exe *executor.Executor[request]
}

// NewMailbox starts a mailbox dispatching reads against svc on one
// worker. queueSize bounds how many outstanding requests may be buffered
// before Submit blocks.
func NewMailbox(ctx context.Context, svc *Service, queueSize int) *Mailbox {
	m := &Mailbox{svc: svc}
	m.exe = executor.NewExecutor[request](ctx, 1, queueSize, func(req request) {
		req.run(m.svc)
		close(req.reply)
	})
	m.exe.Start()
	return m
}

// Submit runs fn against the Service on the mailbox's worker and blocks
// until it completes or ctx is cancelled. Cancelling ctx abandons the
// call from the caller's side only — an already-dispatched fn still runs
// to completion, since Service state is immutable and cannot be
// corrupted by an abandoned caller.
func (m *Mailbox) Submit(ctx context.Context, fn func(*Service)) error {
	req := request{run: fn, reply: make(chan struct{})}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	m.exe.Commit(req)
	select {
	case <-req.reply:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the mailbox's worker. It does not affect the underlying
// Service, whose state remains valid and directly callable.
func (m *Mailbox) Close() {
	m.exe.Stop()
}
