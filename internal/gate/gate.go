package gate

import "context"

// Gate is a counting semaphore that caps concurrent external calls for one
// document. The recognition fan-out, the extractor, and the verifier batch
// all share a single Gate so the ceiling holds across stages.
type Gate struct {
	slots chan struct{}
}

// New constructs a Gate with the given concurrency limit. Limits below one
// collapse to one.
func New(limit int) *Gate {
	if limit < 1 {
		limit = 1
	}
	return &Gate{slots: make(chan struct{}, limit)}
}

// Acquire blocks until a slot is free or the context is done.
func (g *Gate) Acquire(ctx context.Context) error {
	select {
	case g.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot taken by Acquire. Calling it without a held slot is a
// pairing bug and blocks rather than silently widening the ceiling.
func (g *Gate) Release() {
	<-g.slots
}

// Limit reports the configured concurrency ceiling.
func (g *Gate) Limit() int {
	return cap(g.slots)
}

// InUse reports the number of currently held slots.
func (g *Gate) InUse() int {
	return len(g.slots)
}
