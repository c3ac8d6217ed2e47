package hostenv

import (
	"context"
	"errors"
	"sync"
)

// ErrNotWired is returned by a forwarder that has no host implementation
// for an operation. The bridge then answers with the operation's placeholder.
var ErrNotWired = errors.New("operation not wired to host")

// Request is an operation the bridge hands to the host: rendering, physics,
// audio, networking and similar collaborators live behind it.
type Request struct {
	Category  string         `json:"category"`
	Operation string         `json:"operation"`
	Target    string         `json:"target,omitempty"`
	Script    string         `json:"script,omitempty"`
	Args      map[string]any `json:"args,omitempty"`
}

// Forwarder delivers bridge requests to host collaborators.
type Forwarder interface {
	Forward(ctx context.Context, req Request) (any, error)
}

// ForwarderFunc adapts a function to the Forwarder interface.
type ForwarderFunc func(ctx context.Context, req Request) (any, error)

// Forward calls f
func (f ForwarderFunc) Forward(ctx context.Context, req Request) (any, error) {
	return f(ctx, req)
}

// RecordingForwarder records every request. Operations with a canned
// response answer with it; everything else reports ErrNotWired.
type RecordingForwarder struct {
	mu        sync.Mutex
	requests  []Request
	responses map[string]any
}

// NewRecordingForwarder creates a forwarder with optional canned responses keyed by operation.
func NewRecordingForwarder(responses map[string]any) *RecordingForwarder {
	if responses == nil {
		responses = make(map[string]any)
	}
	return &RecordingForwarder{responses: responses}
}

// Forward records req.
func (r *RecordingForwarder) Forward(_ context.Context, req Request) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
	if v, ok := r.responses[req.Operation]; ok {
		return v, nil
	}
	return nil, ErrNotWired
}

// Requests returns a copy of the recorded requests.
func (r *RecordingForwarder) Requests() []Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Request, len(r.requests))
	copy(out, r.requests)
	return out
}

// Count returns how many times operation was forwarded.
func (r *RecordingForwarder) Count(operation string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, req := range r.requests {
		if req.Operation == operation {
			n++
		}
	}
	return n
}
