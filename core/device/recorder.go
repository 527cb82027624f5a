package device

import (
	"context"
	"sync"
)

// OperationKind names a recorded client call.
type OperationKind string

const (
	OpCreate         OperationKind = "create"
	OpModify         OperationKind = "modify"
	OpCreateOrModify OperationKind = "createOrModify"
	OpTransaction    OperationKind = "transaction"
)

// Operation is one call captured by a Recorder.
type Operation struct {
	Kind     OperationKind `json:"kind"`
	Path     string        `json:"path,omitempty"`
	Body     Body          `json:"body,omitempty"`
	Commands []Command     `json:"commands,omitempty"`
}

// Recorder is an in-memory Client that records every call. It is safe for
// concurrent use.
type Recorder struct {
	// Fail, when set, decides whether a call fails.
	Fail func(op Operation) error

	mu  sync.Mutex
	ops []Operation
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Create(ctx context.Context, path string, body Body) error {
	return r.record(Operation{Kind: OpCreate, Path: path, Body: body})
}

func (r *Recorder) Modify(ctx context.Context, path string, body Body) error {
	return r.record(Operation{Kind: OpModify, Path: path, Body: body})
}

func (r *Recorder) CreateOrModify(ctx context.Context, path string, body Body, opts *QueryOptions, retry *RetryPolicy) error {
	return r.record(Operation{Kind: OpCreateOrModify, Path: path, Body: body})
}

func (r *Recorder) Transaction(ctx context.Context, commands []Command) error {
	cp := make([]Command, len(commands))
	copy(cp, commands)
	return r.record(Operation{Kind: OpTransaction, Commands: cp})
}

// Operations returns the calls recorded so far, failed ones included.
func (r *Recorder) Operations() []Operation {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Operation, len(r.ops))
	copy(out, r.ops)
	return out
}

// Reset forgets all recorded calls.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.ops = nil
	r.mu.Unlock()
}

func (r *Recorder) record(op Operation) error {
	r.mu.Lock()
	r.ops = append(r.ops, op)
	fail := r.Fail
	r.mu.Unlock()
	if fail != nil {
		return fail(op)
	}
	return nil
}
