package device

import (
	"context"
	"strconv"
	"time"
)

// Method is the operation a Command performs.
type Method string

const (
	MethodCreate Method = "create"
	MethodModify Method = "modify"
)

// Body is a JSON request body.
type Body map[string]any

// Command is one create or modify operation destined for the remote API.
type Command struct {
	Method Method `json:"method"`
	Path   string `json:"path"`
	Body   Body   `json:"body"`
}

func (c Command) String() string {
	return string(c.Method) + " " + c.Path + " (" + strconv.Itoa(len(c.Body)) + " fields)"
}

// QueryOptions are extra query parameters for CreateOrModify.
type QueryOptions struct {
	// Params is appended to the request URL.
	Params map[string]string
}

// RetryPolicy controls how CreateOrModify retries transient failures.
type RetryPolicy struct {
	// MaxTries is the total number of attempts. Zero means a single attempt.
	MaxTries uint
	// InitialInterval is the first backoff delay.
	InitialInterval time.Duration
	// MaxElapsed bounds the total time spent retrying. Zero means no bound.
	MaxElapsed time.Duration
}

// Client is the remote configuration API.
type Client interface {
	// Create creates a new object in the collection at path.
	Create(ctx context.Context, path string, body Body) error
	// Modify updates the object at path.
	Modify(ctx context.Context, path string, body Body) error
	// CreateOrModify creates the object or, if it already exists, modifies it.
	CreateOrModify(ctx context.Context, path string, body Body, opts *QueryOptions, retry *RetryPolicy) error
	// Transaction submits commands to be applied together.
	Transaction(ctx context.Context, commands []Command) error
}
