package graph

import (
	"context"
	"errors"
	"time"
)

// Client is the narrow contract the fraud graph stores need from a Cypher
// speaking backend. Each call runs as one unit of work.
type Client interface {
	ExecuteWrite(ctx context.Context, cypher string, params map[string]any) (Result, error)
	ExecuteRead(ctx context.Context, cypher string, params map[string]any) (Result, error)
	VerifyConnectivity(ctx context.Context) error
	Close(ctx context.Context) error
}

// Result is a simplified representation of a query response.
type Result struct {
	Records []Record
}

// Single returns the first record, or nil when the query matched nothing.
func (r Result) Single() Record {
	if len(r.Records) == 0 {
		return nil
	}
	return r.Records[0]
}

// Record groups key-value pairs returned from the graph engine.
type Record map[string]any

// Options configures a graph client implementation.
type Options struct {
	URI            string
	Database       string
	Username       string
	Password       string
	MaxConnections int
	AcquireTimeout time.Duration
}

// ErrMissingURI indicates the graph URI is not provided.
var ErrMissingURI = errors.New("graph URI is required")
