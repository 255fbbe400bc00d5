package common

import "context"

// Service is a background worker of the router process.
// Run starts the worker and returns, the worker stops when ctx is done.
type Service interface {
	Name() string
	Run(ctx context.Context) error
}
