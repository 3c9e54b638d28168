package bot

import "context"

// Dispatcher consumes platform updates and routes them to handlers until the
// context is cancelled.
type Dispatcher interface {
	Run(ctx context.Context) error
}
