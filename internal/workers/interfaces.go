// Package workers runs the engine's background components as one unit.
// It defines the Worker interface and a Workers aggregate that starts them
// in order and stops them in reverse.
package workers

import "context"

// Worker is a background component with a start/stop lifecycle: the
// connectivity monitor, the sync coordinator, the live channel and the
// periodic sync job.
//
// Start must not block; it launches the worker's goroutines bound to ctx.
// Stop ends them and waits for them to exit.
type Worker interface {
	Start(ctx context.Context) error
	Stop()
}
