package input

import (
	"context"
)

type Plugin interface {
	Name() string
	// Start starts the plugin.
	// The plugin must call cancel when it runs into a fatal problem, so that the process can shut down.
	Start(handler Handler, cancel context.CancelFunc) error
	Stop() // Should block until shutdown is complete.
}
