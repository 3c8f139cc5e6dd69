// Package eventstream defines the processing events chartdex emits and
// the publisher contract for delivering them.
package eventstream

import "context"

// Publisher publishes document events to an event stream backend.
type Publisher interface {
	PublishDocument(ctx context.Context, event *DocumentProcessedEvent) error
	Close() error
}
