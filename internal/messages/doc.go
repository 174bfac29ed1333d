// Package messages holds the NATS contracts of the configuration service.
//
// Commands ask for something to happen and travel on the COMMAND stream;
// events report what happened and travel on the EVENT stream:
//
//   - ConfigReplaceCommand: replace the stored document (consumed by the
//     document service, so processes without HTTP access can push a document)
//   - ConfigReplacedEvent: the stored document was replaced
//   - EntryAddedEvent / EntryRemovedEvent: a collection entry was added or
//     removed from an editor session
//
// # Usage Example
//
//	evt := messages.NewConfigReplacedEvent("http", doc).
//	    WithCorrelation(requestID)
//
//	publisher := messages.NewPublisher(js)
//	if err := publisher.PublishEvent(ctx, evt); err != nil {
//	    slog.Warn("publish", "err", err)
//	}
//
// Editor streams subscribe to ConfigEventsPattern to tell open sessions that
// the document changed under them.
package messages
