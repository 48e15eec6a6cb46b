/*
Package events provides an in-memory event broker for Burrow's pub/sub messaging.

The Broker broadcasts cluster events to every subscriber. Publish hands the
event to a buffered channel (100 events) and a single distribution loop
copies it into each subscriber's own buffered channel (50 events). A
subscriber whose buffer is full misses the event; publishers never block on
slow subscribers.

Event types:

	assignment.created, assignment.updated, assignment.deleted
	node.registered, node.updated, node.removed
	stats.partial   a stats request completed with node or task failures

The manager publishes assignment and node events from its write paths. The
manager's metrics collector subscribes and refreshes its gauges when one
arrives instead of waiting for the next tick.

# Usage

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	go func() {
		for event := range sub {
			log.Info().Str("type", string(event.Type)).Msg(event.Message)
		}
	}()

	broker.Publish(events.NewEvent(events.EventAssignmentCreated,
		"assignment created", map[string]string{"model_id": "elser"}))

Events are not persisted and are lost on restart.
*/
package events
