package events

import "slices"

// EventCollector buffers the events an aggregate raises until they are
// saved or published. The zero value is ready to use; embed it by value.
type EventCollector struct {
	pending []DomainEvent
}

// Record buffers evts in order.
func (c *EventCollector) Record(evts ...DomainEvent) {
	c.pending = append(c.pending, evts...)
}

// Events returns a copy of the buffered events.
func (c *EventCollector) Events() []DomainEvent {
	return slices.Clone(c.pending)
}

// ClearEvents returns the buffered events and empties the buffer.
func (c *EventCollector) ClearEvents() []DomainEvent {
	drained := c.pending
	c.pending = nil
	return drained
}
