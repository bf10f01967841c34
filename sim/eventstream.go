// sim/eventstream.go
// Copyright(c) 2025 zephyr contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/zephyrsim/zephyr/log"
	"github.com/zephyrsim/zephyr/math"
)

// EventStream provides a basic pub/sub event interface: missions post
// events as they happen and any number of subscribers, e.g. the CLI's
// progress reporter, consume them at their own pace.
type EventStream struct {
	mu            sync.Mutex
	events        []Event
	subscriptions map[*EventsSubscription]any
	lg            *log.Logger
}

type EventsSubscription struct {
	stream *EventStream
	// offset is offset in the EventStream stream array up to which the
	// subscriber has consumed events so far.
	offset int
}

func NewEventStream(lg *log.Logger) *EventStream {
	return &EventStream{
		subscriptions: make(map[*EventsSubscription]any),
		lg:            lg,
	}
}

// Subscribe registers a new subscriber to the stream. Only events posted
// after the call are reported to it.
func (e *EventStream) Subscribe() *EventsSubscription {
	e.mu.Lock()
	defer e.mu.Unlock()

	sub := &EventsSubscription{
		stream: e,
		offset: len(e.events),
	}
	e.subscriptions[sub] = nil
	return sub
}

// Unsubscribe removes a subscriber from the subscriber list
func (s *EventsSubscription) Unsubscribe() {
	s.stream.mu.Lock()
	defer s.stream.mu.Unlock()

	if _, ok := s.stream.subscriptions[s]; !ok {
		s.stream.lg.Errorf("Attempted to unsubscribe invalid subscription: %+v", s)
	}
	delete(s.stream.subscriptions, s)
	s.stream.compact()
	s.stream = nil
}

// Post adds an event to the event stream.
func (e *EventStream) Post(event Event) {
	if e == nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.lg.Debug("posted event", slog.Any("event", event))

	// Ignore the event if no one's paying attention.
	if len(e.subscriptions) > 0 {
		e.events = append(e.events, event)
	}
}

// Get returns all of the events from the stream since the last time Get
// was called for the subscription.
func (s *EventsSubscription) Get() []Event {
	s.stream.mu.Lock()
	defer s.stream.mu.Unlock()

	if _, ok := s.stream.subscriptions[s]; !ok {
		s.stream.lg.Errorf("Attempted to get with unregistered subscription: %+v", s)
		return nil
	}

	events := slices.Clone(s.stream.events[s.offset:])
	s.offset = len(s.stream.events)
	s.stream.compact()

	return events
}

// compact reclaims storage for events that all subscribers have seen so
// that EventStream memory usage doesn't grow without bound.
func (e *EventStream) compact() {
	minOffset := len(e.events)
	for sub := range e.subscriptions {
		minOffset = min(minOffset, sub.offset)
	}

	if minOffset > cap(e.events)/2 {
		n := len(e.events) - minOffset

		copy(e.events, e.events[minOffset:])
		e.events = e.events[:n]

		for sub := range e.subscriptions {
			sub.offset -= minOffset
		}
	}
}

// implements slog.LogValuer
func (e *EventStream) LogValue() slog.Value {
	e.mu.Lock()
	defer e.mu.Unlock()

	items := []slog.Attr{slog.Int("len", len(e.events)), slog.Int("cap", cap(e.events)),
		slog.Int("subscriptions", len(e.subscriptions))}
	if len(e.events) > 0 {
		items = append(items, slog.Any("last_element", e.events[len(e.events)-1]))
	}
	return slog.GroupValue(items...)
}

///////////////////////////////////////////////////////////////////////////

type EventType int

const (
	WaypointReachedEvent EventType = iota
	MissionCompleteEvent
	MissionTimeoutEvent
	GustFrontEvent
	MicroburstEvent
	StatusEvent
	NumEventTypes
)

func (t EventType) String() string {
	return []string{"WaypointReached", "MissionComplete", "MissionTimeout", "GustFront",
		"Microburst", "Status"}[t]
}

type Event struct {
	Type     EventType
	Vehicle  string
	Zone     string
	Waypoint int
	Position math.Vec3
	Time     float64
	Message  string
}

func (e *Event) String() string {
	switch e.Type {
	case GustFrontEvent, MicroburstEvent:
		return fmt.Sprintf("%8.2fs %s: zone %q", e.Time, e.Type, e.Zone)
	default:
		return fmt.Sprintf("%8.2fs %s: vehicle %q waypoint %d at %s %s", e.Time, e.Type, e.Vehicle,
			e.Waypoint, e.Position, e.Message)
	}
}

func (e Event) LogValue() slog.Value {
	attrs := []slog.Attr{slog.String("type", e.Type.String()), slog.Float64("time", e.Time)}
	if e.Vehicle != "" {
		attrs = append(attrs, slog.String("vehicle", e.Vehicle), slog.Int("waypoint", e.Waypoint),
			slog.Any("position", e.Position))
	}
	if e.Zone != "" {
		attrs = append(attrs, slog.String("zone", e.Zone))
	}
	if e.Message != "" {
		attrs = append(attrs, slog.String("message", e.Message))
	}
	return slog.GroupValue(attrs...)
}
