package events

import (
	"errors"
	"testing"
)

func TestInMemoryEventStore_AppendAssignsVersions(t *testing.T) {
	store := NewInMemoryEventStore()
	stream := StreamFor("Copper", "Chile")

	for i := 0; i < 3; i++ {
		if err := store.AppendEvent(stream, NewEvent(PlanCreatedEvent, stream, i)); err != nil {
			t.Fatalf("AppendEvent failed: %v", err)
		}
	}
	if err := store.AppendEvent("PVC:India", NewEvent(RiskAssessedEvent, "PVC:India", nil)); err != nil {
		t.Fatalf("AppendEvent failed: %v", err)
	}

	events, _ := store.ReadEvents(stream, 2)
	if len(events) != 2 {
		t.Fatalf("Expected 2 events from version 2, got %d", len(events))
	}
	if events[0].Version() != 2 || events[1].Version() != 3 {
		t.Errorf("Expected versions 2 and 3, got %d and %d", events[0].Version(), events[1].Version())
	}

	all, _ := store.ReadAllEvents(0)
	if len(all) != 4 {
		t.Errorf("Expected 4 events overall, got %d", len(all))
	}
	if empty, _ := store.ReadEvents("unknown", 1); len(empty) != 0 {
		t.Errorf("Expected no events for unknown stream, got %d", len(empty))
	}
}

func TestInMemoryEventStore_SubscribersByType(t *testing.T) {
	store := NewInMemoryEventStore()

	var decisions, failures int
	decisionHandler := &HandlerFunc{Types: []string{DecisionIssuedEvent}, Fn: func(Event) error {
		decisions++
		return nil
	}}
	failureHandler := &HandlerFunc{Types: []string{PlanningFailedEvent}, Fn: func(Event) error {
		failures++
		return errors.New("handler errors are logged, not returned")
	}}

	_ = store.Subscribe([]string{DecisionIssuedEvent}, decisionHandler)
	_ = store.Subscribe([]string{PlanningFailedEvent}, failureHandler)

	_ = store.AppendEvent("s", NewEvent(DecisionIssuedEvent, "s", nil))
	_ = store.AppendEvent("s", NewEvent(DecisionIssuedEvent, "s", nil))
	if err := store.AppendEvent("s", NewEvent(PlanningFailedEvent, "s", nil)); err != nil {
		t.Errorf("Expected handler failure not to fail the append, got %v", err)
	}

	if decisions != 2 || failures != 1 {
		t.Errorf("Expected 2 decisions and 1 failure, got %d and %d", decisions, failures)
	}

	_ = store.Unsubscribe(decisionHandler)
	_ = store.AppendEvent("s", NewEvent(DecisionIssuedEvent, "s", nil))
	if decisions != 2 {
		t.Errorf("Expected unsubscribed handler to stay silent, got %d calls", decisions)
	}
}

type valueHandler struct {
	fn func(Event) error
}

func (h valueHandler) Handle(event Event) error         { return h.fn(event) }
func (h valueHandler) CanHandle(eventType string) bool { return true }

func TestInMemoryEventStore_UnsubscribeNonComparableHandler(t *testing.T) {
	store := NewInMemoryEventStore()

	calls := 0
	handler := valueHandler{fn: func(Event) error {
		calls++
		return nil
	}}
	_ = store.Subscribe([]string{DecisionIssuedEvent}, handler)

	if err := store.Unsubscribe(handler); err == nil {
		t.Error("Expected error for a handler that cannot be compared")
	}
	if err := store.Unsubscribe(nil); err == nil {
		t.Error("Expected error for a nil handler")
	}

	_ = store.AppendEvent("s", NewEvent(DecisionIssuedEvent, "s", nil))
	if calls != 1 {
		t.Errorf("Expected handler to stay subscribed, got %d calls", calls)
	}
}
