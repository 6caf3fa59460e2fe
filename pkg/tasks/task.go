package tasks

import "github.com/postfiat-dev/pft-go/pkg/memo"

// Task is the aggregate of all events sharing one task identifier, in
// ledger order.
type Task struct {
	// ID is the task identifier.
	ID string
	// Node is the counterparty account of the most recent event.
	Node string
	// Events is the ordered event list the task state derives from.
	Events []Event
}

// LatestKind returns the kind of the most recent event, which is the
// task's current lifecycle state.
func (t *Task) LatestKind() memo.Kind {
	if len(t.Events) == 0 {
		return memo.Unknown
	}
	return t.Events[len(t.Events)-1].Kind
}

// Has tells whether any event of the given kind was ever observed for
// the task.
func (t *Task) Has(k memo.Kind) bool {
	for i := range t.Events {
		if t.Events[i].Kind == k {
			return true
		}
	}
	return false
}

// terminalKinds are the kinds that close a task for acceptance or
// refusal once seen anywhere in its history. This is deliberately
// stricter than a last-state check: a later malformed event doesn't
// reopen the task.
var terminalKinds = []memo.Kind{
	memo.Refusal,
	memo.Acceptance,
	memo.VerificationResponse,
	memo.UserGenesis,
	memo.Reward,
}

// OpenForResponse tells whether the task may still be accepted or
// refused, i.e. whether none of the terminal kinds was ever observed.
func (t *Task) OpenForResponse() bool {
	for _, k := range terminalKinds {
		if t.Has(k) {
			return false
		}
	}
	return true
}

// ObservedKinds returns the distinct event kinds seen for the task, in
// first-observation order. It's what precondition failures report.
func (t *Task) ObservedKinds() []memo.Kind {
	var kinds []memo.Kind
	seen := make(map[memo.Kind]bool)
	for i := range t.Events {
		if k := t.Events[i].Kind; !seen[k] {
			seen[k] = true
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// first returns the earliest event of the given kind.
func (t *Task) first(k memo.Kind) (Event, bool) {
	for i := range t.Events {
		if t.Events[i].Kind == k {
			return t.Events[i], true
		}
	}
	return Event{}, false
}

// last returns the most recent event of the given kind.
func (t *Task) last(k memo.Kind) (Event, bool) {
	for i := len(t.Events) - 1; i >= 0; i-- {
		if t.Events[i].Kind == k {
			return t.Events[i], true
		}
	}
	return Event{}, false
}

// Proposal returns the original proposal payload, marker included.
func (t *Task) Proposal() string {
	ev, _ := t.first(memo.Proposal)
	return ev.Payload
}

// clone returns a copy of the task sharing no mutable state with the
// original.
func (t *Task) clone() *Task {
	c := *t
	c.Events = make([]Event, len(t.Events), len(t.Events)+1)
	copy(c.Events, t.Events)
	return &c
}
