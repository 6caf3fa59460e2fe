package tasks

import (
	"sort"
)

// Snapshot is an immutable view over all events reduced so far.
// Consumers always see a fully formed snapshot, a Reducer never mutates
// one it has handed out.
type Snapshot struct {
	// Tasks maps task identifier to its aggregate. Only task-bearing
	// events are aggregated here.
	Tasks map[string]*Task
	// Memos is every decoded memo event in ledger order, including
	// non-task-bearing ones (handshakes, context links, plain notes).
	Memos []Event
}

// NewSnapshot returns an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{Tasks: make(map[string]*Task)}
}

// Task returns the aggregate for the given identifier.
func (s *Snapshot) Task(id string) (*Task, bool) {
	t, ok := s.Tasks[id]
	return t, ok
}

// TaskIDs returns all known task identifiers sorted ascending. Protocol
// identifiers start with a timestamp, so this order is chronological.
func (s *Snapshot) TaskIDs() []string {
	ids := make([]string, 0, len(s.Tasks))
	for id := range s.Tasks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Reducer incrementally folds event batches into snapshots. It is not
// safe for concurrent use, the snapshots it produces are.
type Reducer struct {
	snap *Snapshot
}

// NewReducer returns a Reducer with an empty snapshot.
func NewReducer() *Reducer {
	return &Reducer{snap: NewSnapshot()}
}

// Snapshot returns the current snapshot.
func (r *Reducer) Snapshot() *Snapshot {
	return r.snap
}

// Append folds a batch of new events into the state and returns the
// resulting snapshot. The previous snapshot stays valid and unchanged.
// Events are sorted by ledger index before folding; reducing the same
// ordered events always yields the same state.
func (r *Reducer) Append(events []Event) *Snapshot {
	if len(events) == 0 {
		return r.snap
	}
	batch := make([]Event, len(events))
	copy(batch, events)
	sort.SliceStable(batch, func(i, j int) bool {
		return batch[i].LedgerIndex < batch[j].LedgerIndex
	})

	next := &Snapshot{
		Tasks: make(map[string]*Task, len(r.snap.Tasks)),
		Memos: append(r.snap.Memos[:len(r.snap.Memos):len(r.snap.Memos)], batch...),
	}
	for id, t := range r.snap.Tasks {
		next.Tasks[id] = t
	}

	// Tasks touched by this batch are cloned once so that aggregates
	// referenced from the previous snapshot stay intact.
	touched := make(map[string]bool)
	for i := range batch {
		ev := batch[i]
		if !ev.TaskBearing || ev.TaskID == "" {
			continue
		}
		t, ok := next.Tasks[ev.TaskID]
		if !ok {
			t = &Task{ID: ev.TaskID}
			next.Tasks[ev.TaskID] = t
			touched[ev.TaskID] = true
		} else if !touched[ev.TaskID] {
			t = t.clone()
			next.Tasks[ev.TaskID] = t
			touched[ev.TaskID] = true
		} else {
			t = next.Tasks[ev.TaskID]
		}
		t.Events = append(t.Events, ev)
		t.Node = ev.Counterparty
	}

	r.snap = next
	return next
}

// Reduce is a convenience constructing the state of a single ordered
// event list from scratch.
func Reduce(events []Event) *Snapshot {
	r := NewReducer()
	return r.Append(events)
}
