package tasks

import (
	"strings"

	"github.com/postfiat-dev/pft-go/pkg/memo"
)

// rewardDisplayLimit caps the rewards view at the most recent entries
// for display purposes.
const rewardDisplayLimit = 15

// OutstandingTask is one row of the outstanding tasks view.
type OutstandingTask struct {
	ID       string
	Proposal string
	Response string
}

// Outstanding lists tasks whose most recent event is a proposal or an
// acceptance, i.e. work that is offered or underway.
func (s *Snapshot) Outstanding() []OutstandingTask {
	var out []OutstandingTask
	for _, id := range s.TaskIDs() {
		t := s.Tasks[id]
		k := t.LatestKind()
		if k != memo.Proposal && k != memo.Acceptance {
			continue
		}
		var response string
		if ev, ok := t.last(memo.Acceptance); ok {
			response = memo.StripMarker(ev.Payload, memo.AcceptanceMarker)
		}
		out = append(out, OutstandingTask{
			ID:       id,
			Proposal: memo.StripMarker(t.Proposal(), memo.ProposalMarker),
			Response: response,
		})
	}
	return out
}

// PendingVerification is one row of the pending verifications view.
type PendingVerification struct {
	ID       string
	Proposal string
	Prompt   string
}

// PendingVerifications lists tasks waiting for a verification response,
// i.e. those whose most recent event is a verification prompt.
func (s *Snapshot) PendingVerifications() []PendingVerification {
	var out []PendingVerification
	for _, id := range s.TaskIDs() {
		t := s.Tasks[id]
		if t.LatestKind() != memo.VerificationPrompt {
			continue
		}
		ev, _ := t.last(memo.VerificationPrompt)
		out = append(out, PendingVerification{
			ID:       id,
			Proposal: t.Proposal(),
			Prompt:   memo.StripMarker(ev.Payload, memo.VerificationPromptMarker),
		})
	}
	return out
}

// RewardEntry is one row of the rewards view. Payout is the signed token
// amount of the transaction carrying the reward, positive if incoming.
type RewardEntry struct {
	ID       string
	Proposal string
	Reward   string
	Payout   float64
}

// Rewards lists tasks that have both a proposal and a reward, capped at
// the most recent entries.
func (s *Snapshot) Rewards() []RewardEntry {
	var out []RewardEntry
	for _, id := range s.TaskIDs() {
		t := s.Tasks[id]
		if !t.Has(memo.Proposal) || !t.Has(memo.Reward) {
			continue
		}
		ev, _ := t.last(memo.Reward)
		out = append(out, RewardEntry{
			ID:       id,
			Proposal: t.Proposal(),
			Reward:   memo.StripMarker(ev.Payload, memo.RewardMarker),
			Payout:   ev.TokenAmount,
		})
	}
	if len(out) > rewardDisplayLimit {
		out = out[len(out)-rewardDisplayLimit:]
	}
	return out
}

// GenesisSent tells whether a genesis handshake was already sent to the
// given node.
func (s *Snapshot) GenesisSent(node string) bool {
	for i := range s.Memos {
		ev := &s.Memos[i]
		if ev.Direction == Outgoing && ev.Counterparty == node &&
			strings.Contains(ev.Payload, memo.UserGenesisMarker) {
			return true
		}
	}
	return false
}

// LatestContextLink returns the most recent context document link sent
// to the given node, empty when none was sent.
func (s *Snapshot) LatestContextLink(node string) string {
	for i := len(s.Memos) - 1; i >= 0; i-- {
		ev := &s.Memos[i]
		if ev.Direction == Outgoing && ev.Counterparty == node &&
			ev.TaskID == memo.ContextDocType && ev.IsToken {
			return ev.Payload
		}
	}
	return ""
}

// Pomodoros groups pomodoro log events by their parent task identifier.
func (s *Snapshot) Pomodoros() map[string][]Event {
	out := make(map[string][]Event)
	for i := range s.Memos {
		ev := s.Memos[i]
		d := memo.Decoded{TaskID: ev.TaskID}
		if !d.IsPomodoro() {
			continue
		}
		parent := d.ParentTaskID()
		out[parent] = append(out[parent], ev)
	}
	return out
}

// Summary is the key account information the wallet front page shows.
type Summary struct {
	GenesisUser    string
	ContextDoc     string
	LatestIncoming *Event
	LatestOutgoing *Event
}

// AccountSummary compiles the summary for the relationship with the
// given node.
func (s *Snapshot) AccountSummary(node string) Summary {
	var sum Summary
	for i := range s.Memos {
		ev := s.Memos[i]
		if sum.GenesisUser == "" && strings.Contains(ev.Payload, memo.UserGenesisMarker) {
			if idx := strings.LastIndex(ev.Payload, "user:"); idx >= 0 {
				sum.GenesisUser = strings.TrimSpace(ev.Payload[idx+len("user:"):])
			}
		}
		if sum.ContextDoc == "" && ev.TaskID == memo.ContextDocType {
			sum.ContextDoc = ev.Payload
		}
		if ev.Counterparty == node {
			evCopy := ev
			if ev.Direction == Incoming {
				sum.LatestIncoming = &evCopy
			} else {
				sum.LatestOutgoing = &evCopy
			}
		}
	}
	return sum
}
