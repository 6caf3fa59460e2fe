package taskmgr

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/postfiat-dev/pft-go/pkg/ledger"
	"github.com/postfiat-dev/pft-go/pkg/memo"
	"github.com/postfiat-dev/pft-go/pkg/pftrpc/result"
	"github.com/postfiat-dev/pft-go/pkg/tasks"
	"github.com/stretchr/testify/require"
)

const (
	testAccount = "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh"
	testNode    = "r4yc85M1hwsegVGZ1pawpZPwj65SVs8PzD"
	testIssuer  = "rnQUEEg8yyjrwk9FhyXpKavHyCRJM9BDMW"
	testTaskID  = "2024-05-14_19:10__ME26"
)

type fakeGateway struct {
	payments  []ledger.Payment
	trustSets []ledger.TrustSet
	lines     []result.TrustLine
	reject    string
	fail      error
}

func (g *fakeGateway) SubmitPayment(p ledger.Payment) (*result.Submit, error) {
	if g.fail != nil {
		return nil, g.fail
	}
	if g.reject != "" {
		return &result.Submit{EngineResult: g.reject}, nil
	}
	g.payments = append(g.payments, p)
	return &result.Submit{
		EngineResult: "tesSUCCESS",
		Accepted:     true,
		Hash:         fmt.Sprintf("H%d", len(g.payments)),
	}, nil
}

func (g *fakeGateway) SubmitTrustSet(ts ledger.TrustSet) (*result.Submit, error) {
	if g.fail != nil {
		return nil, g.fail
	}
	g.trustSets = append(g.trustSets, ts)
	return &result.Submit{EngineResult: "tesSUCCESS", Accepted: true, Hash: "HTS"}, nil
}

func (g *fakeGateway) AccountLines(account, peer string) (*result.AccountLines, error) {
	return &result.AccountLines{Account: account, Lines: g.lines}, nil
}

type fixedState struct{ snap *tasks.Snapshot }

func (s fixedState) State() *tasks.Snapshot { return s.snap }

func stateWith(kinds ...string) StateSource {
	events := make([]tasks.Event, len(kinds))
	for i, payload := range kinds {
		dir := tasks.Incoming
		if i%2 == 1 {
			dir = tasks.Outgoing
		}
		events[i] = tasks.Event{
			Hash:         fmt.Sprintf("E%d", i),
			LedgerIndex:  uint32(i + 1),
			Direction:    dir,
			Counterparty: testNode,
			TaskID:       testTaskID,
			Payload:      payload,
			Kind:         memo.Classify(payload),
			TaskBearing:  true,
		}
	}
	return fixedState{snap: tasks.Reduce(events)}
}

func newDispatcher(t *testing.T, g *fakeGateway, state StateSource) *Dispatcher {
	t.Helper()
	d, err := New(Config{
		Account:       testAccount,
		User:          "tester",
		Node:          testNode,
		TokenCurrency: "PFT",
		TokenIssuer:   testIssuer,
	}, g, state)
	require.NoError(t, err)
	return d
}

func decodedPayload(t *testing.T, p ledger.Payment) memo.Decoded {
	t.Helper()
	require.Len(t, p.Memos, 1)
	return memo.Decode(p.Memos[0].Memo)
}

func TestAccept(t *testing.T) {
	g := &fakeGateway{}
	d := newDispatcher(t, g, stateWith("PROPOSED PF ___ do the thing"))

	rcpt, err := d.Accept(testTaskID, "sounds good")
	require.NoError(t, err)
	require.Equal(t, []string{"H1"}, rcpt.Hashes)

	require.Len(t, g.payments, 1)
	p := g.payments[0]
	require.Equal(t, testAccount, p.Account)
	require.Equal(t, testNode, p.Destination)
	require.Equal(t, "PFT", p.Amount.Currency)
	require.Equal(t, "1", p.Amount.Value)

	dec := decodedPayload(t, p)
	require.Equal(t, "tester", dec.User)
	require.Equal(t, testTaskID, dec.TaskID)
	require.Equal(t, "ACCEPTANCE REASON ___ sounds good", dec.Data)
}

func TestAcceptTwiceIsInvalid(t *testing.T) {
	g := &fakeGateway{}
	d := newDispatcher(t, g, stateWith(
		"PROPOSED PF ___ do the thing",
		"ACCEPTANCE REASON ___ on it",
	))

	_, err := d.Accept(testTaskID, "again")
	var ite *InvalidTransitionError
	require.ErrorAs(t, err, &ite)
	require.Equal(t, memo.Acceptance, ite.Current)
	require.Equal(t, []memo.Kind{memo.Proposal, memo.Acceptance}, ite.Observed)
	require.Empty(t, g.payments)
}

func TestAcceptUnknownTask(t *testing.T) {
	d := newDispatcher(t, &fakeGateway{}, stateWith())
	_, err := d.Accept(testTaskID, "hello")
	require.ErrorIs(t, err, ErrNoTask)
}

func TestRefuse(t *testing.T) {
	g := &fakeGateway{}
	d := newDispatcher(t, g, stateWith("PROPOSED PF ___ do the thing"))

	_, err := d.Refuse(testTaskID, "no capacity")
	require.NoError(t, err)
	dec := decodedPayload(t, g.payments[0])
	require.Equal(t, "REFUSAL REASON ___ no capacity", dec.Data)
}

func TestPrefixNotDoubled(t *testing.T) {
	g := &fakeGateway{}
	d := newDispatcher(t, g, stateWith("PROPOSED PF ___ do the thing"))

	_, err := d.Accept(testTaskID, "ACCEPTANCE REASON ___ already prefixed")
	require.NoError(t, err)
	dec := decodedPayload(t, g.payments[0])
	require.Equal(t, "ACCEPTANCE REASON ___ already prefixed", dec.Data)
}

func TestCompleteRequiresAcceptance(t *testing.T) {
	g := &fakeGateway{}
	d := newDispatcher(t, g, stateWith("PROPOSED PF ___ do the thing"))

	_, err := d.Complete(testTaskID, "done")
	var ite *InvalidTransitionError
	require.ErrorAs(t, err, &ite)
	require.Equal(t, memo.Proposal, ite.Current)

	d = newDispatcher(t, g, stateWith(
		"PROPOSED PF ___ do the thing",
		"ACCEPTANCE REASON ___ on it",
	))
	_, err = d.Complete(testTaskID, "done")
	require.NoError(t, err)
	dec := decodedPayload(t, g.payments[0])
	require.Equal(t, "COMPLETION JUSTIFICATION ___ done", dec.Data)
}

func TestRespondVerification(t *testing.T) {
	g := &fakeGateway{}
	d := newDispatcher(t, g, stateWith(
		"PROPOSED PF ___ do the thing",
		"ACCEPTANCE REASON ___ on it",
		"VERIFICATION PROMPT ___ prove it",
	))

	_, err := d.RespondVerification(testTaskID, "here is proof")
	require.NoError(t, err)
	dec := decodedPayload(t, g.payments[0])
	require.Equal(t, "VERIFICATION RESPONSE ___ here is proof", dec.Data)
}

func TestRequestTaskGeneratesID(t *testing.T) {
	g := &fakeGateway{}
	d := newDispatcher(t, g, stateWith())

	rcpt, err := d.RequestTask("", "something to do")
	require.NoError(t, err)
	require.Regexp(t, `^\d{4}-\d{2}-\d{2}_\d{2}:\d{2}__[A-Z]{2}\d{2}$`, rcpt.TaskID)
	dec := decodedPayload(t, g.payments[0])
	require.Equal(t, rcpt.TaskID, dec.TaskID)
	require.True(t, strings.HasPrefix(dec.Data, memo.RequestPostFiatMarker))
}

func TestSendGenesisOnce(t *testing.T) {
	g := &fakeGateway{}
	d := newDispatcher(t, g, stateWith())

	_, err := d.SendGenesis()
	require.NoError(t, err)
	dec := decodedPayload(t, g.payments[0])
	require.Equal(t, "USER GENESIS __ user: tester", dec.Data)

	// A state that already shows a genesis event blocks a second one.
	sent := fixedState{snap: tasks.Reduce([]tasks.Event{{
		Hash:         "HGEN",
		LedgerIndex:  1,
		Direction:    tasks.Outgoing,
		Counterparty: testNode,
		Payload:      "USER GENESIS __ user: tester",
		Kind:         memo.UserGenesis,
	}})}
	d = newDispatcher(t, g, sent)
	_, err = d.SendGenesis()
	require.ErrorIs(t, err, ErrGenesisSent)
	require.Len(t, g.payments, 1)
}

func TestChunkedSend(t *testing.T) {
	g := &fakeGateway{}
	d := newDispatcher(t, g, stateWith(
		"PROPOSED PF ___ do the thing",
		"ACCEPTANCE REASON ___ on it",
	))

	big := strings.Repeat("x", 3000)
	rcpt, err := d.Complete(testTaskID, big)
	require.NoError(t, err)
	require.Len(t, rcpt.Hashes, 2)
	require.Len(t, g.payments, 2)

	var joined string
	for i, p := range g.payments {
		require.Len(t, p.Memos, 1)
		m := p.Memos[0].Memo
		tag, err := hex.DecodeString(m.Type)
		require.NoError(t, err)
		require.Equal(t, fmt.Sprintf("part_%d_of_2", i+1), string(tag))
		joined += m.Data
	}
	raw, err := hex.DecodeString(joined)
	require.NoError(t, err)
	require.Equal(t, "COMPLETION JUSTIFICATION ___ "+big, string(raw))
}

func TestSubmissionFailureSurfaced(t *testing.T) {
	boom := errors.New("gateway timeout")
	d := newDispatcher(t, &fakeGateway{fail: boom}, stateWith("PROPOSED PF ___ work"))

	_, err := d.Accept(testTaskID, "ok")
	var se *SubmissionError
	require.ErrorAs(t, err, &se)
	require.ErrorIs(t, err, boom)

	d = newDispatcher(t, &fakeGateway{reject: "tecPATH_DRY"}, stateWith("PROPOSED PF ___ work"))
	_, err = d.Accept(testTaskID, "ok")
	require.ErrorAs(t, err, &se)
	require.Equal(t, "tecPATH_DRY", se.EngineResult)
}

func TestEnsureTrustLine(t *testing.T) {
	g := &fakeGateway{}
	d := newDispatcher(t, g, stateWith())

	require.NoError(t, d.EnsureTrustLine())
	require.Len(t, g.trustSets, 1)
	ts := g.trustSets[0]
	require.Equal(t, "TrustSet", ts.TransactionType)
	require.Equal(t, "PFT", ts.LimitAmount.Currency)
	require.Equal(t, testIssuer, ts.LimitAmount.Issuer)

	// An existing line makes it a no-op.
	g2 := &fakeGateway{lines: []result.TrustLine{{Currency: "PFT", Balance: "10"}}}
	d = newDispatcher(t, g2, stateWith())
	require.NoError(t, d.EnsureTrustLine())
	require.Empty(t, g2.trustSets)
}

func TestSendContextDoc(t *testing.T) {
	g := &fakeGateway{}
	d := newDispatcher(t, g, stateWith())

	_, err := d.SendContextDoc("https://docs.example.org/d/abc")
	require.NoError(t, err)
	dec := decodedPayload(t, g.payments[0])
	require.Equal(t, memo.ContextDocType, dec.TaskID)
	require.Equal(t, "https://docs.example.org/d/abc", dec.Data)
}

func TestLogPomodoro(t *testing.T) {
	g := &fakeGateway{}
	d := newDispatcher(t, g, stateWith("PROPOSED PF ___ do the thing"))

	_, err := d.LogPomodoro(testTaskID, "25 mins on the parser")
	require.NoError(t, err)
	dec := decodedPayload(t, g.payments[0])
	require.Equal(t, "2024-05-14_19:10==ME26", dec.TaskID)

	_, err = d.LogPomodoro("2024-01-01_00:00__XX00", "orphan")
	require.ErrorIs(t, err, ErrNoTask)
}

func TestStatusLine(t *testing.T) {
	s := stateWith("PROPOSED PF ___ do the thing").State()
	line := StatusLine(s, testNode)
	require.Contains(t, line, "1 tasks")
	require.Contains(t, line, "1 outstanding")
	require.Contains(t, line, "(no genesis)")
}
