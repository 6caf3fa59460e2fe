/*
Package taskmgr submits task protocol actions to the ledger. Every
action validates the task's lifecycle state against the reduced state
first and only then constructs a memo and pays the fixed 1-token stake
to the counterparty; a failed precondition never reaches the network.
*/
package taskmgr

import (
	"fmt"
	"strings"

	"github.com/postfiat-dev/pft-go/pkg/ledger"
	"github.com/postfiat-dev/pft-go/pkg/memo"
	"github.com/postfiat-dev/pft-go/pkg/pftrpc/result"
	"github.com/postfiat-dev/pft-go/pkg/tasks"
	"go.uber.org/zap"
)

// actionStake is the token amount every protocol action carries.
const actionStake = "1"

// Submitter is the ledger write capability the dispatcher consumes.
// It's satisfied by rpcclient.Client.
type Submitter interface {
	SubmitPayment(p ledger.Payment) (*result.Submit, error)
	SubmitTrustSet(ts ledger.TrustSet) (*result.Submit, error)
	AccountLines(account, peer string) (*result.AccountLines, error)
}

// StateSource provides the last completed task state snapshot. It's
// satisfied by syncmgr.Manager.
type StateSource interface {
	State() *tasks.Snapshot
}

// Config holds the dispatcher settings.
type Config struct {
	// Account is the local account actions are paid from.
	Account string
	// User is the actor name carried in memo format fields.
	User string
	// Node is the default counterparty for node-directed actions.
	Node string
	// TokenCurrency and TokenIssuer identify the protocol token.
	TokenCurrency string
	TokenIssuer   string
	// TrustLimit is the trust line limit requested by EnsureTrustLine.
	TrustLimit string
	// Log defaults to zap.NewNop when unset.
	Log *zap.Logger
}

// Receipt is the outcome of a successfully submitted action. Hashes
// lists one transaction per memo chunk, oversized payloads are split
// across several payments.
type Receipt struct {
	TaskID string
	Hashes []string
}

// Dispatcher validates and submits task protocol actions.
type Dispatcher struct {
	Config

	log    *zap.Logger
	client Submitter
	state  StateSource
}

// New returns a Dispatcher over the given ledger gateway and state
// source.
func New(cfg Config, client Submitter, state StateSource) (*Dispatcher, error) {
	if client == nil || state == nil {
		return nil, fmt.Errorf("nil dispatcher dependency")
	}
	if cfg.TrustLimit == "" {
		cfg.TrustLimit = "100000000"
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	return &Dispatcher{Config: cfg, log: cfg.Log, client: client, state: state}, nil
}

// Accept commits to an outstanding proposal. Rejected when any
// closing event was ever observed for the task.
func (d *Dispatcher) Accept(taskID, reason string) (*Receipt, error) {
	t, err := d.openTask(taskID)
	if err != nil {
		return nil, err
	}
	return d.sendTaskMemo(t.Node, taskID, withPrefix(memo.AcceptanceMarker, reason))
}

// Refuse declines an outstanding proposal. Preconditions are the same
// as for Accept plus a proposal event must exist.
func (d *Dispatcher) Refuse(taskID, reason string) (*Receipt, error) {
	t, err := d.openTask(taskID)
	if err != nil {
		return nil, err
	}
	if !t.Has(memo.Proposal) {
		return nil, &InvalidTransitionError{TaskID: taskID, Current: t.LatestKind(), Observed: t.ObservedKinds()}
	}
	return d.sendTaskMemo(t.Node, taskID, withPrefix(memo.RefusalMarker, reason))
}

// Complete submits the task for verification. The task's most recent
// event must be the acceptance.
func (d *Dispatcher) Complete(taskID, justification string) (*Receipt, error) {
	t, err := d.taskInState(taskID, memo.Acceptance)
	if err != nil {
		return nil, err
	}
	return d.sendTaskMemo(t.Node, taskID, withPrefix(memo.TaskOutputMarker, justification))
}

// RespondVerification answers an open verification prompt.
func (d *Dispatcher) RespondVerification(taskID, response string) (*Receipt, error) {
	t, err := d.taskInState(taskID, memo.VerificationPrompt)
	if err != nil {
		return nil, err
	}
	return d.sendTaskMemo(t.Node, taskID, withPrefix(memo.VerificationResponseMarker, response))
}

// RequestTask asks the node for new work. Always allowed; a fresh task
// identifier is generated when none is given.
func (d *Dispatcher) RequestTask(taskID, request string) (*Receipt, error) {
	if taskID == "" {
		taskID = memo.GenerateID()
	}
	return d.sendTaskMemo(d.Node, taskID, withPrefix(memo.RequestPostFiatMarker, request))
}

// SendGenesis performs the one-time handshake with the node. When a
// genesis transaction to the node was already observed, ErrGenesisSent
// is returned and nothing is submitted.
func (d *Dispatcher) SendGenesis() (*Receipt, error) {
	if d.state.State().GenesisSent(d.Node) {
		return nil, ErrGenesisSent
	}
	payload := memo.UserGenesisMarker + " user: " + d.User
	return d.sendTaskMemo(d.Node, memo.GenerateID(), payload)
}

// SendContextDoc publishes the link to the account's context document.
func (d *Dispatcher) SendContextDoc(link string) (*Receipt, error) {
	return d.sendTaskMemo(d.Node, memo.ContextDocType, link)
}

// LogPomodoro attaches a work log entry to the given task. The entry is
// keyed by the task identifier with "==" in place of "__" so it
// aggregates under its own stream.
func (d *Dispatcher) LogPomodoro(taskID, note string) (*Receipt, error) {
	if _, ok := d.state.State().Task(taskID); !ok {
		return nil, ErrNoTask
	}
	pomoID := strings.ReplaceAll(taskID, "__", "==")
	return d.sendTaskMemo(d.Node, pomoID, note)
}

// EnsureTrustLine establishes the token trust line when the account
// doesn't hold one yet. Establishing it is a prerequisite for any token
// transfer.
func (d *Dispatcher) EnsureTrustLine() error {
	lines, err := d.client.AccountLines(d.Account, d.TokenIssuer)
	if err != nil {
		return fmt.Errorf("checking trust lines: %w", err)
	}
	for _, l := range lines.Lines {
		if l.Currency == d.TokenCurrency {
			return nil
		}
	}
	ts := ledger.NewTrustSet(d.Account, ledger.Amount{
		Currency: d.TokenCurrency,
		Issuer:   d.TokenIssuer,
		Value:    d.TrustLimit,
	})
	res, err := d.client.SubmitTrustSet(ts)
	if err != nil {
		return &SubmissionError{Err: err}
	}
	if !res.Accepted {
		return &SubmissionError{EngineResult: res.EngineResult, Message: res.EngineResultMessage}
	}
	d.log.Info("trust line established", zap.String("currency", d.TokenCurrency))
	return nil
}

// openTask returns the task if it is still open for acceptance or
// refusal under the "any closing marker ever seen" rule.
func (d *Dispatcher) openTask(taskID string) (*tasks.Task, error) {
	t, ok := d.state.State().Task(taskID)
	if !ok {
		return nil, ErrNoTask
	}
	if !t.OpenForResponse() {
		return nil, &InvalidTransitionError{TaskID: taskID, Current: t.LatestKind(), Observed: t.ObservedKinds()}
	}
	return t, nil
}

// taskInState returns the task if its most recent event has the wanted
// kind.
func (d *Dispatcher) taskInState(taskID string, want memo.Kind) (*tasks.Task, error) {
	t, ok := d.state.State().Task(taskID)
	if !ok {
		return nil, ErrNoTask
	}
	if t.LatestKind() != want {
		return nil, &InvalidTransitionError{TaskID: taskID, Current: t.LatestKind(), Observed: t.ObservedKinds()}
	}
	return t, nil
}

// sendTaskMemo submits the payload as one or more 1-token payments to
// the destination. Oversized payloads are chunked, each part going out
// as its own payment.
func (d *Dispatcher) sendTaskMemo(dest, taskID, payload string) (*Receipt, error) {
	if dest == "" {
		dest = d.Node
	}
	stake := ledger.Amount{Currency: d.TokenCurrency, Issuer: d.TokenIssuer, Value: actionStake}

	var memos []ledger.Memo
	if memo.NeedsChunking(payload) {
		memos = memo.Chunk(payload)
	} else {
		memos = []ledger.Memo{memo.Encode(d.User, taskID, payload)}
	}

	rcpt := &Receipt{TaskID: taskID, Hashes: make([]string, 0, len(memos))}
	for _, mm := range memos {
		res, err := d.client.SubmitPayment(ledger.NewPayment(d.Account, dest, stake, mm))
		if err != nil {
			return rcpt, &SubmissionError{Err: err}
		}
		if !res.Accepted {
			return rcpt, &SubmissionError{EngineResult: res.EngineResult, Message: res.EngineResultMessage}
		}
		rcpt.Hashes = append(rcpt.Hashes, res.Hash)
	}
	d.log.Info("action submitted",
		zap.String("task", taskID),
		zap.Int("parts", len(rcpt.Hashes)))
	return rcpt, nil
}

// withPrefix prepends the protocol marker unless the text already
// carries it.
func withPrefix(marker, text string) string {
	if strings.Contains(text, marker) {
		return text
	}
	return marker + " " + text
}
