/*
Package syncmgr keeps a durable local cache of one account's transaction
history in step with the ledger and folds the cached history into task
state snapshots. Sync calls are serialized, reads against the last
completed snapshot never block on a sync in progress.
*/
package syncmgr

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/postfiat-dev/pft-go/pkg/encoding/address"
	"github.com/postfiat-dev/pft-go/pkg/ledger"
	"github.com/postfiat-dev/pft-go/pkg/pftrpc"
	"github.com/postfiat-dev/pft-go/pkg/pftrpc/result"
	"github.com/postfiat-dev/pft-go/pkg/storage"
	"github.com/postfiat-dev/pft-go/pkg/tasks"
	"go.uber.org/zap"
)

// Fetcher is the history query capability the manager consumes. It's
// satisfied by rpcclient.Client.
type Fetcher interface {
	AccountTransactions(p pftrpc.AccountTxParams) (*result.AccountTx, error)
}

// Storage key layout.
var (
	keyLastIndex = []byte{0x00}
	txPrefix     = []byte{0x01}
)

const (
	defaultPageLimit     = 1000
	defaultMaxPages      = 200
	defaultRetryAttempts = 3
	defaultRetryDelay    = 2 * time.Second
	decodedCacheSize     = 4096
)

// ErrMarkerStall is returned when the server hands back the same
// pagination marker twice in a row. Pages fetched before the stall are
// already merged when it's reported.
var ErrMarkerStall = errors.New("pagination marker did not advance")

// Config holds the sync manager settings.
type Config struct {
	// Account is the local account the history belongs to.
	Account string
	// TokenCurrency and TokenIssuer identify the protocol token.
	TokenCurrency string
	TokenIssuer   string
	// PageLimit is the page size of history requests.
	PageLimit int
	// MaxPages bounds the number of pages fetched by one sync call.
	MaxPages int
	// RetryAttempts and RetryDelay shape the per-page retry budget.
	RetryAttempts int
	RetryDelay    time.Duration
	// DB configures the durable cache backend.
	DB storage.DBConfiguration
	// Log defaults to zap.NewNop when unset.
	Log *zap.Logger
}

// SyncResult is the outcome of one sync call.
type SyncResult struct {
	// New is the number of genuinely new transactions merged.
	New int
	// Fetched is the total number of transactions returned by the
	// server, duplicates included.
	Fetched int
	// Pages is the number of pages consumed.
	Pages int
	// LastLedgerIndex is the cache cursor after the call.
	LastLedgerIndex uint32
}

// Manager owns the transaction cache of a single account and the task
// state derived from it.
type Manager struct {
	Config

	log     *zap.Logger
	client  Fetcher
	store   storage.Store
	decoded *lru.Cache

	// syncLock serializes sync calls.
	syncLock  sync.Mutex
	lastIndex uint32
	reducer   *tasks.Reducer

	// snapLock guards the published snapshot pointer.
	snapLock sync.RWMutex
	snap     *tasks.Snapshot
}

// NewManager opens (or rebuilds) the cache and returns a Manager ready
// to sync. A cache that fails to load is discarded and resynchronized
// from the earliest ledger rather than reported as a fatal error.
func NewManager(cfg Config, client Fetcher) (*Manager, error) {
	if !address.IsValid(cfg.Account) {
		return nil, fmt.Errorf("invalid account address: %s", cfg.Account)
	}
	if client == nil {
		return nil, errors.New("nil history client")
	}
	if cfg.PageLimit <= 0 {
		cfg.PageLimit = defaultPageLimit
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = defaultMaxPages
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = defaultRetryAttempts
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultRetryDelay
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}

	cache, err := lru.New(decodedCacheSize)
	if err != nil {
		return nil, err
	}
	m := &Manager{
		Config:  cfg,
		log:     cfg.Log.With(zap.String("account", cfg.Account)),
		client:  client,
		decoded: cache,
		reducer: tasks.NewReducer(),
	}
	m.snap = m.reducer.Snapshot()

	m.store, err = storage.NewStore(cfg.DB)
	if err != nil {
		if m.store, err = m.rebuildStore(err); err != nil {
			return nil, err
		}
	}
	if err := m.loadCache(); err != nil {
		m.log.Warn("transaction cache unreadable, rebuilding", zap.Error(err))
		if m.store, err = m.rebuildStore(err); err != nil {
			return nil, err
		}
		m.lastIndex = 0
		m.reducer = tasks.NewReducer()
		m.snap = m.reducer.Snapshot()
	}
	return m, nil
}

// rebuildStore drops the on-disk cache and opens a fresh one. Only the
// local cache is ever deleted automatically, it is rebuilt from the
// ledger on the next sync.
func (m *Manager) rebuildStore(cause error) (storage.Store, error) {
	cacheRebuildCnt.Inc()
	if m.store != nil {
		_ = m.store.Close()
	}
	if p := m.DB.Path(); p != "" {
		if err := os.RemoveAll(p); err != nil {
			return nil, fmt.Errorf("removing corrupt cache: %w", err)
		}
	}
	st, err := storage.NewStore(m.DB)
	if err != nil {
		return nil, fmt.Errorf("reopening cache after %q: %w", cause, err)
	}
	return st, nil
}

// loadCache replays persisted transaction rows into the reducer. Any
// row that fails to parse makes the whole cache suspect.
func (m *Manager) loadCache() error {
	var (
		events  []tasks.Event
		loadErr error
		count   int
	)
	m.store.Seek(txPrefix, func(k, v []byte) bool {
		var rec ledger.TransactionRecord
		if err := json.Unmarshal(v, &rec); err != nil {
			loadErr = fmt.Errorf("parsing cached row %x: %w", k, err)
			return false
		}
		count++
		if rec.LedgerIndex > m.lastIndex {
			m.lastIndex = rec.LedgerIndex
		}
		if ev := m.eventFor(&rec); ev != nil {
			events = append(events, *ev)
		}
		return true
	})
	if loadErr != nil {
		return loadErr
	}
	if b, err := m.store.Get(keyLastIndex); err == nil {
		if len(b) != 4 {
			return fmt.Errorf("malformed cursor row (%d bytes)", len(b))
		}
		if idx := binary.BigEndian.Uint32(b); idx > m.lastIndex {
			m.lastIndex = idx
		}
	} else if !errors.Is(err, storage.ErrKeyNotFound) {
		return err
	}
	m.snap = m.reducer.Append(events)
	lastSyncedLedger.Set(float64(m.lastIndex))
	m.log.Info("transaction cache loaded",
		zap.Int("transactions", count),
		zap.Uint32("lastLedger", m.lastIndex))
	return nil
}

// eventFor returns the decoded event of a record, consulting the LRU
// cache first. A nil return means the record carries no memo.
func (m *Manager) eventFor(rec *ledger.TransactionRecord) *tasks.Event {
	if v, ok := m.decoded.Get(rec.Hash); ok {
		return v.(*tasks.Event)
	}
	ev := recordEvent(rec, m.Account, m.TokenCurrency, m.TokenIssuer)
	m.decoded.Add(rec.Hash, ev)
	return ev
}

// Sync fetches everything the ledger has recorded for the account past
// the current cursor and merges it into the cache. It is safe to call
// concurrently with state reads but serializes against itself. Pages
// fetched before an error are merged before the error is returned.
func (m *Manager) Sync() (SyncResult, error) {
	m.syncLock.Lock()
	defer m.syncLock.Unlock()

	floor := int64(pftrpc.EarliestLedgerIndex)
	if m.lastIndex > 0 {
		floor = int64(m.lastIndex) + 1
	}

	var (
		res     SyncResult
		fresh   []ledger.TransactionRecord
		seen    = make(map[string]bool)
		marker  json.RawMessage
		loopErr error
	)
	for res.Pages < m.MaxPages {
		page, err := m.fetchPage(pftrpc.AccountTxParams{
			Account:        m.Account,
			LedgerIndexMin: floor,
			LedgerIndexMax: pftrpc.LatestLedgerIndex,
			Limit:          m.PageLimit,
			Marker:         marker,
			Forward:        true,
		})
		if err != nil {
			loopErr = err
			break
		}
		res.Pages++
		syncPageCnt.Inc()
		res.Fetched += len(page.Transactions)

		for i := range page.Transactions {
			rec := page.Transactions[i]
			if !rec.Validated || seen[rec.Hash] {
				continue
			}
			seen[rec.Hash] = true
			if _, err := m.store.Get(txKey(rec.Hash)); err == nil {
				continue
			}
			fresh = append(fresh, rec)
		}

		if len(page.Marker) == 0 {
			break
		}
		if bytes.Equal(page.Marker, marker) {
			markerStallCnt.Inc()
			m.log.Warn("pagination marker stalled, aborting fetch",
				zap.Int("pages", res.Pages))
			loopErr = ErrMarkerStall
			break
		}
		marker = page.Marker
	}

	if err := m.merge(fresh, &res); err != nil {
		syncFailCnt.Inc()
		return res, err
	}
	if loopErr != nil {
		syncFailCnt.Inc()
		return res, loopErr
	}
	return res, nil
}

// fetchPage requests a single history page retrying transient failures
// within the configured budget.
func (m *Manager) fetchPage(p pftrpc.AccountTxParams) (*result.AccountTx, error) {
	var err error
	for i := 0; i < m.RetryAttempts; i++ {
		if i > 0 {
			time.Sleep(m.RetryDelay)
		}
		var page *result.AccountTx
		if page, err = m.client.AccountTransactions(p); err == nil {
			return page, nil
		}
		m.log.Warn("history page fetch failed",
			zap.Int("attempt", i+1), zap.Error(err))
	}
	return nil, fmt.Errorf("fetching history page: %w", err)
}

// merge persists new records and folds their events into a fresh
// snapshot.
func (m *Manager) merge(fresh []ledger.TransactionRecord, res *SyncResult) error {
	if len(fresh) == 0 {
		res.LastLedgerIndex = m.lastIndex
		return nil
	}
	batch := make(map[string][]byte, len(fresh)+1)
	events := make([]tasks.Event, 0, len(fresh))
	last := m.lastIndex
	for i := range fresh {
		rec := &fresh[i]
		raw, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encoding transaction %s: %w", rec.Hash, err)
		}
		batch[string(txKey(rec.Hash))] = raw
		if rec.LedgerIndex > last {
			last = rec.LedgerIndex
		}
		if ev := m.eventFor(rec); ev != nil {
			events = append(events, *ev)
		}
	}
	cursor := make([]byte, 4)
	binary.BigEndian.PutUint32(cursor, last)
	batch[string(keyLastIndex)] = cursor

	if err := m.store.PutBatch(batch); err != nil {
		return fmt.Errorf("persisting %d transactions: %w", len(fresh), err)
	}
	m.lastIndex = last
	res.New = len(fresh)
	res.LastLedgerIndex = last

	next := m.reducer.Append(events)
	m.snapLock.Lock()
	m.snap = next
	m.snapLock.Unlock()

	syncedTxCnt.Add(float64(len(fresh)))
	lastSyncedLedger.Set(float64(last))
	m.log.Info("history synced",
		zap.Int("new", len(fresh)),
		zap.Uint32("lastLedger", last))
	return nil
}

func txKey(hash string) []byte {
	k := make([]byte, 0, len(txPrefix)+len(hash))
	k = append(k, txPrefix...)
	return append(k, hash...)
}

// State returns the last completed task state snapshot. It never blocks
// on a sync in progress.
func (m *Manager) State() *tasks.Snapshot {
	m.snapLock.RLock()
	defer m.snapLock.RUnlock()
	return m.snap
}

// GetTask returns the aggregate of a single task.
func (m *Manager) GetTask(id string) (*tasks.Task, bool) {
	return m.State().Task(id)
}

// ListOutstanding returns proposed and accepted tasks awaiting action.
func (m *Manager) ListOutstanding() []tasks.OutstandingTask {
	return m.State().Outstanding()
}

// ListPendingVerifications returns tasks awaiting a verification
// response.
func (m *Manager) ListPendingVerifications() []tasks.PendingVerification {
	return m.State().PendingVerifications()
}

// ListRewards returns the most recent rewarded tasks.
func (m *Manager) ListRewards() []tasks.RewardEntry {
	return m.State().Rewards()
}

// LastLedgerIndex returns the cache cursor.
func (m *Manager) LastLedgerIndex() uint32 {
	m.syncLock.Lock()
	defer m.syncLock.Unlock()
	return m.lastIndex
}

// Close releases the underlying cache store.
func (m *Manager) Close() error {
	return m.store.Close()
}
