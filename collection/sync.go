// ABOUTME: Collection sync controller keeping an optimistic local mirror of a remote collection
// ABOUTME: Stages mutations locally, commits them to the store, and reverts or keeps them on failure
package collection

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harperreed/innkeep/models"
	"github.com/samber/lo"
	"golang.org/x/time/rate"
)

// Store is the remote collection service. Every backend (sql, charm kv,
// http) implements it.
type Store interface {
	GetAll(ctx context.Context, name string, opts models.ListOptions) (*models.ListResult, error)
	Create(ctx context.Context, name string, rec models.Record) (models.Record, error)
	Update(ctx context.Context, name string, rec models.Record) (models.Record, error)
	Delete(ctx context.Context, name, id string) error
}

// Options configures a Sync.
type Options struct {
	// Policy applies once a write has failed every attempt.
	Policy FailurePolicy

	// Retries is the number of extra attempts for a failed write.
	Retries int

	// RetryDelay paces retries. Zero retries immediately.
	RetryDelay time.Duration

	Logger *log.Logger
}

// Entry is one mirrored record with its sync status.
type Entry struct {
	Record models.Record
	Status Status
	Err    error
}

type entry struct {
	Entry
	// owner is the mutation that produced this version; nil for records
	// taken from the store.
	owner *Mutation
}

// Mutation is a staged local change awaiting Commit.
type Mutation struct {
	Op         Op
	Collection string
	ID         string
	Record     models.Record

	seq       uint64
	prev      *entry
	prevIndex int
	reverted  bool
	inflight  bool
	err       error
	result    models.Record
}

// Result returns the persisted record after a successful create or update.
func (m *Mutation) Result() models.Record {
	return m.result
}

// Sync mirrors one named collection. Mutations are applied to the mirror
// synchronously under a lock; remote calls run outside it.
type Sync struct {
	name   string
	store  Store
	opts   Options
	logger *log.Logger

	mu        sync.Mutex
	entries   []entry
	deleting  map[string]uint64
	seq       uint64
	loadState LoadState
	loadErr   error
	inflight  int
	submitErr error
	failures  []*Mutation
}

// New creates a Sync for the named collection.
func New(store Store, name string, opts Options) *Sync {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Sync{
		name:     name,
		store:    store,
		opts:     opts,
		logger:   logger.With("collection", name),
		deleting: map[string]uint64{},
	}
}

// Name returns the collection name.
func (s *Sync) Name() string {
	return s.name
}

// Load fetches every record and replaces the mirror. Records with in-flight
// mutations keep their local version.
func (s *Sync) Load(ctx context.Context) error {
	s.mu.Lock()
	s.loadState = Loading
	s.loadErr = nil
	s.mu.Unlock()

	s.logger.Debug("loading collection")
	res, err := s.store.GetAll(ctx, s.name, models.ListOptions{})

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		ferr := &FetchError{Collection: s.name, Err: err}
		s.loadState = LoadErrored
		s.loadErr = ferr
		s.logger.Error("load failed", "err", err)
		return ferr
	}

	items := lo.UniqBy(res.Items, func(r models.Record) string { return r.ID })
	pending := map[string]entry{}
	for _, e := range s.entries {
		if e.Status == StatusPending && e.owner != nil && e.owner.inflight {
			pending[e.Record.ID] = e
		}
	}

	next := make([]entry, 0, len(items)+len(pending))
	for _, rec := range items {
		if _, ok := s.deleting[rec.ID]; ok {
			continue
		}
		if e, ok := pending[rec.ID]; ok {
			next = append(next, e)
			delete(pending, rec.ID)
			continue
		}
		next = append(next, entry{Entry: Entry{Record: rec, Status: StatusCommitted}})
	}
	// Optimistic inserts the store has not confirmed yet stay at the end.
	for _, e := range s.entries {
		if _, ok := pending[e.Record.ID]; ok {
			next = append(next, e)
		}
	}

	s.entries = next
	s.loadState = Loaded
	s.logger.Info("collection loaded", "records", len(next), "total", res.TotalCount)
	return nil
}

// Create stages and commits a new record. The caller assigns rec.ID.
func (s *Sync) Create(ctx context.Context, rec models.Record) (models.Record, error) {
	m, err := s.StageCreate(rec)
	if err != nil {
		return models.Record{}, err
	}
	if err := s.Commit(ctx, m); err != nil {
		return models.Record{}, err
	}
	return m.Result(), nil
}

// Update stages and commits a full replacement of an existing record.
func (s *Sync) Update(ctx context.Context, rec models.Record) (models.Record, error) {
	m, err := s.StageUpdate(rec)
	if err != nil {
		return models.Record{}, err
	}
	if err := s.Commit(ctx, m); err != nil {
		return models.Record{}, err
	}
	return m.Result(), nil
}

// Delete removes id from the mirror immediately, then from the store.
func (s *Sync) Delete(ctx context.Context, id string) error {
	m := s.StageDelete(id)
	return s.Commit(ctx, m)
}

// StageCreate inserts rec into the mirror as pending.
func (s *Sync) StageCreate(rec models.Record) (*Mutation, error) {
	if rec.ID == "" {
		return nil, ErrMissingID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(rec.ID) >= 0 {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateID, rec.ID)
	}

	m := &Mutation{Op: OpCreate, Collection: s.name, ID: rec.ID, Record: rec.Clone()}
	s.applyCreate(m)
	return m, nil
}

// StageUpdate replaces the mirrored record with rec as pending. Fields
// missing from rec are not carried over.
func (s *Sync) StageUpdate(rec models.Record) (*Mutation, error) {
	if rec.ID == "" {
		return nil, ErrMissingID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m := &Mutation{Op: OpUpdate, Collection: s.name, ID: rec.ID, Record: rec.Clone()}
	if err := s.applyUpdate(m); err != nil {
		return nil, err
	}
	return m, nil
}

// StageDelete removes id from the mirror. Unknown ids still produce a
// mutation so the remote delete is issued.
func (s *Sync) StageDelete(id string) *Mutation {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := &Mutation{Op: OpDelete, Collection: s.name, ID: id}
	s.applyDelete(m)
	return m
}

// Commit sends a staged mutation to the store and reconciles the mirror
// with the outcome. Every staged mutation must be committed exactly once.
func (s *Sync) Commit(ctx context.Context, m *Mutation) error {
	result, err := s.execute(ctx, m)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.inflight--
	s.dropFailure(m)
	m.inflight = false
	m.err = err

	if err == nil {
		m.result = result
		s.reconcile(m, result)
		s.submitErr = nil
		s.logger.Debug("mutation committed", "op", m.Op, "id", m.ID)
		return nil
	}

	werr := &WriteError{Op: m.Op, Collection: s.name, ID: m.ID, Mutation: m, Err: err}
	switch s.opts.Policy {
	case FailureKeep:
		s.markFailed(m, err)
	default:
		s.revert(m)
		werr.Reverted = true
	}
	s.failures = append(s.failures, m)
	s.submitErr = werr
	s.logger.Warn("mutation failed", "op", m.Op, "id", m.ID, "policy", s.opts.Policy, "err", err)
	return werr
}

// Retry re-applies (when reverted) and re-commits a failed mutation.
// A mutation that is still being committed is rejected with ErrInFlight.
func (s *Sync) Retry(ctx context.Context, m *Mutation) error {
	s.mu.Lock()
	if m.inflight {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s %s", ErrInFlight, m.Op, m.ID)
	}
	if m.err == nil {
		s.mu.Unlock()
		return nil
	}
	if m.reverted {
		var err error
		switch m.Op {
		case OpCreate:
			if s.indexOf(m.ID) >= 0 {
				err = fmt.Errorf("%w: %s", ErrDuplicateID, m.ID)
			} else {
				s.applyCreate(m)
			}
		case OpUpdate:
			err = s.applyUpdate(m)
		case OpDelete:
			s.applyDelete(m)
		}
		if err != nil {
			s.mu.Unlock()
			return err
		}
		m.reverted = false
	} else {
		if i := s.indexOf(m.ID); i >= 0 && s.entries[i].owner == m {
			s.entries[i].Status = StatusPending
			s.entries[i].Err = nil
		}
		if m.Op == OpDelete {
			s.deleting[m.ID] = m.seq
		}
		m.inflight = true
		s.inflight++
	}
	s.mu.Unlock()

	s.logger.Info("retrying mutation", "op", m.Op, "id", m.ID)
	return s.Commit(ctx, m)
}

// Failures returns the mutations whose last commit failed, oldest first.
func (s *Sync) Failures() []*Mutation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.failures)
}

// Entries returns a snapshot of the mirror in display order.
func (s *Sync) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo.Map(s.entries, func(e entry, _ int) Entry {
		return Entry{Record: e.Record.Clone(), Status: e.Status, Err: e.Err}
	})
}

// Records returns a snapshot of the mirrored records in display order.
func (s *Sync) Records() []models.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo.Map(s.entries, func(e entry, _ int) models.Record { return e.Record.Clone() })
}

// Get returns the mirrored entry for id.
func (s *Sync) Get(id string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return Entry{}, false
	}
	e := s.entries[i]
	return Entry{Record: e.Record.Clone(), Status: e.Status, Err: e.Err}, true
}

// Len returns the number of mirrored records.
func (s *Sync) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// LoadState returns the load state and the last load error.
func (s *Sync) LoadState() (LoadState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadState, s.loadErr
}

// SubmitState returns the submission state and the last write error.
func (s *Sync) SubmitState() (SubmitState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.inflight > 0:
		return Submitting, nil
	case s.submitErr != nil:
		return SubmitErrored, s.submitErr
	default:
		return SubmitIdle, nil
	}
}

// The apply*/revert/reconcile helpers below must be called with s.mu held.

func (s *Sync) nextSeq() uint64 {
	s.seq++
	return s.seq
}

func (s *Sync) indexOf(id string) int {
	_, i, ok := lo.FindIndexOf(s.entries, func(e entry) bool { return e.Record.ID == id })
	if !ok {
		return -1
	}
	return i
}

func (s *Sync) applyCreate(m *Mutation) {
	m.seq = s.nextSeq()
	m.inflight = true
	s.entries = append(s.entries, entry{
		Entry: Entry{Record: m.Record.Clone(), Status: StatusPending},
		owner: m,
	})
	s.inflight++
}

func (s *Sync) applyUpdate(m *Mutation) error {
	i := s.indexOf(m.ID)
	if i < 0 {
		return fmt.Errorf("%w: %s", models.ErrRecordNotFound, m.ID)
	}

	prev := s.entries[i]
	rec := m.Record.Clone()
	if rec.CreatedAt == nil {
		rec.CreatedAt = prev.Record.CreatedAt
	}

	m.seq = s.nextSeq()
	m.prev = &prev
	m.inflight = true
	s.entries[i] = entry{Entry: Entry{Record: rec, Status: StatusPending}, owner: m}
	s.inflight++
	return nil
}

func (s *Sync) applyDelete(m *Mutation) {
	m.seq = s.nextSeq()
	m.prev = nil
	if i := s.indexOf(m.ID); i >= 0 {
		prev := s.entries[i]
		m.prev = &prev
		m.prevIndex = i
		s.entries = slices.Delete(s.entries, i, i+1)
	}
	s.deleting[m.ID] = m.seq
	m.inflight = true
	s.inflight++
}

func (s *Sync) reconcile(m *Mutation, persisted models.Record) {
	if m.Op == OpDelete {
		if s.deleting[m.ID] == m.seq {
			delete(s.deleting, m.ID)
		}
		return
	}

	i := s.indexOf(m.ID)
	if i < 0 || s.entries[i].owner != m {
		// A newer mutation owns this record now.
		return
	}
	if persisted.ID == "" {
		persisted = m.Record.Clone()
	}
	s.entries[i].Record = persisted
	s.entries[i].Status = StatusCommitted
	s.entries[i].Err = nil
}

func (s *Sync) revert(m *Mutation) {
	m.reverted = true
	switch m.Op {
	case OpCreate:
		if i := s.indexOf(m.ID); i >= 0 && s.entries[i].owner == m {
			s.entries = slices.Delete(s.entries, i, i+1)
		}
	case OpUpdate:
		i := s.indexOf(m.ID)
		if i < 0 || s.entries[i].owner != m {
			return
		}
		if base, ok := s.base(m); ok {
			s.entries[i] = base
		} else {
			s.entries = slices.Delete(s.entries, i, i+1)
		}
	case OpDelete:
		if s.deleting[m.ID] != m.seq {
			return
		}
		delete(s.deleting, m.ID)
		if s.indexOf(m.ID) >= 0 {
			return
		}
		if base, ok := s.base(m); ok {
			at := min(m.prevIndex, len(s.entries))
			s.entries = slices.Insert(s.entries, at, base)
		}
	}
}

// base returns the version of m.ID the mirror should show once m is undone.
// The version m replaced may belong to an earlier mutation that finished in
// the meantime; its outcome decides what is restored. ok is false when no
// record should remain.
func (s *Sync) base(m *Mutation) (entry, bool) {
	if m.prev == nil {
		return entry{}, false
	}
	e := *m.prev
	for e.owner != nil && !e.owner.inflight {
		owner := e.owner
		switch {
		case owner.err == nil:
			rec := owner.result
			if rec.ID == "" {
				rec = owner.Record.Clone()
			}
			return entry{Entry: Entry{Record: rec, Status: StatusCommitted}, owner: owner}, true
		case !owner.reverted:
			return entry{Entry: Entry{Record: owner.Record.Clone(), Status: StatusFailed, Err: owner.err}, owner: owner}, true
		case owner.Op == OpCreate || owner.prev == nil:
			return entry{}, false
		}
		e = *owner.prev
	}
	if e.owner == nil {
		e.Status = StatusCommitted
		e.Err = nil
	}
	return e, true
}

func (s *Sync) markFailed(m *Mutation, err error) {
	if m.Op == OpDelete {
		if s.deleting[m.ID] == m.seq {
			delete(s.deleting, m.ID)
		}
		return
	}
	if i := s.indexOf(m.ID); i >= 0 && s.entries[i].owner == m {
		s.entries[i].Status = StatusFailed
		s.entries[i].Err = err
	}
}

func (s *Sync) dropFailure(m *Mutation) {
	s.failures = slices.DeleteFunc(s.failures, func(f *Mutation) bool { return f == m })
}

// execute runs the remote call for m, retrying transient failures.
func (s *Sync) execute(ctx context.Context, m *Mutation) (models.Record, error) {
	limit := rate.Inf
	if s.opts.RetryDelay > 0 {
		limit = rate.Every(s.opts.RetryDelay)
	}
	limiter := rate.NewLimiter(limit, 1)

	var (
		result models.Record
		err    error
	)
	for attempt := 0; attempt <= s.opts.Retries; attempt++ {
		if werr := limiter.Wait(ctx); werr != nil {
			if err == nil {
				err = werr
			}
			break
		}
		result, err = s.call(ctx, m)
		if err == nil || !retryable(err) {
			break
		}
		if attempt < s.opts.Retries {
			s.logger.Debug("write attempt failed", "op", m.Op, "id", m.ID, "attempt", attempt+1, "err", err)
		}
	}
	return result, err
}

func (s *Sync) call(ctx context.Context, m *Mutation) (models.Record, error) {
	switch m.Op {
	case OpCreate:
		return s.store.Create(ctx, s.name, m.Record.Clone())
	case OpUpdate:
		return s.store.Update(ctx, s.name, m.Record.Clone())
	default:
		err := s.store.Delete(ctx, s.name, m.ID)
		if errors.Is(err, models.ErrRecordNotFound) {
			return models.Record{}, nil
		}
		return models.Record{}, err
	}
}

func retryable(err error) bool {
	return !errors.Is(err, models.ErrRecordNotFound) &&
		!errors.Is(err, ErrDuplicateID) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}
