// Package memstore is an in-memory repositories.Store. Transactions work on
// a cloned copy of the state that replaces the committed state on success,
// and unique/foreign-key rules mirror the PostgreSQL schema.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/attachtrack/attachtrack/internal/app/models"
	"github.com/attachtrack/attachtrack/internal/app/repositories"
)

// Entity names accepted by InjectCreateError
const (
	EntityStudent    = "students"
	EntitySupervisor = "supervisors"
	EntityUser       = "users"
)

type memoryState struct {
	students    map[int64]models.Student
	supervisors map[int64]models.Supervisor
	users       map[int64]models.User
	attachments map[int64]models.Attachment
	logbook     map[int64]models.LogbookEntry
	seq         map[string]int64
}

func newMemoryState() *memoryState {
	return &memoryState{
		students:    map[int64]models.Student{},
		supervisors: map[int64]models.Supervisor{},
		users:       map[int64]models.User{},
		attachments: map[int64]models.Attachment{},
		logbook:     map[int64]models.LogbookEntry{},
		seq:         map[string]int64{},
	}
}

func (s *memoryState) clone() *memoryState {
	c := newMemoryState()
	for k, v := range s.students {
		c.students[k] = v
	}
	for k, v := range s.supervisors {
		c.supervisors[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.attachments {
		c.attachments[k] = v
	}
	for k, v := range s.logbook {
		c.logbook[k] = v
	}
	for k, v := range s.seq {
		c.seq[k] = v
	}
	return c
}

func (s *memoryState) nextID(table string) int64 {
	s.seq[table]++
	return s.seq[table]
}

type injectedKey struct {
	entity string
	key    string
}

type shared struct {
	mu       sync.Mutex
	state    *memoryState
	injected map[injectedKey]error
}

// Store implements repositories.Store in memory
type Store struct {
	shared *shared
	// state is non-nil inside a transaction and already guarded by shared.mu
	state *memoryState
}

var _ repositories.Store = (*Store)(nil)

// New creates an empty store
func New() *Store {
	return &Store{shared: &shared{state: newMemoryState(), injected: map[injectedKey]error{}}}
}

// InjectCreateError makes the next Create of entity with the given natural
// key (registration no, staff no or username) fail with err. It stands in
// for a row committed by a concurrent writer after the caller's checks.
func (s *Store) InjectCreateError(entity, key string, err error) {
	s.shared.mu.Lock()
	defer s.shared.mu.Unlock()
	s.shared.injected[injectedKey{entity, key}] = err
}

// takeInjected is called with shared.mu held
func (s *Store) takeInjected(entity, key string) error {
	k := injectedKey{entity, key}
	err, ok := s.shared.injected[k]
	if ok {
		delete(s.shared.injected, k)
	}
	return err
}

// view runs fn against the current state, locking when outside a transaction
func (s *Store) view(fn func(st *memoryState) error) error {
	if s.state != nil {
		return fn(s.state)
	}
	s.shared.mu.Lock()
	defer s.shared.mu.Unlock()
	return fn(s.shared.state)
}

// update runs fn on a copy of the committed state outside a transaction so a
// failing single statement leaves nothing behind
func (s *Store) update(fn func(st *memoryState) error) error {
	if s.state != nil {
		return fn(s.state)
	}
	s.shared.mu.Lock()
	defer s.shared.mu.Unlock()
	working := s.shared.state.clone()
	if err := fn(working); err != nil {
		return err
	}
	s.shared.state = working
	return nil
}

// InTx runs fn against a private copy of the state and publishes it when fn
// succeeds. Transactions are serialized.
func (s *Store) InTx(ctx context.Context, fn repositories.TxFn) error {
	if s.state != nil {
		return fn(ctx, s)
	}
	s.shared.mu.Lock()
	defer s.shared.mu.Unlock()

	tx := &Store{shared: s.shared, state: s.shared.state.clone()}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	s.shared.state = tx.state
	return nil
}

// Savepoint runs fn on a nested copy that is folded back only on success
func (s *Store) Savepoint(ctx context.Context, fn repositories.TxFn) error {
	if s.state == nil {
		return s.InTx(ctx, fn)
	}
	sp := &Store{shared: s.shared, state: s.state.clone()}
	if err := fn(ctx, sp); err != nil {
		return err
	}
	*s.state = *sp.state
	return nil
}

// Ping always succeeds
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Students returns the student repository
func (s *Store) Students() repositories.StudentRepository { return &studentRepo{s} }

// Supervisors returns the supervisor repository
func (s *Store) Supervisors() repositories.SupervisorRepository { return &supervisorRepo{s} }

// Users returns the credential repository
func (s *Store) Users() repositories.UserRepository { return &userRepo{s} }

// Attachments returns the attachment repository
func (s *Store) Attachments() repositories.AttachmentRepository { return &attachmentRepo{s} }

// Logbook returns the logbook repository
func (s *Store) Logbook() repositories.LogbookRepository { return &logbookRepo{s} }

func duplicate(constraint string) error {
	return fmt.Errorf("%w: %s", repositories.ErrDuplicate, constraint)
}

func restricted(constraint string) error {
	return fmt.Errorf("%w: %s", repositories.ErrHasDependents, constraint)
}

func sortedIDs[T any](m map[int64]T) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func idSet(ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
