package tracker

import "sync"

// PendingFoodLookup is a resolved product waiting for the gram amount.
type PendingFoodLookup struct {
	Item FoodItem
}

// UserState is everything the bot keeps for one user. Session and PendingFood
// share one conversation slot: at most one of them is non-nil.
type UserState struct {
	Session     *ProfileSession
	PendingFood *PendingFoodLookup
	Ledger      *DailyLedger

	// Seq changes every time the conversation slot changes hands. Work done
	// outside the lock compares it before committing.
	Seq uint64
}

// InConversation reports whether a transient multi-turn exchange is open.
func (s *UserState) InConversation() bool {
	return s.Session != nil || s.PendingFood != nil
}

// ClearConversation drops any open ProfileSession or PendingFoodLookup.
func (s *UserState) ClearConversation() {
	s.Session = nil
	s.PendingFood = nil
	s.Seq++
}

// StartSession replaces the conversation slot with sess.
func (s *UserState) StartSession(sess *ProfileSession) {
	s.ClearConversation()
	s.Session = sess
}

// AwaitGrams replaces the conversation slot with a pending food lookup.
func (s *UserState) AwaitGrams(item FoodItem) {
	s.ClearConversation()
	s.PendingFood = &PendingFoodLookup{Item: item}
}

// Store keeps per-user state by user id. Implementations do not need to be
// safe for concurrent use of the same key; the Registry serializes that.
type Store interface {
	Get(userID int64) (*UserState, bool)
	Put(userID int64, st *UserState)
	Delete(userID int64)
}

// MemoryStore is the process-lifetime Store. Entries are never evicted.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[int64]*UserState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[int64]*UserState)}
}

func (m *MemoryStore) Get(userID int64) (*UserState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.users[userID]
	return st, ok
}

func (m *MemoryStore) Put(userID int64, st *UserState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[userID] = st
}

func (m *MemoryStore) Delete(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, userID)
}

// Registry pairs a Store with one mutex per user so that events for the same
// user never interleave while different users proceed in parallel.
type Registry struct {
	store Store

	mu sync.Mutex
	// locks outlive the states Save deletes: a goroutine may be waiting on
	// a mutex when its state goes away, so entries are never removed.
	locks map[int64]*sync.Mutex
}

// NewRegistry wraps store; a nil store means a fresh MemoryStore.
func NewRegistry(store Store) *Registry {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Registry{store: store, locks: make(map[int64]*sync.Mutex)}
}

// Lock acquires the user's lock and returns the function that releases it.
func (r *Registry) Lock(userID int64) (unlock func()) {
	r.mu.Lock()
	l, ok := r.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		r.locks[userID] = l
	}
	r.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// State returns the user's state, creating an empty one on first use. The
// caller must hold the user's lock.
func (r *Registry) State(userID int64) *UserState {
	if st, ok := r.store.Get(userID); ok {
		return st
	}
	st := &UserState{}
	r.store.Put(userID, st)
	return st
}

// Save writes st back, or deletes the entry when nothing is left in it. The
// in-memory store shares pointers, durable stores need the explicit write.
// Caller holds the lock.
func (r *Registry) Save(userID int64, st *UserState) {
	if st.Ledger == nil && !st.InConversation() {
		r.store.Delete(userID)
		return
	}
	r.store.Put(userID, st)
}
