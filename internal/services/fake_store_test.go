package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"eventregistry/internal/domain"
)

// memDB is an in-memory Store and TxManager. Transactions run one at a time under mu,
// and a failed transaction restores the snapshot taken when it began.
type memDB struct {
	mu  sync.Mutex
	st  *memState
	seq int

	// createConflicts makes the next N registrant creates fail with ErrNumberConflict.
	createConflicts int
}

type memState struct {
	events      map[string]*domain.Event
	registrants map[string]*domain.Registrant
	reserved    map[string]map[int]struct{}
	fixed       map[string]*domain.FixedNumber
}

func newMemDB() *memDB {
	return &memDB{st: &memState{
		events:      map[string]*domain.Event{},
		registrants: map[string]*domain.Registrant{},
		reserved:    map[string]map[int]struct{}{},
		fixed:       map[string]*domain.FixedNumber{},
	}}
}

func (s *memState) clone() *memState {
	c := &memState{
		events:      make(map[string]*domain.Event, len(s.events)),
		registrants: make(map[string]*domain.Registrant, len(s.registrants)),
		reserved:    make(map[string]map[int]struct{}, len(s.reserved)),
		fixed:       make(map[string]*domain.FixedNumber, len(s.fixed)),
	}
	for k, v := range s.events {
		c.events[k] = copyEvent(v)
	}
	for k, v := range s.registrants {
		c.registrants[k] = copyRegistrant(v)
	}
	for k, v := range s.reserved {
		m := make(map[int]struct{}, len(v))
		for n := range v {
			m[n] = struct{}{}
		}
		c.reserved[k] = m
	}
	for k, v := range s.fixed {
		f := *v
		c.fixed[k] = &f
	}
	return c
}

func copyEvent(e *domain.Event) *domain.Event {
	c := *e
	c.TransportCategories = append([]string{}, e.TransportCategories...)
	return &c
}

func copyRegistrant(r *domain.Registrant) *domain.Registrant {
	c := *r
	if r.ParticipantNumber != nil {
		n := *r.ParticipantNumber
		c.ParticipantNumber = &n
	}
	if r.TransportModel != nil {
		m := *r.TransportModel
		c.TransportModel = &m
	}
	return &c
}

func (db *memDB) nextID(prefix string) string {
	db.seq++
	return fmt.Sprintf("%s-%04d", prefix, db.seq)
}

func (db *memDB) WithinTx(ctx context.Context, fn func(ctx context.Context, s domain.Store) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	snap := db.st.clone()
	if err := fn(ctx, &memStore{db: db, inTx: true}); err != nil {
		db.st = snap
		return err
	}
	return nil
}

// Store returns a non-transactional view; every call takes the lock for itself.
func (db *memDB) Store() domain.Store { return &memStore{db: db} }

// seedEvent inserts an event directly.
func (db *memDB) seedEvent(name string, maxNumber int) *domain.Event {
	db.mu.Lock()
	defer db.mu.Unlock()
	e := domain.NewEvent(name, maxNumber, time.Now(), time.Now())
	e.ID = db.nextID("ev")
	db.st.events[e.ID] = copyEvent(e)
	return e
}

// activeNumbers returns registrant id by number for active registrants of the event, and
// reports whether two active registrants share a number.
func (db *memDB) activeNumbers(eventID string) (map[int]string, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := map[int]string{}
	dup := false
	for _, r := range db.st.registrants {
		if r.EventID != eventID || !r.IsActive || r.ParticipantNumber == nil {
			continue
		}
		if _, ok := out[*r.ParticipantNumber]; ok {
			dup = true
		}
		out[*r.ParticipantNumber] = r.ID
	}
	return out, dup
}

func (db *memDB) registrant(id string) *domain.Registrant {
	db.mu.Lock()
	defer db.mu.Unlock()
	r, ok := db.st.registrants[id]
	if !ok {
		return nil
	}
	return copyRegistrant(r)
}

func (db *memDB) registrantCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.st.registrants)
}

type memStore struct {
	db   *memDB
	inTx bool
}

func (m *memStore) lock() func() {
	if m.inTx {
		return func() {}
	}
	m.db.mu.Lock()
	return m.db.mu.Unlock
}

func (m *memStore) Events() domain.EventRepository                   { return memEvents{m} }
func (m *memStore) Registrants() domain.RegistrantRepository         { return memRegistrants{m} }
func (m *memStore) ReservedNumbers() domain.ReservedNumberRepository { return memReserved{m} }
func (m *memStore) FixedNumbers() domain.FixedNumberRepository       { return memFixed{m} }

type memEvents struct{ m *memStore }

func (r memEvents) Create(ctx context.Context, e *domain.Event) error {
	defer r.m.lock()()
	e.ID = r.m.db.nextID("ev")
	r.m.db.st.events[e.ID] = copyEvent(e)
	return nil
}

func (r memEvents) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	defer r.m.lock()()
	e, ok := r.m.db.st.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyEvent(e), nil
}

func (r memEvents) List(ctx context.Context, params domain.PaginationParams) ([]*domain.Event, int, error) {
	defer r.m.lock()()
	var out []*domain.Event
	for _, e := range r.m.db.st.events {
		out = append(out, copyEvent(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	total := len(out)
	if off := params.Offset(); off < len(out) {
		out = out[off:]
	} else {
		out = nil
	}
	if l := params.Limit(); l > 0 && l < len(out) {
		out = out[:l]
	}
	return out, total, nil
}

func (r memEvents) Update(ctx context.Context, e *domain.Event) error {
	defer r.m.lock()()
	if _, ok := r.m.db.st.events[e.ID]; !ok {
		return domain.ErrNotFound
	}
	r.m.db.st.events[e.ID] = copyEvent(e)
	return nil
}

func (r memEvents) Delete(ctx context.Context, id string) error {
	defer r.m.lock()()
	st := r.m.db.st
	if _, ok := st.events[id]; !ok {
		return domain.ErrNotFound
	}
	delete(st.events, id)
	delete(st.reserved, id)
	for rid, reg := range st.registrants {
		if reg.EventID == id {
			delete(st.registrants, rid)
		}
	}
	return nil
}

func (r memEvents) Lock(ctx context.Context, id string) (*domain.Event, error) {
	return r.GetByID(ctx, id)
}

func (r memEvents) LockAll(ctx context.Context) ([]*domain.Event, error) {
	list, _, err := r.List(ctx, domain.PaginationParams{})
	return list, err
}

type memRegistrants struct{ m *memStore }

// checkUnique mirrors the unique constraints of the registrants table.
func (r memRegistrants) checkUnique(reg *domain.Registrant) error {
	for _, o := range r.m.db.st.registrants {
		if o.ID == reg.ID || o.EventID != reg.EventID {
			continue
		}
		if o.ExternalID == reg.ExternalID {
			return domain.ErrAlreadyRegistered
		}
		if reg.IsActive && o.IsActive && reg.ParticipantNumber != nil && o.ParticipantNumber != nil &&
			*reg.ParticipantNumber == *o.ParticipantNumber {
			return domain.ErrNumberConflict
		}
		if reg.IsActive && o.IsActive && reg.Nickname != "" && reg.Nickname == o.Nickname {
			return domain.ErrDuplicateNickname
		}
	}
	return nil
}

func (r memRegistrants) sorted(keep func(*domain.Registrant) bool) []*domain.Registrant {
	var out []*domain.Registrant
	for _, reg := range r.m.db.st.registrants {
		if keep(reg) {
			out = append(out, copyRegistrant(reg))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EventID != out[j].EventID {
			return out[i].EventID < out[j].EventID
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r memRegistrants) Create(ctx context.Context, reg *domain.Registrant) error {
	defer r.m.lock()()
	if r.m.db.createConflicts > 0 {
		r.m.db.createConflicts--
		return domain.ErrNumberConflict
	}
	if err := r.checkUnique(reg); err != nil {
		return err
	}
	reg.ID = r.m.db.nextID("reg")
	r.m.db.st.registrants[reg.ID] = copyRegistrant(reg)
	return nil
}

func (r memRegistrants) GetByID(ctx context.Context, id string) (*domain.Registrant, error) {
	defer r.m.lock()()
	reg, ok := r.m.db.st.registrants[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyRegistrant(reg), nil
}

func (r memRegistrants) GetByEventAndExternalID(ctx context.Context, eventID, externalID string) (*domain.Registrant, error) {
	defer r.m.lock()()
	for _, reg := range r.m.db.st.registrants {
		if reg.EventID == eventID && reg.ExternalID == externalID {
			return copyRegistrant(reg), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r memRegistrants) ListByEvent(ctx context.Context, eventID string, filter domain.RegistrantFilter, params domain.PaginationParams) ([]*domain.Registrant, int, error) {
	defer r.m.lock()()
	out := r.sorted(func(reg *domain.Registrant) bool {
		return reg.EventID == eventID && (filter.IncludeInactive || reg.IsActive)
	})
	return out, len(out), nil
}

func (r memRegistrants) Update(ctx context.Context, reg *domain.Registrant) error {
	defer r.m.lock()()
	if _, ok := r.m.db.st.registrants[reg.ID]; !ok {
		return domain.ErrNotFound
	}
	if err := r.checkUnique(reg); err != nil {
		return err
	}
	r.m.db.st.registrants[reg.ID] = copyRegistrant(reg)
	return nil
}

func (r memRegistrants) SetNumber(ctx context.Context, id string, number int) error {
	defer r.m.lock()()
	reg, ok := r.m.db.st.registrants[id]
	if !ok {
		return domain.ErrNotFound
	}
	next := copyRegistrant(reg)
	next.ParticipantNumber = &number
	if err := r.checkUnique(next); err != nil {
		return err
	}
	r.m.db.st.registrants[id] = next
	return nil
}

func (r memRegistrants) Delete(ctx context.Context, id string) error {
	defer r.m.lock()()
	if _, ok := r.m.db.st.registrants[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.m.db.st.registrants, id)
	return nil
}

func (r memRegistrants) ListActiveNumbers(ctx context.Context, eventID string) ([]int, error) {
	defer r.m.lock()()
	var out []int
	for _, reg := range r.m.db.st.registrants {
		if reg.EventID == eventID && reg.IsActive && reg.ParticipantNumber != nil {
			out = append(out, *reg.ParticipantNumber)
		}
	}
	return out, nil
}

func (r memRegistrants) GetActiveByNumber(ctx context.Context, eventID string, number int) (*domain.Registrant, error) {
	defer r.m.lock()()
	out := r.sorted(func(reg *domain.Registrant) bool {
		return reg.EventID == eventID && reg.IsActive && reg.HasNumber(number)
	})
	if len(out) == 0 {
		return nil, domain.ErrNotFound
	}
	return out[0], nil
}

func (r memRegistrants) ListActiveHoldingNumber(ctx context.Context, number int, exceptNickname string) ([]*domain.Registrant, error) {
	defer r.m.lock()()
	return r.sorted(func(reg *domain.Registrant) bool {
		return reg.IsActive && reg.HasNumber(number) && reg.Nickname != exceptNickname
	}), nil
}

func (r memRegistrants) ListActiveByNickname(ctx context.Context, nickname string) ([]*domain.Registrant, error) {
	defer r.m.lock()()
	return r.sorted(func(reg *domain.Registrant) bool {
		return reg.IsActive && reg.Nickname == nickname
	}), nil
}

func (r memRegistrants) ListNumberConflicts(ctx context.Context) ([]*domain.NumberConflict, error) {
	defer r.m.lock()()
	st := r.m.db.st
	active := r.sorted(func(reg *domain.Registrant) bool { return reg.IsActive && reg.ParticipantNumber != nil })
	var out []*domain.NumberConflict
	for _, reg := range active {
		n := *reg.ParticipantNumber
		for _, o := range active {
			if o.ID != reg.ID && o.EventID == reg.EventID && *o.ParticipantNumber == n {
				out = append(out, &domain.NumberConflict{Kind: domain.ConflictDuplicate, EventID: reg.EventID, RegistrantID: reg.ID, Number: n})
				break
			}
		}
		if _, ok := st.reserved[reg.EventID][n]; ok {
			out = append(out, &domain.NumberConflict{Kind: domain.ConflictReserved, EventID: reg.EventID, RegistrantID: reg.ID, Number: n})
		}
		for _, f := range st.fixed {
			if f.Number == n && f.Nickname != reg.Nickname {
				out = append(out, &domain.NumberConflict{Kind: domain.ConflictFixed, EventID: reg.EventID, RegistrantID: reg.ID, Number: n})
			}
		}
	}
	return out, nil
}

type memReserved struct{ m *memStore }

func (r memReserved) ListByEvent(ctx context.Context, eventID string) ([]int, error) {
	defer r.m.lock()()
	var out []int
	for n := range r.m.db.st.reserved[eventID] {
		out = append(out, n)
	}
	sort.Ints(out)
	return out, nil
}

func (r memReserved) Add(ctx context.Context, eventID string, numbers []int) error {
	defer r.m.lock()()
	set, ok := r.m.db.st.reserved[eventID]
	if !ok {
		set = map[int]struct{}{}
		r.m.db.st.reserved[eventID] = set
	}
	for _, n := range numbers {
		set[n] = struct{}{}
	}
	return nil
}

func (r memReserved) Remove(ctx context.Context, eventID string, numbers []int) error {
	defer r.m.lock()()
	for _, n := range numbers {
		delete(r.m.db.st.reserved[eventID], n)
	}
	return nil
}

type memFixed struct{ m *memStore }

func (r memFixed) Create(ctx context.Context, f *domain.FixedNumber) error {
	defer r.m.lock()()
	for _, o := range r.m.db.st.fixed {
		if o.Nickname == f.Nickname {
			return domain.ErrDuplicateIdentifier
		}
		if o.Number == f.Number {
			return domain.ErrDuplicateNumber
		}
	}
	f.ID = r.m.db.nextID("fx")
	c := *f
	r.m.db.st.fixed[f.ID] = &c
	return nil
}

func (r memFixed) find(keep func(*domain.FixedNumber) bool) (*domain.FixedNumber, error) {
	defer r.m.lock()()
	for _, f := range r.m.db.st.fixed {
		if keep(f) {
			c := *f
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r memFixed) GetByID(ctx context.Context, id string) (*domain.FixedNumber, error) {
	return r.find(func(f *domain.FixedNumber) bool { return f.ID == id })
}

func (r memFixed) GetByNickname(ctx context.Context, nickname string) (*domain.FixedNumber, error) {
	return r.find(func(f *domain.FixedNumber) bool { return f.Nickname == nickname })
}

func (r memFixed) GetByNumber(ctx context.Context, number int) (*domain.FixedNumber, error) {
	return r.find(func(f *domain.FixedNumber) bool { return f.Number == number })
}

func (r memFixed) List(ctx context.Context) ([]*domain.FixedNumber, error) {
	defer r.m.lock()()
	var out []*domain.FixedNumber
	for _, f := range r.m.db.st.fixed {
		c := *f
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (r memFixed) ListNumbers(ctx context.Context) ([]int, error) {
	defer r.m.lock()()
	var out []int
	for _, f := range r.m.db.st.fixed {
		out = append(out, f.Number)
	}
	return out, nil
}

func (r memFixed) Delete(ctx context.Context, id string) error {
	defer r.m.lock()()
	if _, ok := r.m.db.st.fixed[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.m.db.st.fixed, id)
	return nil
}
