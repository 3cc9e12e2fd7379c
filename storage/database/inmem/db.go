package inmemdb

import (
	"sync"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/admissions/core/applicant"
	"github.com/trezcool/admissions/core/catalog"
	"github.com/trezcool/admissions/core/staff"
)

type (
	groupRow struct {
		ID         int
		SubjectID  int
		ExamDate   time.Time
		RoomNumber null.String
	}

	memberKey struct {
		groupID     int
		applicantID int
	}

	memberRow struct {
		subjectID int
		score     null.Float64
	}

	intSet map[int]struct{}

	// state is one consistent version of every table.
	state struct {
		subjects          map[int]catalog.Subject
		specialties       map[int]catalog.Specialty
		specialtySubjects map[int]intSet // specialty -> subjects
		applicants        map[int]applicant.Applicant
		staff             map[int]staff.Staff
		groups            map[int]groupRow
		groupTeachers     map[int]intSet // group -> teachers
		members           map[memberKey]memberRow
		seq               map[string]int
	}
)

func newState() *state {
	return &state{
		subjects:          make(map[int]catalog.Subject),
		specialties:       make(map[int]catalog.Specialty),
		specialtySubjects: make(map[int]intSet),
		applicants:        make(map[int]applicant.Applicant),
		staff:             make(map[int]staff.Staff),
		groups:            make(map[int]groupRow),
		groupTeachers:     make(map[int]intSet),
		members:           make(map[memberKey]memberRow),
		seq:               make(map[string]int),
	}
}

func (s intSet) clone() intSet {
	c := make(intSet, len(s))
	for k := range s {
		c[k] = struct{}{}
	}
	return c
}

func (st *state) clone() *state {
	c := newState()
	for k, v := range st.subjects {
		c.subjects[k] = v
	}
	for k, v := range st.specialties {
		c.specialties[k] = v
	}
	for k, v := range st.specialtySubjects {
		c.specialtySubjects[k] = v.clone()
	}
	for k, v := range st.applicants {
		c.applicants[k] = v
	}
	for k, v := range st.staff {
		c.staff[k] = v
	}
	for k, v := range st.groups {
		c.groups[k] = v
	}
	for k, v := range st.groupTeachers {
		c.groupTeachers[k] = v.clone()
	}
	for k, v := range st.members {
		c.members[k] = v
	}
	for k, v := range st.seq {
		c.seq[k] = v
	}
	return c
}

func (st *state) nextID(table string) int {
	st.seq[table]++
	return st.seq[table]
}

// DB is an in-memory database. Writes are applied to a copy of the current state
// which replaces it only if the whole write succeeds, so a failed transaction leaves no trace.
type DB struct {
	mu sync.RWMutex
	st *state

	faultMu sync.Mutex
	faults  map[string]*fault
}

func NewDB() *DB {
	return &DB{st: newState(), faults: make(map[string]*fault)}
}

// Reset drops all data and faults.
func (db *DB) Reset() {
	db.mu.Lock()
	db.st = newState()
	db.mu.Unlock()
	db.ClearFaults()
}

func (db *DB) runInTx(fn func(st *state) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	next := db.st.clone()
	if err := fn(next); err != nil {
		return err
	}
	db.st = next
	return nil
}

// conn runs queries either against the committed state or inside a transaction.
type conn struct {
	db *DB
	tx *state
}

func (c conn) view(fn func(st *state) error) error {
	if c.tx != nil {
		return fn(c.tx)
	}
	c.db.mu.RLock()
	defer c.db.mu.RUnlock()
	return fn(c.db.st)
}

func (c conn) update(fn func(st *state) error) error {
	if c.tx != nil {
		return fn(c.tx)
	}
	return c.db.runInTx(fn)
}

type fault struct {
	after int
	calls int
	err   error
}

// FailOn makes the operation op fail with err once it has succeeded `after` times.
// Operations: "membership.delete", "membership.insert", "membership.score", "catalog.subjects".
func (db *DB) FailOn(op string, after int, err error) {
	db.faultMu.Lock()
	defer db.faultMu.Unlock()
	db.faults[op] = &fault{after: after, err: err}
}

func (db *DB) ClearFaults() {
	db.faultMu.Lock()
	defer db.faultMu.Unlock()
	db.faults = make(map[string]*fault)
}

func (db *DB) fault(op string) error {
	db.faultMu.Lock()
	defer db.faultMu.Unlock()

	f, ok := db.faults[op]
	if !ok {
		return nil
	}
	f.calls++
	if f.calls > f.after {
		return f.err
	}
	return nil
}
