package summary

import (
	"errors"
	"fmt"

	"github.com/roach88/summa/internal/ir"
)

// DefaultCapacity is the maximum number of summaries kept per method.
const DefaultCapacity = 100

// Summary is a committed (Footprint, Ledger) pair. It is never mutated
// after commit.
type Summary struct {
	Method    ir.MethodID
	Index     int
	Footprint *Footprint
	Ledger    *Ledger
}

// CapacityError is returned when a commit would exceed the per-method cap.
type CapacityError struct {
	Method   ir.MethodID
	Capacity int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("summary store: method %s already holds %d summaries", e.Method, e.Capacity)
}

// IsCapacityError returns true if err is a CapacityError.
func IsCapacityError(err error) bool {
	var ce *CapacityError
	return errors.As(err, &ce)
}

// Store holds the committed summaries of one run, per method, in commit
// order. Methods are reported in the order their first summary arrived.
type Store struct {
	capacity int
	buckets  map[ir.MethodID][]*Summary
	methods  []ir.MethodID
}

// NewStore creates an empty store. A capacity outside 1..DefaultCapacity
// selects DefaultCapacity.
func NewStore(capacity int) *Store {
	return &Store{
		capacity: ClampCapacity(capacity),
		buckets:  make(map[ir.MethodID][]*Summary),
	}
}

// ClampCapacity bounds a requested per-method cap to 1..DefaultCapacity.
// Non-positive values select DefaultCapacity.
func ClampCapacity(capacity int) int {
	if capacity <= 0 || capacity > DefaultCapacity {
		return DefaultCapacity
	}
	return capacity
}

// Capacity returns the per-method cap.
func (s *Store) Capacity() int { return s.capacity }

// Has reports whether m has at least one summary.
func (s *Store) Has(m ir.MethodID) bool { return len(s.buckets[m]) > 0 }

// Len returns the number of summaries held for m.
func (s *Store) Len(m ir.MethodID) int { return len(s.buckets[m]) }

// CanAcceptMore reports whether another summary for m fits under the cap.
func (s *Store) CanAcceptMore(m ir.MethodID) bool { return len(s.buckets[m]) < s.capacity }

// Add commits a summary for m. Exceeding the cap is a hard error; callers
// check CanAcceptMore first.
func (s *Store) Add(m ir.MethodID, fp *Footprint, l *Ledger) (*Summary, error) {
	bucket := s.buckets[m]
	if len(bucket) >= s.capacity {
		return nil, &CapacityError{Method: m, Capacity: s.capacity}
	}
	if len(bucket) == 0 {
		s.methods = append(s.methods, m)
	}
	sum := &Summary{Method: m, Index: len(bucket), Footprint: fp, Ledger: l}
	s.buckets[m] = append(bucket, sum)
	return sum, nil
}

// FindMatch returns the first summary for m, in commit order, whose
// footprint matches the call.
func (s *Store) FindMatch(state LiveState, m ir.MethodID, args []ir.Value, callee ir.ObjectRef, isolated bool) (*Summary, bool) {
	for _, sum := range s.buckets[m] {
		if sum.Footprint.Matches(state, args, callee, isolated) {
			return sum, true
		}
	}
	return nil, false
}

// Methods returns methods with at least one summary in first-commit order.
func (s *Store) Methods() []ir.MethodID { return s.methods }

// Summaries returns m's summaries in commit order.
func (s *Store) Summaries(m ir.MethodID) []*Summary { return s.buckets[m] }
