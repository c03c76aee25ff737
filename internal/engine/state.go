package engine

import (
	"slices"

	"github.com/roach88/summa/internal/ir"
	"github.com/roach88/summa/internal/stats"
	"github.com/roach88/summa/internal/summary"
)

// blacklistEntry records why a method was blacklisted. Intrinsic entries
// come from the method itself (signature, name, policy seed); entering
// such a method again poisons whatever is recording at the time.
type blacklistEntry struct {
	reason    string
	intrinsic bool
}

type pending struct {
	footprint *summary.Footprint
	ledger    *summary.Ledger
}

// runState is everything that lives for exactly one run.
type runState struct {
	id      string
	label   string
	dormant bool

	store    *summary.Store
	counters *stats.Ledger

	blacklist map[ir.MethodID]blacklistEntry
	recorded  map[ir.MethodID]bool
	recording []ir.MethodID
	pending   map[ir.MethodID]*pending
}

func newRunState(p Policy, id, label string) *runState {
	rs := &runState{
		id:        id,
		label:     label,
		dormant:   p.EntryMethod != "",
		store:     summary.NewStore(p.Capacity),
		counters:  stats.NewLedger(),
		blacklist: make(map[ir.MethodID]blacklistEntry),
		recorded:  make(map[ir.MethodID]bool),
		pending:   make(map[ir.MethodID]*pending),
	}
	for _, m := range p.Blacklist {
		rs.blacklist[m] = blacklistEntry{reason: ReasonBlacklisted, intrinsic: true}
	}
	return rs
}

func (rs *runState) isRecording(m ir.MethodID) bool {
	return slices.Contains(rs.recording, m)
}

func (rs *runState) startRecording(m ir.MethodID) {
	if !rs.isRecording(m) {
		rs.recording = append(rs.recording, m)
	}
}

// stopRecording drops m from recording along with its pending state.
func (rs *runState) stopRecording(m ir.MethodID) {
	rs.recording = slices.DeleteFunc(rs.recording, func(r ir.MethodID) bool { return r == m })
	delete(rs.pending, m)
}

// clearRecording drops every recording method and returns them.
func (rs *runState) clearRecording() []ir.MethodID {
	aborted := rs.recording
	rs.recording = nil
	clear(rs.pending)
	return aborted
}
