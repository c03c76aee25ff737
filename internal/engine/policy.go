package engine

import (
	"slices"
	"strings"

	"github.com/roach88/summa/internal/ir"
	"github.com/roach88/summa/internal/summary"
)

// Abort and blacklist reasons reported in the interruption counter.
const (
	ReasonArrayReturn   = "array type"
	ReasonArrayArgument = "array argument"
	ReasonConstructor   = ir.ConstructorName
	ReasonInitializer   = ir.InitializerName
	ReasonBlacklisted   = "blacklisted"
	ReasonFaultyThis    = "faulty this"
	ReasonSharedRead    = "shared field read"
	ReasonSharedWrite   = "shared field write"
	ReasonArrayField    = "array field"
	ReasonNative        = "native method"
)

// Policy is the tunable part of the recording rules.
type Policy struct {
	// Capacity is the per-method summary cap. Values outside
	// 1..summary.DefaultCapacity select summary.DefaultCapacity.
	Capacity int
	// NativeAllowList names native methods that do not disqualify.
	NativeAllowList []string
	// Blacklist seeds the blacklist of every run.
	Blacklist []ir.MethodID
	// BlacklistPatterns disqualify any method whose identity contains one.
	BlacklistPatterns []string
	// EntryMethod, when set, keeps the engine dormant in each run until
	// that method is entered.
	EntryMethod ir.MethodID
}

// DefaultPolicy returns the stock recording rules.
func DefaultPolicy() Policy {
	return Policy{
		Capacity:          summary.DefaultCapacity,
		NativeAllowList:   []string{"matches", "desiredAssertionStatus", "print", "println", "min", "max"},
		Blacklist:         []ir.MethodID{"java.lang.Integer.intValue()I"},
		BlacklistPatterns: []string{"$$", "Verify", "java.util.concurrent.locks", "reflect"},
	}
}

func (p Policy) allowsNative(name string) bool {
	return slices.Contains(p.NativeAllowList, name)
}

// disqualify returns the reason m can never be summarized, or "".
func (p Policy) disqualify(m ir.MethodInfo) string {
	if m.ArrayReturn {
		return ReasonArrayReturn
	}
	switch m.SimpleName() {
	case ir.ConstructorName:
		return ReasonConstructor
	case ir.InitializerName:
		return ReasonInitializer
	}
	for _, pattern := range p.BlacklistPatterns {
		if pattern != "" && strings.Contains(string(m.ID), pattern) {
			return ReasonBlacklisted
		}
	}
	if m.ArrayArgument {
		return ReasonArrayArgument
	}
	return ""
}
