package runtime

import (
	"sync"
	"time"

	"github.com/Nigelli/laikaboss/internal/scanerr"
)

// Limits is the config-declared set of resource caps spec.md §4.4
// requires ("config-declared; no silent defaults"). Every field must be
// set explicitly by the caller; there are no package-level defaults.
type Limits struct {
	MaxDepth           int
	MaxObjects         int
	MaxBytes           int64
	ScanTime           time.Duration
	ModuleTime         time.Duration
	MaxChildSize       int64
	MaxChildrenPerCall int
}

// Budget tracks one scan's consumption against Limits and is shared by
// every module invocation within that scan (spec.md §4.4 "Resource caps").
// It is only ever touched by the single goroutine driving one scan, except
// for the brief window where a module's own goroutine is still running
// past its timeout and about to be abandoned — Budget's counters are only
// mutated by the driver after a module call returns, never by the module
// goroutine itself, so the timeout machinery in runner.go never writes
// them concurrently; AdmitObject and ObjectCount still take mu.
type Budget struct {
	Limits Limits

	mu        sync.Mutex
	objects   int
	bytes     int64
	startTime time.Time
}

// NewBudget starts a fresh budget at the given scan start time.
func NewBudget(limits Limits, start time.Time) *Budget {
	return &Budget{Limits: limits, startTime: start}
}

// ScanTimeExceeded reports whether the wall-clock scan_time cap has been
// hit (spec.md §4.4, checked "between module invocations and inside the
// enqueue loop").
func (b *Budget) ScanTimeExceeded() bool {
	return time.Since(b.startTime) > b.Limits.ScanTime
}

// AdmitObject attempts to reserve space for one more object of the given
// size. It returns a *scanerr.ResourceExceeded describing whichever cap
// was hit first (objects before bytes), or nil if the object was admitted.
func (b *Budget) AdmitObject(size int) *scanerr.ResourceExceeded {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.objects+1 > b.Limits.MaxObjects {
		return &scanerr.ResourceExceeded{Cap: scanerr.CapObjects, Limit: int64(b.Limits.MaxObjects), Got: int64(b.objects + 1)}
	}
	if b.bytes+int64(size) > b.Limits.MaxBytes {
		return &scanerr.ResourceExceeded{Cap: scanerr.CapBytes, Limit: b.Limits.MaxBytes, Got: b.bytes + int64(size)}
	}

	b.objects++
	b.bytes += int64(size)
	return nil
}

// ObjectCount reports the number of objects admitted so far.
func (b *Budget) ObjectCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.objects
}

// ModuleTimeoutFor resolves the effective per-module timeout: per-scan
// override, then per-rule-action override, then module default, then the
// framework default (spec.md §4.4 step 2's override chain, mirrored from
// §4.4 step 3's option-merge chain).
func ModuleTimeoutFor(perScan, perAction, moduleDefault, frameworkDefault time.Duration) time.Duration {
	switch {
	case perScan > 0:
		return perScan
	case perAction > 0:
		return perAction
	case moduleDefault > 0:
		return moduleDefault
	default:
		return frameworkDefault
	}
}
