// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

package sharedstorage

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// ClaimOutcome discriminates the three-way result of Provider.Claim. It is a
// sum type; callers must branch on Outcome rather than assume Ok.
type ClaimOutcome int

const (
	// ClaimOK delivers an owning admission token in the accompanying Claim.
	ClaimOK ClaimOutcome = iota
	// ClaimBusy means the budget is momentarily full; the caller should wait
	// for an in-flight claim to release and retry.
	ClaimBusy
	// ClaimImpossible means no future retry can ever succeed for this size
	// (e.g. it exceeds a hard per-claim cap); the caller must abort.
	ClaimImpossible
)

func (o ClaimOutcome) String() string {
	switch o {
	case ClaimOK:
		return "Ok"
	case ClaimBusy:
		return "Busy"
	case ClaimImpossible:
		return "Impossible"
	default:
		return "Unknown"
	}
}

// ClaimResult is the return value of Provider.Claim: an outcome, and when the
// outcome is ClaimOK, the admitted Claim.
type ClaimResult struct {
	Outcome ClaimOutcome
	Claim   *Claim
}

// Provider is the resource-budget contract the import engine claims space
// and concurrency slots against before hashing and persisting a file. It is
// deliberately advisory beyond the claim/release pair: the four predicates
// are snapshots, not transactionally accurate.
type Provider interface {
	// Claim requests admission for a payload of the given size. It never
	// blocks; Busy signals the caller should wait for a completion and
	// retry, Impossible signals no retry can ever succeed.
	Claim(size uint64) ClaimResult

	// Release returns a previously admitted Claim's resources to the
	// budget. Every admitted Claim must be released exactly once.
	Release(c *Claim)

	ClaimsInUse() uint64
	SpareClaims() uint64
	SpaceInUse() uint64
	SpareSpace() uint64
}

// Claim is the admission token returned by Provider.Claim. It carries a
// uuid purely for log correlation; admission-control logic never inspects
// it. Claim has no public fields to prevent construction outside a
// Provider.
type Claim struct {
	id       uuid.UUID
	size     uint64
	released atomic.Bool
	provider *SimpleResourceProvider
}

// ID returns the claim's correlation identifier.
func (c *Claim) ID() uuid.UUID { return c.id }

// Size returns the size this claim was admitted for.
func (c *Claim) Size() uint64 { return c.size }

// markReleased records that Release has run, for the finalizer check below.
// It is safe to call more than once; only the first call has effect on the
// provider's counters, performed by the caller (Provider.Release).
func (c *Claim) markReleased() bool {
	return c.released.CompareAndSwap(false, true)
}

// newClaimFinalizer installs a best-effort panic-on-drop guard mirroring the
// Rust Drop-based enforcement as closely as Go's GC allows: finalizers are
// not guaranteed to run promptly, or at all, before process exit, so this is
// a diagnostic safety net, not the authoritative contract. The authoritative
// contract is the explicit Release call; tests assert that, not finalizer
// timing.
func newClaimFinalizer(c *Claim) {
	runtime.SetFinalizer(c, func(c *Claim) {
		if !c.released.Load() {
			panic("sharedstorage: Claim finalized without Release — every admitted handle must be released exactly once")
		}
	})
}

// SimpleResourceProvider is the reference Provider policy from spec.md §4.D
// and §9: a hard cap on concurrent claims, a soft cap on total in-flight
// size that is suspended while no claim is outstanding, and an optional hard
// per-claim size cap.
type SimpleResourceProvider struct {
	maxClaims uint64
	space     uint64
	maxSpace  uint64 // 0 means unset

	mu         sync.Mutex
	claimsUsed uint64
	spaceUsed  uint64
}

// SimpleResourceProviderOption configures a SimpleResourceProvider at
// construction, following the teacher's functional-options convention.
type SimpleResourceProviderOption func(*SimpleResourceProvider)

// WithMaxSpace sets a hard per-claim size cap: any claim larger than max is
// Impossible regardless of current usage.
func WithMaxSpace(max uint64) SimpleResourceProviderOption {
	return func(p *SimpleResourceProvider) { p.maxSpace = max }
}

// NewSimpleResourceProvider returns a provider admitting at most maxClaims
// concurrent claims and space total in-flight bytes (soft cap; suspended
// while no claim is outstanding).
func NewSimpleResourceProvider(maxClaims, space uint64, opts ...SimpleResourceProviderOption) *SimpleResourceProvider {
	p := &SimpleResourceProvider{maxClaims: maxClaims, space: space}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Claim implements Provider.Claim per spec.md §4.D / §9:
//
//  1. If maxSpace is set and size exceeds it, Impossible.
//  2. Else if claims in use equals the hard cap, Busy.
//  3. Else if a claim is already outstanding and admitting size would
//     exceed the soft space cap, Busy.
//  4. Otherwise Ok, and the claim is recorded as outstanding.
func (p *SimpleResourceProvider) Claim(size uint64) ClaimResult {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.maxSpace != 0 && size > p.maxSpace {
		return ClaimResult{Outcome: ClaimImpossible}
	}
	if p.claimsUsed == p.maxClaims {
		return ClaimResult{Outcome: ClaimBusy}
	}
	if p.claimsUsed > 0 && p.spaceUsed+size > p.space {
		return ClaimResult{Outcome: ClaimBusy}
	}

	p.claimsUsed++
	p.spaceUsed += size

	c := &Claim{id: uuid.New(), size: size, provider: p}
	newClaimFinalizer(c)
	return ClaimResult{Outcome: ClaimOK, Claim: c}
}

// Release returns c's resources to the budget. Only the first call per
// claim has effect; later calls, and a nil claim, are no-ops (the finalizer
// guard only fires on claims that were never released at all).
func (p *SimpleResourceProvider) Release(c *Claim) {
	if c == nil || !c.markReleased() {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.claimsUsed--
	p.spaceUsed -= c.size
	runtime.SetFinalizer(c, nil)
}

func (p *SimpleResourceProvider) ClaimsInUse() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.claimsUsed
}

func (p *SimpleResourceProvider) SpareClaims() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.maxClaims - p.claimsUsed
}

func (p *SimpleResourceProvider) SpaceInUse() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.spaceUsed
}

func (p *SimpleResourceProvider) SpareSpace() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.spaceUsed > p.space {
		return 0
	}
	return p.space - p.spaceUsed
}
