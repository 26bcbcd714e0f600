// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

package sharedstorage

import "testing"

// =============================================================================
// S2 — basic claims
// =============================================================================

func TestSimpleResourceProvider_BasicClaims(t *testing.T) {
	p := NewSimpleResourceProvider(5, 100)

	var claims []*Claim
	for i := 0; i < 5; i++ {
		result := p.Claim(10)
		if result.Outcome != ClaimOK {
			t.Fatalf("claim %d: expected Ok, got %v", i, result.Outcome)
		}
		claims = append(claims, result.Claim)
	}
	if got := p.ClaimsInUse(); got != 5 {
		t.Errorf("ClaimsInUse() = %d, want 5", got)
	}
	if got := p.SpaceInUse(); got != 50 {
		t.Errorf("SpaceInUse() = %d, want 50", got)
	}

	for _, c := range claims {
		p.Release(c)
	}
	if got := p.ClaimsInUse(); got != 0 {
		t.Errorf("ClaimsInUse() after release = %d, want 0", got)
	}
	if got := p.SpaceInUse(); got != 0 {
		t.Errorf("SpaceInUse() after release = %d, want 0", got)
	}
}

// =============================================================================
// S3 — busy on space
// =============================================================================

func TestSimpleResourceProvider_BusyOnSpace(t *testing.T) {
	p := NewSimpleResourceProvider(2, 10)

	first := p.Claim(10)
	if first.Outcome != ClaimOK {
		t.Fatalf("first claim: expected Ok, got %v", first.Outcome)
	}
	defer p.Release(first.Claim)
	result := p.Claim(1)
	if result.Outcome != ClaimBusy {
		t.Errorf("second claim exceeding soft space cap: expected Busy, got %v", result.Outcome)
	}
}

// =============================================================================
// S4 — impossible vs busy
// =============================================================================

func TestSimpleResourceProvider_ImpossibleVsBusy(t *testing.T) {
	p := NewSimpleResourceProvider(5, 1000, WithMaxSpace(50))

	ok := p.Claim(50)
	if ok.Outcome != ClaimOK {
		t.Fatalf("claim at exactly max_space: expected Ok, got %v", ok.Outcome)
	}
	defer p.Release(ok.Claim)
	impossible := p.Claim(100)
	if impossible.Outcome != ClaimImpossible {
		t.Errorf("claim exceeding max_space: expected Impossible, got %v", impossible.Outcome)
	}
}

// =============================================================================
// S5 — oversize lone claim
// =============================================================================

func TestSimpleResourceProvider_OversizeLoneClaim(t *testing.T) {
	p := NewSimpleResourceProvider(1, 10)

	result := p.Claim(100)
	if result.Outcome != ClaimOK {
		t.Errorf("lone oversize claim should bypass the soft space cap: expected Ok, got %v", result.Outcome)
	}
	p.Release(result.Claim)
}

func TestSimpleResourceProvider_BusyOnClaimCount(t *testing.T) {
	p := NewSimpleResourceProvider(1, 1000)

	first := p.Claim(1)
	if first.Outcome != ClaimOK {
		t.Fatalf("first claim: expected Ok, got %v", first.Outcome)
	}
	second := p.Claim(1)
	if second.Outcome != ClaimBusy {
		t.Errorf("claim beyond max_claims: expected Busy, got %v", second.Outcome)
	}
	p.Release(first.Claim)
	third := p.Claim(1)
	if third.Outcome != ClaimOK {
		t.Errorf("claim after release: expected Ok, got %v", third.Outcome)
	}
	p.Release(third.Claim)
}

func TestSimpleResourceProvider_ReleaseIsIdempotent(t *testing.T) {
	p := NewSimpleResourceProvider(2, 100)
	result := p.Claim(10)
	if result.Outcome != ClaimOK {
		t.Fatalf("claim: expected Ok, got %v", result.Outcome)
	}
	p.Release(result.Claim)
	p.Release(result.Claim) // must not double-decrement counters
	if got := p.ClaimsInUse(); got != 0 {
		t.Errorf("ClaimsInUse() after double release = %d, want 0", got)
	}
}
