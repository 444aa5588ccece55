// Package domain contains the core domain types for the pool context.
package domain

import (
	"bytes"

	"github.com/fd1az/lp-deposit/internal/asset"
)

// PoolOrdering records which of the two pool tokens is the canonical
// token0 (lower address) and which is token1. Ticks and raw prices are
// always expressed as canonical1 priced in canonical0, independent of
// which token the user currently displays as the quote currency.
//
// Computed once per pair, never mutated.
type PoolOrdering struct {
	canonical0 *asset.Asset
	canonical1 *asset.Asset
}

// NewPoolOrdering derives the canonical ordering for a token pair by
// address byte comparison.
func NewPoolOrdering(a, b *asset.Asset) PoolOrdering {
	if a == nil || b == nil {
		panic("pool: nil asset in ordering")
	}
	addrA := a.ID().Address()
	addrB := b.ID().Address()
	if bytes.Compare(addrA.Bytes(), addrB.Bytes()) < 0 {
		return PoolOrdering{canonical0: a, canonical1: b}
	}
	return PoolOrdering{canonical0: b, canonical1: a}
}

// Canonical0 returns the lower-address pool token.
func (o PoolOrdering) Canonical0() *asset.Asset { return o.canonical0 }

// Canonical1 returns the higher-address pool token.
func (o PoolOrdering) Canonical1() *asset.Asset { return o.canonical1 }

// IsCanonical0 reports whether the given token is the pool's canonical
// token0. Identity is by chain and address, never by symbol.
func (o PoolOrdering) IsCanonical0(a *asset.Asset) bool {
	return a != nil && a.ID().Equals(o.canonical0.ID())
}

// Contains reports whether the token is one of the pair's members.
func (o PoolOrdering) Contains(a *asset.Asset) bool {
	if a == nil {
		return false
	}
	return a.ID().Equals(o.canonical0.ID()) || a.ID().Equals(o.canonical1.ID())
}
