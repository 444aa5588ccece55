// Package ui provides the Bubble Tea TUI for the deposit orchestrator.
package ui

import (
	depositapp "github.com/fd1az/lp-deposit/business/deposit/app"
	depositdomain "github.com/fd1az/lp-deposit/business/deposit/domain"
	pooldomain "github.com/fd1az/lp-deposit/business/pool/domain"
)

// Message types for TUI updates

// TickMsg is sent periodically for animations and timers.
type TickMsg struct{}

// PoolStateMsg carries a fresh slot0 read.
type PoolStateMsg struct {
	State *pooldomain.PoolState
	Err   error
}

// RangeResolvedMsg carries a preset resolved against the live pool tick.
type RangeResolvedMsg struct {
	Preset pooldomain.RangePreset
	Range  pooldomain.TickRange
	Err    error
}

// QuoteMsg carries a debounced paired-amount result.
type QuoteMsg struct {
	Result depositapp.QuoteResult
}

// MachineEventMsg carries a state machine event from the event bus.
type MachineEventMsg struct {
	Event depositdomain.Event
}

// OpDoneMsg signals that a machine operation finished.
type OpDoneMsg struct {
	Err error
}

// ErrorMsg is sent when an error occurs outside a machine operation.
type ErrorMsg struct {
	Error error
}
