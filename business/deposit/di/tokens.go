// Package di contains dependency injection tokens for the deposit context.
package di

import (
	"github.com/fd1az/lp-deposit/business/deposit/app"
	"github.com/fd1az/lp-deposit/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Machine  = di.NewToken[*app.Machine]("deposit.Machine")
	Tracker  = di.NewToken[*app.Tracker]("deposit.Tracker")
	EventBus = di.NewToken[*app.EventBus]("deposit.EventBus")
)

// Private dependency tokens - internal to deposit module
var (
	Preparer = di.NewToken[app.TransactionPreparer]("deposit:preparer")
	Wallet   = di.NewToken[app.WalletSigner]("deposit:wallet")
)

// Helper functions for type-safe access
func GetMachine(c di.ServiceRegistry) *app.Machine {
	return di.GetToken(c, Machine)
}

func GetTracker(c di.ServiceRegistry) *app.Tracker {
	return di.GetToken(c, Tracker)
}

func GetEventBus(c di.ServiceRegistry) *app.EventBus {
	return di.GetToken(c, EventBus)
}

func GetPreparer(c di.ServiceRegistry) app.TransactionPreparer {
	return di.GetToken(c, Preparer)
}

func GetWallet(c di.ServiceRegistry) app.WalletSigner {
	return di.GetToken(c, Wallet)
}
