// Package di contains dependency injection tokens for the pool context.
package di

import (
	"github.com/fd1az/lp-deposit/business/pool/app"
	"github.com/fd1az/lp-deposit/internal/di"
)

// Public service tokens - exposed to other modules
var (
	PoolService = di.NewToken[*app.PoolService]("pool.PoolService")
)

// Private dependency tokens - internal to pool module
var (
	StateReader         = di.NewToken[app.PoolStateReader]("pool:stateReader")
	LiquidityCalculator = di.NewToken[app.LiquidityCalculator]("pool:liquidityCalculator")
)

// Helper functions for type-safe access
func GetPoolService(c di.ServiceRegistry) *app.PoolService {
	return di.GetToken(c, PoolService)
}

func GetStateReader(c di.ServiceRegistry) app.PoolStateReader {
	return di.GetToken(c, StateReader)
}

func GetLiquidityCalculator(c di.ServiceRegistry) app.LiquidityCalculator {
	return di.GetToken(c, LiquidityCalculator)
}
