// Package pool implements the pool bounded context: tick/price math,
// range presets, and paired-amount calculation.
package pool

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/fd1az/lp-deposit/business/pool/app"
	poolDI "github.com/fd1az/lp-deposit/business/pool/di"
	"github.com/fd1az/lp-deposit/business/pool/domain"
	poolEth "github.com/fd1az/lp-deposit/business/pool/infra/ethereum"
	"github.com/fd1az/lp-deposit/business/pool/infra/quoteapi"
	"github.com/fd1az/lp-deposit/internal/asset"
	"github.com/fd1az/lp-deposit/internal/config"
	"github.com/fd1az/lp-deposit/internal/di"
	"github.com/fd1az/lp-deposit/internal/logger"
	"github.com/fd1az/lp-deposit/internal/monolith"
	"github.com/fd1az/lp-deposit/internal/ratelimit"
)

// Module implements the pool bounded context.
type Module struct{}

// RegisterServices registers all pool services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register PoolStateReader - private dependency
	di.RegisterToken(c, poolDI.StateReader, func(sr di.ServiceRegistry) app.PoolStateReader {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		ethClient := sr.Get("ethClient").(*ethclient.Client)

		limiter := ratelimit.New(cfg.Ethereum.RequestsPerMin)

		reader, err := poolEth.NewReader(ethClient, cfg.Pool.PoolAddressHex(), limiter, log)
		if err != nil {
			panic("failed to create pool state reader: " + err.Error())
		}
		return reader
	})

	// Register LiquidityCalculator - private dependency. The external
	// quote API takes priority when enabled; otherwise amounts are
	// derived locally from slot0.
	di.RegisterToken(c, poolDI.LiquidityCalculator, func(sr di.ServiceRegistry) app.LiquidityCalculator {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		if cfg.QuoteAPI.Enabled {
			calc, err := quoteapi.NewCalculator(quoteapi.Config{
				BaseURL: cfg.QuoteAPI.BaseURL,
				Timeout: cfg.QuoteAPI.Timeout,
			}, log)
			if err != nil {
				panic("failed to create quote API calculator: " + err.Error())
			}
			return calc
		}

		return poolEth.NewCalculator(poolDI.GetStateReader(sr), log)
	})

	// Register PoolService (public - exposed to other modules)
	di.RegisterToken(c, poolDI.PoolService, func(sr di.ServiceRegistry) *app.PoolService {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		registry := sr.Get("assetRegistry").(*asset.Registry)

		ordering, err := orderingFromConfig(cfg, registry)
		if err != nil {
			panic("failed to resolve pool pair: " + err.Error())
		}

		return app.NewPoolService(
			ordering,
			cfg.Pool.TickSpacing,
			poolDI.GetStateReader(sr),
			poolDI.GetLiquidityCalculator(sr),
			log,
		)
	})

	return nil
}

// Startup initializes the pool module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	svc := poolDI.GetPoolService(mono.Services())
	ord := svc.Ordering()

	log.Info(ctx, "pool module started",
		"token0", ord.Canonical0().Symbol(),
		"token1", ord.Canonical1().Symbol(),
		"tick_spacing", svc.TickSpacing(),
	)
	return nil
}

// orderingFromConfig resolves the configured pair symbols through the
// asset registry and derives the canonical ordering.
func orderingFromConfig(cfg *config.Config, registry *asset.Registry) (domain.PoolOrdering, error) {
	chainID := cfg.Ethereum.ChainID

	a, ok := registry.GetBySymbolAndChain(cfg.Pool.Token0Symbol, chainID)
	if !ok {
		return domain.PoolOrdering{}, fmt.Errorf("unknown token %s on chain %d", cfg.Pool.Token0Symbol, chainID)
	}
	b, ok := registry.GetBySymbolAndChain(cfg.Pool.Token1Symbol, chainID)
	if !ok {
		return domain.PoolOrdering{}, fmt.Errorf("unknown token %s on chain %d", cfg.Pool.Token1Symbol, chainID)
	}
	if a.Equals(b) {
		return domain.PoolOrdering{}, fmt.Errorf("pool pair must be two distinct tokens, got %s twice", a.Symbol())
	}

	return domain.NewPoolOrdering(a, b), nil
}
