// Package deposit implements the deposit bounded context: the
// authorization state machine, completion tracking, and debounced
// quoting over a configured pool.
package deposit

import (
	"context"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/fd1az/lp-deposit/business/deposit/app"
	depositDI "github.com/fd1az/lp-deposit/business/deposit/di"
	depositEth "github.com/fd1az/lp-deposit/business/deposit/infra/ethereum"
	poolDI "github.com/fd1az/lp-deposit/business/pool/di"
	"github.com/fd1az/lp-deposit/internal/config"
	"github.com/fd1az/lp-deposit/internal/di"
	"github.com/fd1az/lp-deposit/internal/logger"
	"github.com/fd1az/lp-deposit/internal/monolith"
	"github.com/fd1az/lp-deposit/internal/ratelimit"
)

// Infra-typed private tokens live here rather than in the di package,
// which only deals in app types.
var (
	localWalletToken = di.NewToken[*depositEth.Wallet]("deposit:localWallet")
	confirmerToken   = di.NewToken[*depositEth.Confirmer]("deposit:confirmer")
)

// Module implements the deposit bounded context.
type Module struct{}

// RegisterServices registers all deposit services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Concrete wallet - private. The preparer needs its address and the
	// confirmer hooks into its receipt polling, so the concrete type is
	// registered separately from the WalletSigner port.
	di.RegisterToken(c, localWalletToken, func(sr di.ServiceRegistry) *depositEth.Wallet {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		ethClient := sr.Get("ethClient").(*ethclient.Client)

		keyHex := strings.TrimPrefix(cfg.Wallet.PrivateKey, "0x")
		if keyHex == "" {
			panic("wallet private key is not configured (set LPD_WALLET_KEY)")
		}
		key, err := crypto.HexToECDSA(keyHex)
		if err != nil {
			panic("invalid wallet private key: " + err.Error())
		}

		wallet, err := depositEth.NewWallet(context.Background(), ethClient, key, depositEth.WalletConfig{
			ChainID:         int64(cfg.Ethereum.ChainID),
			ReceiptTimeout:  cfg.Deposit.ReceiptTimeout,
			ReceiptInterval: cfg.Deposit.ReceiptInterval,
		}, log)
		if err != nil {
			panic("failed to create wallet: " + err.Error())
		}

		if cfg.Ethereum.WebSocketURL != "" {
			wallet.SetWakeSignal(di.GetToken(sr, confirmerToken).Heads())
		}
		return wallet
	})

	// Confirmer - private, only registered into the graph when a
	// WebSocket URL is configured.
	di.RegisterToken(c, confirmerToken, func(sr di.ServiceRegistry) *depositEth.Confirmer {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		confirmer, err := depositEth.NewConfirmer(cfg.Ethereum.WebSocketURL, log)
		if err != nil {
			panic("failed to create block confirmer: " + err.Error())
		}
		return confirmer
	})

	// WalletSigner port - private.
	di.RegisterToken(c, depositDI.Wallet, func(sr di.ServiceRegistry) app.WalletSigner {
		return di.GetToken(sr, localWalletToken)
	})

	// TransactionPreparer - private.
	di.RegisterToken(c, depositDI.Preparer, func(sr di.ServiceRegistry) app.TransactionPreparer {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		ethClient := sr.Get("ethClient").(*ethclient.Client)

		ordering := poolDI.GetPoolService(sr).Ordering()
		limiter := ratelimit.New(cfg.Ethereum.RequestsPerMin)

		preparer, err := depositEth.NewPreparer(ethClient, ordering, depositEth.PreparerConfig{
			Owner:           di.GetToken(sr, localWalletToken).Address(),
			Permit2:         cfg.Contracts.Permit2AddressHex(),
			PositionManager: cfg.Contracts.PositionManagerAddressHex(),
			FeeTier:         int64(cfg.Pool.FeeTier),
			ChainID:         int64(cfg.Ethereum.ChainID),
			SlippageBps:     int64(cfg.Deposit.SlippageBps),
			Deadline:        cfg.Deposit.Deadline,
			PermitExpiry:    cfg.Deposit.PermitExpiry,
		}, limiter, log)
		if err != nil {
			panic("failed to create transaction preparer: " + err.Error())
		}
		return preparer
	})

	// EventBus (public - the UI subscribes to machine events)
	di.RegisterToken(c, depositDI.EventBus, func(sr di.ServiceRegistry) *app.EventBus {
		return app.NewEventBus()
	})

	// Machine (public)
	di.RegisterToken(c, depositDI.Machine, func(sr di.ServiceRegistry) *app.Machine {
		log := sr.Get("logger").(logger.LoggerInterface)
		bus := depositDI.GetEventBus(sr)

		return app.NewMachine(
			depositDI.GetPreparer(sr),
			depositDI.GetWallet(sr),
			log,
			bus.Publish,
		)
	})

	// Tracker (public)
	di.RegisterToken(c, depositDI.Tracker, func(sr di.ServiceRegistry) *app.Tracker {
		return app.NewTracker(depositDI.GetMachine(sr))
	})

	return nil
}

// Startup initializes the deposit module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	cfg := mono.Config()

	if cfg.Ethereum.WebSocketURL != "" {
		confirmer := di.GetToken(mono.Services(), confirmerToken)
		if err := confirmer.Start(ctx); err != nil {
			// Receipt polling works without block signals; degrade.
			log.Warn(ctx, "block confirmer unavailable, falling back to interval polling", "error", err)
		}
	}

	machine := depositDI.GetMachine(mono.Services())
	log.Info(ctx, "deposit module started", "phase", machine.State().Phase())
	return nil
}
