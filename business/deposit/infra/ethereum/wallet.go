package ethereum

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/lp-deposit/business/deposit/app"
	"github.com/fd1az/lp-deposit/business/deposit/domain"
	"github.com/fd1az/lp-deposit/internal/apperror"
	"github.com/fd1az/lp-deposit/internal/asset"
	"github.com/fd1az/lp-deposit/internal/logger"
)

// Ensure Wallet implements WalletSigner.
var _ app.WalletSigner = (*Wallet)(nil)

type walletMetrics struct {
	txsTotal    metric.Int64Counter
	txErrors    metric.Int64Counter
	receiptWait metric.Float64Histogram
}

// WalletConfig carries receipt-polling policy for the wallet.
type WalletConfig struct {
	ChainID         int64
	ReceiptTimeout  time.Duration
	ReceiptInterval time.Duration
}

// Wallet signs and sends transactions with a local private key. A
// context cancelled while an operation is pending is reported as
// WALLET_REJECTED: the operator declined at the confirmation prompt.
type Wallet struct {
	client  *ethclient.Client
	key     *ecdsa.PrivateKey
	address common.Address
	chainID *big.Int
	cfg     WalletConfig

	// wake, when set, lets receipt polling re-check as soon as a new
	// block header arrives instead of waiting out the full interval.
	wake <-chan struct{}

	erc20ABI abi.ABI
	logger   logger.LoggerInterface
	tracer   trace.Tracer
	metrics  *walletMetrics
}

// NewWallet derives the signing address from key and verifies the node
// is on the expected chain; a mismatch is NETWORK_MISMATCH.
func NewWallet(ctx context.Context, client *ethclient.Client, key *ecdsa.PrivateKey, cfg WalletConfig, log logger.LoggerInterface) (*Wallet, error) {
	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, apperror.External(apperror.CodeEthereumConnectionFailed, "chain id query", err)
	}
	if chainID.Int64() != cfg.ChainID {
		return nil, apperror.Validation(apperror.CodeNetworkMismatch,
			fmt.Sprintf("node reports chain %d, configured for %d", chainID.Int64(), cfg.ChainID))
	}

	erc20, err := abi.JSON(strings.NewReader(ERC20ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ERC20 ABI: %w", err)
	}

	w := &Wallet{
		client:   client,
		key:      key,
		address:  crypto.PubkeyToAddress(key.PublicKey),
		chainID:  chainID,
		cfg:      cfg,
		erc20ABI: erc20,
		logger:   log,
		tracer:   otel.Tracer(tracerName),
	}
	if err := w.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}
	return w, nil
}

// Address returns the wallet's signing address.
func (w *Wallet) Address() common.Address {
	return w.address
}

// SetWakeSignal installs a channel whose ticks wake receipt polling
// early. Must be called before the wallet is used.
func (w *Wallet) SetWakeSignal(wake <-chan struct{}) {
	w.wake = wake
}

func (w *Wallet) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	w.metrics = &walletMetrics{}

	w.metrics.txsTotal, err = meter.Int64Counter(
		"wallet_txs_total",
		metric.WithDescription("Total transactions sent"),
	)
	if err != nil {
		return err
	}

	w.metrics.txErrors, err = meter.Int64Counter(
		"wallet_tx_errors_total",
		metric.WithDescription("Total transaction send failures"),
	)
	if err != nil {
		return err
	}

	w.metrics.receiptWait, err = meter.Float64Histogram(
		"wallet_receipt_wait_ms",
		metric.WithDescription("Time spent waiting for transaction receipts"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Approve sends an ERC20 approve for the given spender and amount.
func (w *Wallet) Approve(ctx context.Context, token *asset.Asset, spender common.Address, amount asset.Amount) (common.Hash, error) {
	ctx, span := w.tracer.Start(ctx, "wallet.approve",
		trace.WithAttributes(
			attribute.String("token", token.Symbol()),
			attribute.String("spender", spender.Hex()),
		),
	)
	defer span.End()

	data, err := w.erc20ABI.Pack("approve", spender, amount.Raw())
	if err != nil {
		return common.Hash{}, apperror.Internal(apperror.CodeContractCallFailed, "approve encoding", err)
	}

	hash, err := w.sendTx(ctx, domain.RawTransaction{
		To:    token.Address(),
		Data:  data,
		Value: big.NewInt(0),
	})
	if err != nil {
		span.SetStatus(codes.Error, "approve send failed")
		return common.Hash{}, err
	}

	w.logger.Info(ctx, "approval sent",
		"token", token.Symbol(),
		"spender", spender.Hex(),
		"tx", hash.Hex(),
	)
	return hash, nil
}

// SignTypedData hashes the EIP-712 payload and signs it with the local
// key, returning a 65-byte signature with a 27/28 recovery id.
func (w *Wallet) SignTypedData(ctx context.Context, typedData apitypes.TypedData) ([]byte, error) {
	_, span := w.tracer.Start(ctx, "wallet.sign_typed_data",
		trace.WithAttributes(attribute.String("primary_type", typedData.PrimaryType)),
	)
	defer span.End()

	if err := ctx.Err(); err != nil {
		return nil, rejectionOr(err, apperror.CodeSigningFailed, "typed data signing")
	}

	hash, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		span.SetStatus(codes.Error, "typed data hash failed")
		return nil, apperror.Internal(apperror.CodeSigningFailed, "typed data hash", err)
	}

	sig, err := crypto.Sign(hash, w.key)
	if err != nil {
		span.SetStatus(codes.Error, "signing failed")
		return nil, apperror.Internal(apperror.CodeSigningFailed, "typed data signature", err)
	}
	// On-chain verifiers expect the legacy 27/28 recovery id.
	sig[64] += 27

	return sig, nil
}

// SendRawTransaction signs and broadcasts a prepared transaction.
func (w *Wallet) SendRawTransaction(ctx context.Context, tx domain.RawTransaction) (common.Hash, error) {
	ctx, span := w.tracer.Start(ctx, "wallet.send_tx",
		trace.WithAttributes(attribute.String("to", tx.To.Hex())),
	)
	defer span.End()

	hash, err := w.sendTx(ctx, tx)
	if err != nil {
		span.SetStatus(codes.Error, "send failed")
		return common.Hash{}, err
	}

	w.logger.Info(ctx, "transaction sent", "to", tx.To.Hex(), "tx", hash.Hex())
	return hash, nil
}

func (w *Wallet) sendTx(ctx context.Context, raw domain.RawTransaction) (common.Hash, error) {
	if err := ctx.Err(); err != nil {
		return common.Hash{}, rejectionOr(err, apperror.CodeEthereumRPCError, "transaction send")
	}

	nonce, err := w.client.PendingNonceAt(ctx, w.address)
	if err != nil {
		w.metrics.txErrors.Add(ctx, 1)
		return common.Hash{}, apperror.External(apperror.CodeEthereumRPCError, "nonce query", err)
	}

	tipCap, err := w.client.SuggestGasTipCap(ctx)
	if err != nil {
		w.metrics.txErrors.Add(ctx, 1)
		return common.Hash{}, apperror.External(apperror.CodeEthereumRPCError, "gas tip query", err)
	}
	head, err := w.client.HeaderByNumber(ctx, nil)
	if err != nil {
		w.metrics.txErrors.Add(ctx, 1)
		return common.Hash{}, apperror.External(apperror.CodeEthereumRPCError, "head query", err)
	}
	// feeCap = 2*baseFee + tip leaves headroom for two max-size base
	// fee increases while the transaction is pending.
	feeCap := new(big.Int).Add(
		new(big.Int).Mul(head.BaseFee, big.NewInt(2)),
		tipCap,
	)

	value := raw.Value
	if value == nil {
		value = big.NewInt(0)
	}

	gasLimit, err := w.client.EstimateGas(ctx, ethereum.CallMsg{
		From:  w.address,
		To:    &raw.To,
		Data:  raw.Data,
		Value: value,
	})
	if err != nil {
		w.metrics.txErrors.Add(ctx, 1)
		return common.Hash{}, apperror.External(apperror.CodeGasEstimationFailed, "gas estimation", err)
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   w.chainID,
		Nonce:     nonce,
		GasTipCap: tipCap,
		GasFeeCap: feeCap,
		Gas:       gasLimit,
		To:        &raw.To,
		Value:     value,
		Data:      raw.Data,
	})

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(w.chainID), w.key)
	if err != nil {
		w.metrics.txErrors.Add(ctx, 1)
		return common.Hash{}, apperror.Internal(apperror.CodeSigningFailed, "transaction signature", err)
	}

	if err := w.client.SendTransaction(ctx, signed); err != nil {
		w.metrics.txErrors.Add(ctx, 1)
		return common.Hash{}, rejectionOr(err, apperror.CodeEthereumRPCError, "transaction broadcast")
	}

	w.metrics.txsTotal.Add(ctx, 1)
	return signed.Hash(), nil
}

// WaitForReceipt polls until the transaction confirms or the configured
// timeout elapses. A mined transaction with a failed status is
// TRANSACTION_REVERTED.
func (w *Wallet) WaitForReceipt(ctx context.Context, txHash common.Hash) error {
	ctx, span := w.tracer.Start(ctx, "wallet.wait_receipt",
		trace.WithAttributes(attribute.String("tx", txHash.Hex())),
	)
	defer span.End()

	start := time.Now()
	defer func() {
		w.metrics.receiptWait.Record(ctx, float64(time.Since(start).Milliseconds()))
	}()

	deadline := time.NewTimer(w.cfg.ReceiptTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(w.cfg.ReceiptInterval)
	defer ticker.Stop()

	for {
		receipt, err := w.client.TransactionReceipt(ctx, txHash)
		switch {
		case err == nil:
			if receipt.Status == types.ReceiptStatusFailed {
				span.SetStatus(codes.Error, "transaction reverted")
				return apperror.External(apperror.CodeTransactionReverted,
					fmt.Sprintf("transaction %s reverted in block %d", txHash.Hex(), receipt.BlockNumber.Uint64()), nil)
			}
			span.SetAttributes(attribute.Int64("block", receipt.BlockNumber.Int64()))
			w.logger.Debug(ctx, "transaction confirmed",
				"tx", txHash.Hex(),
				"block", receipt.BlockNumber.Uint64(),
			)
			return nil
		case errors.Is(err, ethereum.NotFound):
			// Pending; keep polling.
		default:
			w.logger.Debug(ctx, "receipt query failed, retrying", "tx", txHash.Hex(), "error", err)
		}

		select {
		case <-ctx.Done():
			return rejectionOr(ctx.Err(), apperror.CodeReceiptNotFound, "receipt wait")
		case <-deadline.C:
			span.SetStatus(codes.Error, "receipt timeout")
			return apperror.External(apperror.CodeReceiptNotFound,
				fmt.Sprintf("no receipt for %s within %s", txHash.Hex(), w.cfg.ReceiptTimeout), nil)
		case <-ticker.C:
		case <-w.wakeCh():
			// New block header; re-check immediately.
		}
	}
}

func (w *Wallet) wakeCh() <-chan struct{} {
	if w.wake != nil {
		return w.wake
	}
	// A nil channel blocks forever, which degrades to pure polling.
	return nil
}

// rejectionOr maps operator cancellation to WALLET_REJECTED and wraps
// anything else under the given code.
func rejectionOr(err error, code apperror.Code, msg string) error {
	if errors.Is(err, context.Canceled) {
		return apperror.Validation(apperror.CodeWalletRejected, "operation declined")
	}
	return apperror.External(code, msg, err)
}
