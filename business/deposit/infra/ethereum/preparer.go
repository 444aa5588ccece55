// Package ethereum implements the deposit context's ports against an
// Ethereum node: next-step preparation via on-chain allowance probes and
// a local key wallet.
package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/lp-deposit/business/deposit/app"
	"github.com/fd1az/lp-deposit/business/deposit/domain"
	pooldomain "github.com/fd1az/lp-deposit/business/pool/domain"
	"github.com/fd1az/lp-deposit/internal/apperror"
	"github.com/fd1az/lp-deposit/internal/asset"
	"github.com/fd1az/lp-deposit/internal/circuitbreaker"
	"github.com/fd1az/lp-deposit/internal/logger"
	"github.com/fd1az/lp-deposit/internal/ratelimit"
)

const (
	tracerName = "deposit_ethereum"
	meterName  = "deposit_ethereum"

	bpsDenominator = 10_000
)

// Ensure Preparer implements TransactionPreparer.
var _ app.TransactionPreparer = (*Preparer)(nil)

// PreparerConfig carries the addresses and policy the preparer needs.
type PreparerConfig struct {
	Owner           common.Address
	Permit2         common.Address
	PositionManager common.Address
	FeeTier         int64
	ChainID         int64
	SlippageBps     int64
	Deadline        time.Duration
	PermitExpiry    time.Duration
}

// Preparer answers "what must happen next" for a deposit intent by
// probing ERC20 and Permit2 allowances on-chain, in a fixed order:
// missing ERC20 approval first, then missing permit coverage, then the
// mint transaction.
type Preparer struct {
	client   *ethclient.Client
	ordering pooldomain.PoolOrdering
	cfg      PreparerConfig

	erc20ABI   abi.ABI
	permit2ABI abi.ABI
	npmABI     abi.ABI

	logger  logger.LoggerInterface
	cb      *circuitbreaker.CircuitBreaker[[]byte]
	limiter *ratelimit.Limiter
	tracer  trace.Tracer
}

// NewPreparer creates a transaction preparer bound to one pool pair.
func NewPreparer(client *ethclient.Client, ordering pooldomain.PoolOrdering, cfg PreparerConfig, limiter *ratelimit.Limiter, log logger.LoggerInterface) (*Preparer, error) {
	erc20, err := abi.JSON(strings.NewReader(ERC20ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ERC20 ABI: %w", err)
	}
	permit2, err := abi.JSON(strings.NewReader(Permit2ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse Permit2 ABI: %w", err)
	}
	npm, err := abi.JSON(strings.NewReader(PositionManagerABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse position manager ABI: %w", err)
	}

	p := &Preparer{
		client:     client,
		ordering:   ordering,
		cfg:        cfg,
		erc20ABI:   erc20,
		permit2ABI: permit2,
		npmABI:     npm,
		logger:     log,
		limiter:    limiter,
		tracer:     otel.Tracer(tracerName),
	}
	p.cb = circuitbreaker.New[[]byte](circuitbreaker.DefaultConfig("deposit-prepare"))

	return p, nil
}

// Prepare probes on-chain authorization state and returns the single
// next step for the intent. justApproved names a token whose ERC20
// approval receipt just confirmed; its allowance probe is skipped so a
// lagging node view cannot bounce the flow back a step.
func (p *Preparer) Prepare(ctx context.Context, intent *domain.DepositIntent, justApproved *asset.Asset) (domain.PreparedStep, error) {
	ctx, span := p.tracer.Start(ctx, "deposit.prepare",
		trace.WithAttributes(attribute.String("owner", p.cfg.Owner.Hex())),
	)
	defer span.End()

	involved := intent.InvolvedTokens()

	// Step one: every involved token must have approved Permit2.
	for _, token := range involved {
		if justApproved != nil && token.Equals(justApproved) {
			continue
		}
		amount, _ := intent.AmountFor(token)
		allowance, err := p.erc20Allowance(ctx, token.Address())
		if err != nil {
			span.SetStatus(codes.Error, "allowance probe failed")
			return nil, err
		}
		if allowance.Cmp(amount.Raw()) < 0 {
			span.SetAttributes(attribute.String("step", "needs_erc20_approval"))
			p.logger.Debug(ctx, "erc20 approval required",
				"token", token.Symbol(),
				"allowance", allowance.String(),
				"required", amount.Raw().String(),
			)
			return domain.NeedsErc20Approval{
				Token:   token,
				Spender: p.cfg.Permit2,
				Amount:  amount,
			}, nil
		}
	}

	// Step two: Permit2 must cover the position manager for every
	// involved token, unexpired. All uncovered tokens go into one batch.
	var details []permitDetail
	now := time.Now()
	for _, token := range involved {
		amount, _ := intent.AmountFor(token)
		granted, expiration, nonce, err := p.permit2Allowance(ctx, token.Address())
		if err != nil {
			span.SetStatus(codes.Error, "permit probe failed")
			return nil, err
		}
		if granted.Cmp(amount.Raw()) >= 0 && expiration.Int64() > now.Unix() {
			continue
		}
		details = append(details, permitDetail{
			Token:      token.Address(),
			Amount:     new(big.Int).Set(amount.Raw()),
			Expiration: big.NewInt(now.Add(p.cfg.PermitExpiry).Unix()),
			Nonce:      nonce,
		})
	}
	if len(details) > 0 {
		covered := make([]common.Address, len(details))
		for i, d := range details {
			covered[i] = d.Token
		}
		span.SetAttributes(
			attribute.String("step", "needs_permit_signature"),
			attribute.Int("batch_size", len(details)),
		)
		return domain.NeedsPermitSignature{
			TypedData:     p.permitTypedData(details, now),
			Permit2:       p.cfg.Permit2,
			CoveredTokens: covered,
		}, nil
	}

	// Everything authorized: build the mint transaction.
	tx, err := p.buildMintTx(intent)
	if err != nil {
		span.SetStatus(codes.Error, "mint encoding failed")
		return nil, err
	}
	span.SetAttributes(attribute.String("step", "ready_to_mint"))
	return domain.ReadyToMint{Tx: tx}, nil
}

// BuildPermitSubmission packs the signed batch into the Permit2 permit
// call that redeems it on-chain.
func (p *Preparer) BuildPermitSubmission(ctx context.Context, step domain.NeedsPermitSignature, signature []byte) (domain.RawTransaction, error) {
	batch, err := batchFromMessage(step.TypedData.Message)
	if err != nil {
		return domain.RawTransaction{}, apperror.Internal(apperror.CodeSigningFailed, "permit message decode", err)
	}

	data, err := p.permit2ABI.Pack("permit", p.cfg.Owner, batch, signature)
	if err != nil {
		return domain.RawTransaction{}, apperror.Internal(apperror.CodeSigningFailed, "permit encoding", err)
	}

	p.logger.Debug(ctx, "permit submission built",
		"batch_size", len(batch.Details),
		"spender", batch.Spender.Hex(),
	)
	return domain.RawTransaction{
		To:    step.Permit2,
		Data:  data,
		Value: big.NewInt(0),
	}, nil
}

func (p *Preparer) erc20Allowance(ctx context.Context, token common.Address) (*big.Int, error) {
	callData, err := p.erc20ABI.Pack("allowance", p.cfg.Owner, p.cfg.Permit2)
	if err != nil {
		return nil, fmt.Errorf("failed to encode allowance call: %w", err)
	}
	result, err := p.call(ctx, token, callData)
	if err != nil {
		return nil, apperror.External(apperror.CodeContractCallFailed, "erc20 allowance", err)
	}
	outputs, err := p.erc20ABI.Unpack("allowance", result)
	if err != nil || len(outputs) < 1 {
		return nil, apperror.Internal(apperror.CodeContractCallFailed, "allowance decode", err)
	}
	return outputs[0].(*big.Int), nil
}

func (p *Preparer) permit2Allowance(ctx context.Context, token common.Address) (amount, expiration, nonce *big.Int, err error) {
	callData, err := p.permit2ABI.Pack("allowance", p.cfg.Owner, token, p.cfg.PositionManager)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode permit allowance call: %w", err)
	}
	result, err := p.call(ctx, p.cfg.Permit2, callData)
	if err != nil {
		return nil, nil, nil, apperror.External(apperror.CodeContractCallFailed, "permit2 allowance", err)
	}
	outputs, err := p.permit2ABI.Unpack("allowance", result)
	if err != nil || len(outputs) < 3 {
		return nil, nil, nil, apperror.Internal(apperror.CodeContractCallFailed, "permit allowance decode", err)
	}
	return outputs[0].(*big.Int), outputs[1].(*big.Int), outputs[2].(*big.Int), nil
}

func (p *Preparer) call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	return p.cb.Execute(func() ([]byte, error) {
		return p.client.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	})
}

func (p *Preparer) buildMintTx(intent *domain.DepositIntent) (domain.RawTransaction, error) {
	deadline := big.NewInt(time.Now().Add(p.cfg.Deadline).Unix())

	params := mintParams{
		Token0:         p.ordering.Canonical0().Address(),
		Token1:         p.ordering.Canonical1().Address(),
		Fee:            big.NewInt(p.cfg.FeeTier),
		TickLower:      big.NewInt(int64(intent.Range.Lower)),
		TickUpper:      big.NewInt(int64(intent.Range.Upper)),
		Amount0Desired: new(big.Int).Set(intent.Amount0.Raw()),
		Amount1Desired: new(big.Int).Set(intent.Amount1.Raw()),
		Amount0Min:     applySlippage(intent.Amount0.Raw(), p.cfg.SlippageBps),
		Amount1Min:     applySlippage(intent.Amount1.Raw(), p.cfg.SlippageBps),
		Recipient:      p.cfg.Owner,
		Deadline:       deadline,
	}

	data, err := p.npmABI.Pack("mint", params)
	if err != nil {
		return domain.RawTransaction{}, apperror.Internal(apperror.CodeContractCallFailed, "mint encoding", err)
	}
	return domain.RawTransaction{
		To:    p.cfg.PositionManager,
		Data:  data,
		Value: big.NewInt(0),
	}, nil
}

// applySlippage scales an amount down by the slippage tolerance,
// rounding toward zero.
func applySlippage(amount *big.Int, bps int64) *big.Int {
	scaled := new(big.Int).Mul(amount, big.NewInt(bpsDenominator-bps))
	return scaled.Div(scaled, big.NewInt(bpsDenominator))
}

// mintParams mirrors the position manager's MintParams tuple; field
// names match the ABI components so go-ethereum can pack it.
type mintParams struct {
	Token0         common.Address
	Token1         common.Address
	Fee            *big.Int
	TickLower      *big.Int
	TickUpper      *big.Int
	Amount0Desired *big.Int
	Amount1Desired *big.Int
	Amount0Min     *big.Int
	Amount1Min     *big.Int
	Recipient      common.Address
	Deadline       *big.Int
}

// permitDetail mirrors Permit2's PermitDetails tuple; field names match
// the ABI components so go-ethereum can pack it.
type permitDetail struct {
	Token      common.Address
	Amount     *big.Int
	Expiration *big.Int
	Nonce      *big.Int
}

// permitBatch mirrors Permit2's PermitBatch tuple.
type permitBatch struct {
	Details     []permitDetail
	Spender     common.Address
	SigDeadline *big.Int
}

// permitTypedData builds the EIP-712 payload for a PermitBatch in the
// schema Permit2 verifies: domain {name, chainId, verifyingContract},
// no version field.
func (p *Preparer) permitTypedData(details []permitDetail, now time.Time) apitypes.TypedData {
	messageDetails := make([]interface{}, len(details))
	for i, d := range details {
		messageDetails[i] = map[string]interface{}{
			"token":      d.Token.Hex(),
			"amount":     d.Amount.String(),
			"expiration": d.Expiration.String(),
			"nonce":      d.Nonce.String(),
		}
	}

	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": {
				{Name: "name", Type: "string"},
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
			"PermitBatch": {
				{Name: "details", Type: "PermitDetails[]"},
				{Name: "spender", Type: "address"},
				{Name: "sigDeadline", Type: "uint256"},
			},
			"PermitDetails": {
				{Name: "token", Type: "address"},
				{Name: "amount", Type: "uint160"},
				{Name: "expiration", Type: "uint48"},
				{Name: "nonce", Type: "uint48"},
			},
		},
		PrimaryType: "PermitBatch",
		Domain: apitypes.TypedDataDomain{
			Name:              "Permit2",
			ChainId:           (*math.HexOrDecimal256)(big.NewInt(p.cfg.ChainID)),
			VerifyingContract: p.cfg.Permit2.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"details":     messageDetails,
			"spender":     p.cfg.PositionManager.Hex(),
			"sigDeadline": big.NewInt(now.Add(p.cfg.Deadline).Unix()).String(),
		},
	}
}

// batchFromMessage reconstructs the ABI tuple from the typed-data
// message the preparer itself produced.
func batchFromMessage(msg apitypes.TypedDataMessage) (permitBatch, error) {
	rawDetails, ok := msg["details"].([]interface{})
	if !ok {
		return permitBatch{}, fmt.Errorf("permit message missing details")
	}

	batch := permitBatch{Details: make([]permitDetail, 0, len(rawDetails))}
	for _, raw := range rawDetails {
		entry, ok := raw.(map[string]interface{})
		if !ok {
			return permitBatch{}, fmt.Errorf("malformed permit detail entry")
		}
		amount, err := messageBig(entry, "amount")
		if err != nil {
			return permitBatch{}, err
		}
		expiration, err := messageBig(entry, "expiration")
		if err != nil {
			return permitBatch{}, err
		}
		nonce, err := messageBig(entry, "nonce")
		if err != nil {
			return permitBatch{}, err
		}
		token, err := messageAddress(entry, "token")
		if err != nil {
			return permitBatch{}, err
		}
		batch.Details = append(batch.Details, permitDetail{
			Token:      token,
			Amount:     amount,
			Expiration: expiration,
			Nonce:      nonce,
		})
	}

	spender, err := messageAddress(msg, "spender")
	if err != nil {
		return permitBatch{}, err
	}
	sigDeadline, err := messageBig(msg, "sigDeadline")
	if err != nil {
		return permitBatch{}, err
	}
	batch.Spender = spender
	batch.SigDeadline = sigDeadline
	return batch, nil
}

func messageBig(m map[string]interface{}, key string) (*big.Int, error) {
	s, ok := m[key].(string)
	if !ok {
		return nil, fmt.Errorf("permit message field %q is not a string", key)
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("permit message field %q is not a number: %s", key, s)
	}
	return v, nil
}

func messageAddress(m map[string]interface{}, key string) (common.Address, error) {
	s, ok := m[key].(string)
	if !ok || !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("permit message field %q is not an address", key)
	}
	return common.HexToAddress(s), nil
}
