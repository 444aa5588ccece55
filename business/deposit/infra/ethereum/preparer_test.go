package ethereum

import (
	"bytes"
	"io"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/lp-deposit/business/deposit/domain"
	pooldomain "github.com/fd1az/lp-deposit/business/pool/domain"
	"github.com/fd1az/lp-deposit/internal/asset"
	"github.com/fd1az/lp-deposit/internal/logger"
)

var (
	testToken0 = asset.NewAsset(
		asset.NewTokenAssetID(asset.ChainIDEthereum, common.HexToAddress("0x000000000000000000000000000000000000000A")),
		"AAA", 18, 6)
	testToken1 = asset.NewAsset(
		asset.NewTokenAssetID(asset.ChainIDEthereum, common.HexToAddress("0x000000000000000000000000000000000000000B")),
		"BBB", 6, 2)

	testOwner           = common.HexToAddress("0x00000000000000000000000000000000000000EE")
	testPermit2         = common.HexToAddress("0x000000000022D473030F116dDEE9F6B43aC78BA3")
	testPositionManager = common.HexToAddress("0xC36442b4a4522E871399CD717aBDD847Ab11FE88")
)

func newTestPreparer(t *testing.T) *Preparer {
	t.Helper()
	cfg := PreparerConfig{
		Owner:           testOwner,
		Permit2:         testPermit2,
		PositionManager: testPositionManager,
		FeeTier:         3000,
		ChainID:         1,
		SlippageBps:     50,
		Deadline:        20 * time.Minute,
		PermitExpiry:    30 * 24 * time.Hour,
	}
	ordering := pooldomain.NewPoolOrdering(testToken0, testToken1)
	log := logger.New(io.Discard, logger.LevelError, "test", nil)

	p, err := NewPreparer(nil, ordering, cfg, nil, log)
	if err != nil {
		t.Fatalf("NewPreparer: %v", err)
	}
	return p
}

func testPreparerIntent(t *testing.T, amount0, amount1 string) *domain.DepositIntent {
	t.Helper()
	a0, err := asset.ParseString(testToken0, amount0)
	if err != nil {
		t.Fatal(err)
	}
	a1, err := asset.ParseString(testToken1, amount1)
	if err != nil {
		t.Fatal(err)
	}
	return &domain.DepositIntent{
		Amount0:         a0,
		Amount1:         a1,
		Range:           pooldomain.TickRange{Lower: -887220, Upper: 887220},
		ActiveInputSide: domain.InputSide0,
	}
}

func TestBuildMintTx(t *testing.T) {
	p := newTestPreparer(t)
	intent := testPreparerIntent(t, "100", "250")

	before := time.Now().Add(p.cfg.Deadline).Unix()
	tx, err := p.buildMintTx(intent)
	if err != nil {
		t.Fatalf("buildMintTx: %v", err)
	}
	after := time.Now().Add(p.cfg.Deadline).Unix()

	if tx.To != testPositionManager {
		t.Errorf("tx.To = %s, want position manager %s", tx.To.Hex(), testPositionManager.Hex())
	}
	if tx.Value.Sign() != 0 {
		t.Errorf("tx.Value = %s, want 0", tx.Value)
	}

	method := p.npmABI.Methods["mint"]
	if !bytes.Equal(tx.Data[:4], method.ID) {
		t.Fatalf("selector = %x, want mint %x", tx.Data[:4], method.ID)
	}

	values, err := method.Inputs.Unpack(tx.Data[4:])
	if err != nil {
		t.Fatalf("unpack mint calldata: %v", err)
	}
	got := abi.ConvertType(values[0], new(mintParams)).(*mintParams)

	if got.Token0 != testToken0.Address() || got.Token1 != testToken1.Address() {
		t.Errorf("tokens = %s / %s, want canonical pair", got.Token0.Hex(), got.Token1.Hex())
	}
	if got.Fee.Int64() != 3000 {
		t.Errorf("fee = %s, want 3000", got.Fee)
	}
	if got.TickLower.Int64() != -887220 || got.TickUpper.Int64() != 887220 {
		t.Errorf("ticks = [%s, %s], want [-887220, 887220]", got.TickLower, got.TickUpper)
	}
	if got.Amount0Desired.Cmp(intent.Amount0.Raw()) != 0 {
		t.Errorf("amount0Desired = %s, want %s", got.Amount0Desired, intent.Amount0.Raw())
	}
	if got.Amount1Desired.Cmp(intent.Amount1.Raw()) != 0 {
		t.Errorf("amount1Desired = %s, want %s", got.Amount1Desired, intent.Amount1.Raw())
	}
	wantMin0 := applySlippage(intent.Amount0.Raw(), p.cfg.SlippageBps)
	if got.Amount0Min.Cmp(wantMin0) != 0 {
		t.Errorf("amount0Min = %s, want %s", got.Amount0Min, wantMin0)
	}
	if got.Recipient != testOwner {
		t.Errorf("recipient = %s, want owner %s", got.Recipient.Hex(), testOwner.Hex())
	}
	if got.Deadline.Int64() < before || got.Deadline.Int64() > after {
		t.Errorf("deadline = %s, want within [%d, %d]", got.Deadline, before, after)
	}
}

func TestApplySlippage(t *testing.T) {
	tests := []struct {
		name   string
		amount int64
		bps    int64
		want   int64
	}{
		{name: "fifty bps", amount: 10_000, bps: 50, want: 9_950},
		{name: "zero tolerance", amount: 12_345, bps: 0, want: 12_345},
		{name: "truncates toward zero", amount: 1, bps: 50, want: 0},
		{name: "zero amount", amount: 0, bps: 50, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := applySlippage(big.NewInt(tt.amount), tt.bps)
			if got.Int64() != tt.want {
				t.Errorf("applySlippage(%d, %d) = %s, want %d", tt.amount, tt.bps, got, tt.want)
			}
		})
	}
}

func TestPermitMessageRoundTrip(t *testing.T) {
	p := newTestPreparer(t)
	now := time.Now()

	details := []permitDetail{
		{
			Token:      testToken0.Address(),
			Amount:     big.NewInt(1_000_000),
			Expiration: big.NewInt(now.Add(p.cfg.PermitExpiry).Unix()),
			Nonce:      big.NewInt(3),
		},
		{
			Token:      testToken1.Address(),
			Amount:     big.NewInt(42),
			Expiration: big.NewInt(now.Add(p.cfg.PermitExpiry).Unix()),
			Nonce:      big.NewInt(0),
		},
	}

	typed := p.permitTypedData(details, now)
	if typed.PrimaryType != "PermitBatch" {
		t.Fatalf("primary type = %s, want PermitBatch", typed.PrimaryType)
	}
	if typed.Domain.Name != "Permit2" {
		t.Errorf("domain name = %s, want Permit2", typed.Domain.Name)
	}

	batch, err := batchFromMessage(typed.Message)
	if err != nil {
		t.Fatalf("batchFromMessage: %v", err)
	}
	if len(batch.Details) != len(details) {
		t.Fatalf("decoded %d details, want %d", len(batch.Details), len(details))
	}
	for i, d := range details {
		got := batch.Details[i]
		if got.Token != d.Token {
			t.Errorf("detail %d token = %s, want %s", i, got.Token.Hex(), d.Token.Hex())
		}
		if got.Amount.Cmp(d.Amount) != 0 {
			t.Errorf("detail %d amount = %s, want %s", i, got.Amount, d.Amount)
		}
		if got.Expiration.Cmp(d.Expiration) != 0 {
			t.Errorf("detail %d expiration = %s, want %s", i, got.Expiration, d.Expiration)
		}
		if got.Nonce.Cmp(d.Nonce) != 0 {
			t.Errorf("detail %d nonce = %s, want %s", i, got.Nonce, d.Nonce)
		}
	}
	if batch.Spender != testPositionManager {
		t.Errorf("spender = %s, want position manager", batch.Spender.Hex())
	}
	wantDeadline := now.Add(p.cfg.Deadline).Unix()
	if batch.SigDeadline.Int64() != wantDeadline {
		t.Errorf("sigDeadline = %s, want %d", batch.SigDeadline, wantDeadline)
	}

	// The reconstructed batch must pack into the permit call.
	data, err := p.permit2ABI.Pack("permit", testOwner, batch, []byte{0xde, 0xad})
	if err != nil {
		t.Fatalf("pack permit: %v", err)
	}
	if !bytes.Equal(data[:4], p.permit2ABI.Methods["permit"].ID) {
		t.Errorf("selector = %x, want permit", data[:4])
	}
}
