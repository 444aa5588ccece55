package domain

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"

	pooldomain "github.com/fd1az/lp-deposit/business/pool/domain"
	"github.com/fd1az/lp-deposit/internal/apperror"
	"github.com/fd1az/lp-deposit/internal/asset"
)

var (
	ledgerTokenA = asset.NewAsset(
		asset.NewTokenAssetID(asset.ChainIDEthereum, common.HexToAddress("0x00000000000000000000000000000000000000A1")),
		"AAA", 18, 6)
	ledgerTokenB = asset.NewAsset(
		asset.NewTokenAssetID(asset.ChainIDEthereum, common.HexToAddress("0x00000000000000000000000000000000000000B1")),
		"BBB", 6, 2)
)

func ledgerIntent(t *testing.T, amount0, amount1 string) *DepositIntent {
	t.Helper()
	a0, err := asset.ParseString(ledgerTokenA, amount0)
	if err != nil {
		t.Fatal(err)
	}
	a1, err := asset.ParseString(ledgerTokenB, amount1)
	if err != nil {
		t.Fatal(err)
	}
	return &DepositIntent{
		Amount0: a0,
		Amount1: a1,
		Range:   pooldomain.TickRange{Lower: -60, Upper: 60},
	}
}

func TestCompletionLedger_ExcludesZeroAmounts(t *testing.T) {
	l := NewCompletionLedger(ledgerIntent(t, "100", "0"))
	if l.Involved() != 1 {
		t.Errorf("involved = %d, want 1", l.Involved())
	}
	if l.IsComplete(ledgerTokenA.Address()) {
		t.Error("fresh ledger entry should be false")
	}
}

func TestCompletionLedger_MarkComplete(t *testing.T) {
	l := NewCompletionLedger(ledgerIntent(t, "100", "250"))

	if err := l.MarkComplete(ledgerTokenA.Address()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.Completed() != 1 {
		t.Errorf("completed = %d, want 1", l.Completed())
	}

	outsider := common.HexToAddress("0x00000000000000000000000000000000000000CC")
	err := l.MarkComplete(outsider)
	if !apperror.IsCode(err, apperror.CodeUnexpectedPermitToken) {
		t.Errorf("error = %v, want UNEXPECTED_PERMIT_TOKEN", err)
	}
}

func TestCompletionLedger_MarkBatchAtomic(t *testing.T) {
	l := NewCompletionLedger(ledgerIntent(t, "100", "250"))

	outsider := common.HexToAddress("0x00000000000000000000000000000000000000CC")
	err := l.MarkBatch([]common.Address{ledgerTokenA.Address(), outsider})
	if !apperror.IsCode(err, apperror.CodeUnexpectedPermitToken) {
		t.Fatalf("error = %v, want UNEXPECTED_PERMIT_TOKEN", err)
	}
	// The valid member must not have been flipped by the failed batch.
	if l.Completed() != 0 {
		t.Errorf("completed = %d after rejected batch, want 0", l.Completed())
	}

	if err := l.MarkBatch([]common.Address{ledgerTokenA.Address(), ledgerTokenB.Address()}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.Completed() != 2 {
		t.Errorf("completed = %d, want 2", l.Completed())
	}
}

func TestDepositIntent_InvolvedTokens(t *testing.T) {
	both := ledgerIntent(t, "100", "250")
	if got := len(both.InvolvedTokens()); got != 2 {
		t.Errorf("involved tokens = %d, want 2", got)
	}

	oneSided := ledgerIntent(t, "0", "250")
	tokens := oneSided.InvolvedTokens()
	if len(tokens) != 1 || !tokens[0].Equals(ledgerTokenB) {
		t.Errorf("involved tokens = %v, want only BBB", tokens)
	}
}
