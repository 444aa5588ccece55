// Package ethereum implements the pool context's ports against an
// Ethereum node.
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
	"github.com/ethereum/go-ethereum/ethclient"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/lp-deposit/business/pool/app"
	"github.com/fd1az/lp-deposit/business/pool/domain"
	"github.com/fd1az/lp-deposit/internal/apperror"
	"github.com/fd1az/lp-deposit/internal/circuitbreaker"
	"github.com/fd1az/lp-deposit/internal/logger"
	"github.com/fd1az/lp-deposit/internal/ratelimit"
)

const (
	tracerName = "pool_ethereum"
	meterName  = "pool_ethereum"
)

// Ensure Reader implements PoolStateReader.
var _ app.PoolStateReader = (*Reader)(nil)

type readerMetrics struct {
	readsTotal  metric.Int64Counter
	readLatency metric.Float64Histogram
	readErrors  metric.Int64Counter
}

// Reader reads slot0 from a Uniswap V3 pool contract.
type Reader struct {
	client  *ethclient.Client
	pool    common.Address
	poolABI abi.ABI

	logger  logger.LoggerInterface
	cb      *circuitbreaker.CircuitBreaker[[]byte]
	limiter *ratelimit.Limiter

	tracer  trace.Tracer
	metrics *readerMetrics
}

// NewReader creates a pool state reader for the given pool contract.
func NewReader(client *ethclient.Client, pool common.Address, limiter *ratelimit.Limiter, log logger.LoggerInterface) (*Reader, error) {
	parsedABI, err := abi.JSON(strings.NewReader(PoolABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse pool ABI: %w", err)
	}

	r := &Reader{
		client:  client,
		pool:    pool,
		poolABI: parsedABI,
		logger:  log,
		limiter: limiter,
		tracer:  otel.Tracer(tracerName),
	}

	cbCfg := circuitbreaker.DefaultConfig("pool-slot0")
	r.cb = circuitbreaker.New[[]byte](cbCfg)

	if err := r.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	return r, nil
}

func (r *Reader) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	r.metrics = &readerMetrics{}

	r.metrics.readsTotal, err = meter.Int64Counter(
		"pool_state_reads_total",
		metric.WithDescription("Total pool state reads"),
	)
	if err != nil {
		return err
	}

	r.metrics.readLatency, err = meter.Float64Histogram(
		"pool_state_read_latency_ms",
		metric.WithDescription("Pool state read latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	r.metrics.readErrors, err = meter.Int64Counter(
		"pool_state_read_errors_total",
		metric.WithDescription("Total pool state read errors"),
	)
	if err != nil {
		return err
	}

	return nil
}

// ReadState calls slot0 and converts the result into a PoolState.
func (r *Reader) ReadState(ctx context.Context, ordering domain.PoolOrdering) (*domain.PoolState, error) {
	ctx, span := r.tracer.Start(ctx, "pool.read_state",
		trace.WithAttributes(attribute.String("pool", r.pool.Hex())),
	)
	defer span.End()

	start := time.Now()
	r.metrics.readsTotal.Add(ctx, 1)

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, apperror.External(apperror.CodeEthereumRPCError, "rate limiter wait", err)
		}
	}

	callData, err := r.poolABI.Pack("slot0")
	if err != nil {
		return nil, fmt.Errorf("failed to encode slot0 call: %w", err)
	}

	result, err := r.cb.Execute(func() ([]byte, error) {
		return r.client.CallContract(ctx, ethereum.CallMsg{
			To:   &r.pool,
			Data: callData,
		}, nil)
	})

	latency := float64(time.Since(start).Milliseconds())
	r.metrics.readLatency.Record(ctx, latency)

	if err != nil {
		r.metrics.readErrors.Add(ctx, 1)
		span.SetStatus(codes.Error, "slot0 call failed")
		return nil, apperror.External(apperror.CodeContractCallFailed, "slot0 call", err)
	}

	outputs, err := r.poolABI.Unpack("slot0", result)
	if err != nil {
		r.metrics.readErrors.Add(ctx, 1)
		return nil, apperror.Internal(apperror.CodeContractCallFailed, "slot0 decode", err)
	}
	if len(outputs) < 2 {
		r.metrics.readErrors.Add(ctx, 1)
		return nil, apperror.Internal(apperror.CodeContractCallFailed,
			fmt.Sprintf("slot0 returned %d outputs", len(outputs)), nil)
	}

	sqrtPriceX96 := outputs[0].(*big.Int)
	tick := int(outputs[1].(*big.Int).Int64())

	state := &domain.PoolState{
		CurrentTick:  tick,
		SqrtPriceX96: sqrtPriceX96,
		CurrentPrice: domain.TickToPrice(tick, ordering.Canonical0(), ordering.Canonical1(), ordering),
		ObservedAt:   time.Now(),
	}

	span.SetAttributes(
		attribute.Int("tick", tick),
		attribute.String("sqrt_price_x96", sqrtPriceX96.String()),
	)
	span.SetStatus(codes.Ok, "state read")

	r.logger.Debug(ctx, "slot0 read",
		"pool", r.pool.Hex(),
		"tick", tick,
		"sqrt_price_x96", sqrtPriceX96.String(),
	)

	return state, nil
}
