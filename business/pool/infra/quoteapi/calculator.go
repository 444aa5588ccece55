// Package quoteapi implements the LiquidityCalculator port against an
// external HTTP quote service.
package quoteapi

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/lp-deposit/business/pool/app"
	"github.com/fd1az/lp-deposit/business/pool/domain"
	"github.com/fd1az/lp-deposit/internal/apperror"
	"github.com/fd1az/lp-deposit/internal/asset"
	"github.com/fd1az/lp-deposit/internal/httpclient"
	"github.com/fd1az/lp-deposit/internal/logger"
)

const (
	tracerName = "quoteapi"

	pairedAmountEndpoint = "/v1/paired-amount"

	httpTimeout = 10 * time.Second
)

// Ensure Calculator implements LiquidityCalculator.
var _ app.LiquidityCalculator = (*Calculator)(nil)

// Config holds configuration for the quote API client.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Calculator asks an external quote service for the paired amount.
type Calculator struct {
	client httpclient.Client
	logger logger.LoggerInterface
	tracer trace.Tracer
}

// NewCalculator creates a quote API client.
func NewCalculator(cfg Config, log logger.LoggerInterface) (*Calculator, error) {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = httpTimeout
	}

	tracer := otel.Tracer(tracerName)

	client, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName("quoteapi"),
		httpclient.WithBaseURL(cfg.BaseURL),
		httpclient.WithRequestTimeout(timeout),
		httpclient.WithTraceOptions(tracer, httpclient.TraceRequest, httpclient.TraceResponse),
		httpclient.WithHeaders(map[string]string{
			"Accept": "application/json",
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	return &Calculator{
		client: client,
		logger: log,
		tracer: tracer,
	}, nil
}

// pairedAmountRequest is the wire request. Amounts travel as raw
// base-unit integer strings.
type pairedAmountRequest struct {
	Token0      string `json:"token0"`
	Token1      string `json:"token1"`
	InputToken  string `json:"inputToken"`
	InputAmount string `json:"inputAmount"`
	TickLower   int    `json:"tickLower"`
	TickUpper   int    `json:"tickUpper"`
}

// pairedAmountResponse is the wire response.
type pairedAmountResponse struct {
	PairedAmount string `json:"pairedAmount"`
	Liquidity    string `json:"liquidity"`
	CurrentTick  int    `json:"currentTick"`
	CurrentPrice string `json:"currentPrice"`
	PriceLower   string `json:"priceLower"`
	PriceUpper   string `json:"priceUpper"`
}

// apiError is the quote service's error envelope.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("quote API error %s: %s", e.Code, e.Message)
}

func quoteErrorHandler(statusCode int, body []byte) error {
	if statusCode >= 400 {
		var apiErr apiError
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Code != "" {
			return &apiErr
		}
		return fmt.Errorf("HTTP %d: %s", statusCode, string(body))
	}
	return nil
}

// ComputePairedAmount posts the one-sided input to the quote service
// and parses its answer into a LiquidityQuote.
func (c *Calculator) ComputePairedAmount(ctx context.Context, req app.CalcRequest) (*domain.LiquidityQuote, error) {
	ctx, span := c.tracer.Start(ctx, "quoteapi.paired_amount",
		trace.WithAttributes(
			attribute.String("input_token", req.InputAmount.Asset().Symbol()),
			attribute.String("input_amount", req.InputAmount.Raw().String()),
			attribute.Int("tick_lower", req.Range.Lower),
			attribute.Int("tick_upper", req.Range.Upper),
		),
	)
	defer span.End()

	wireReq := pairedAmountRequest{
		Token0:      req.Ordering.Canonical0().Address().Hex(),
		Token1:      req.Ordering.Canonical1().Address().Hex(),
		InputToken:  req.InputAmount.Asset().Address().Hex(),
		InputAmount: req.InputAmount.Raw().String(),
		TickLower:   req.Range.Lower,
		TickUpper:   req.Range.Upper,
	}

	var result pairedAmountResponse
	resp, err := c.client.NewRequestWithOptions(
		httpclient.WithLabels(httpclient.NewLabel("endpoint", "paired-amount")),
		httpclient.WithResponseErrorHandler(quoteErrorHandler),
	).
		SetBody(wireReq).
		SetResult(&result).
		Post(ctx, pairedAmountEndpoint)

	if err != nil {
		span.RecordError(err)
		return nil, apperror.External(apperror.CodeCalculationFailed, "quote API request", err)
	}
	if resp.IsError() {
		return nil, apperror.New(apperror.CodeCalculationFailed,
			apperror.WithContext(fmt.Sprintf("HTTP %d: %s", resp.StatusCode, resp.String())))
	}

	quote, err := c.toDomain(req, &result)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.String("paired_amount", quote.PairedAmount.Raw().String()),
		attribute.String("liquidity", quote.Liquidity.String()),
	)

	c.logger.Debug(ctx, "quote API paired amount",
		"input", quote.InputAmount.String(),
		"paired", quote.PairedAmount.String(),
		"current_tick", quote.CurrentTick,
	)

	return quote, nil
}

// toDomain parses the wire strings into domain values. Any unparsable
// field is a CALCULATION_FAILED, never a silent zero.
func (c *Calculator) toDomain(req app.CalcRequest, resp *pairedAmountResponse) (*domain.LiquidityQuote, error) {
	pairedRaw, ok := new(big.Int).SetString(resp.PairedAmount, 10)
	if !ok {
		return nil, apperror.Validation(apperror.CodeCalculationFailed,
			fmt.Sprintf("unparsable pairedAmount %q", resp.PairedAmount))
	}
	liquidity, ok := new(big.Int).SetString(resp.Liquidity, 10)
	if !ok {
		return nil, apperror.Validation(apperror.CodeCalculationFailed,
			fmt.Sprintf("unparsable liquidity %q", resp.Liquidity))
	}

	prices := make([]domain.DisplayPrice, 0, 3)
	for _, raw := range []string{resp.CurrentPrice, resp.PriceLower, resp.PriceUpper} {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, apperror.Internal(apperror.CodeCalculationFailed,
				fmt.Sprintf("unparsable price %q", raw), err)
		}
		prices = append(prices, domain.NewDisplayPrice(d))
	}

	paired := req.Ordering.Canonical1()
	if !req.Ordering.IsCanonical0(req.InputAmount.Asset()) {
		paired = req.Ordering.Canonical0()
	}

	return &domain.LiquidityQuote{
		InputToken:       req.InputAmount.Asset(),
		PairedToken:      paired,
		InputAmount:      req.InputAmount,
		PairedAmount:     asset.NewAmount(paired, pairedRaw),
		Liquidity:        liquidity,
		CurrentTick:      resp.CurrentTick,
		CurrentPrice:     prices[0],
		PriceAtTickLower: prices[1],
		PriceAtTickUpper: prices[2],
		ComputedAt:       time.Now(),
	}, nil
}
