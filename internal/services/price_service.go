package services

import (
	"context"
	"strings"

	apperrors "github.com/ajharbinger/stockdd-timeline/internal/errors"
	"github.com/ajharbinger/stockdd-timeline/internal/prices"
)

// priceServiceImpl implements PriceService
type priceServiceImpl struct {
	source PriceSource
}

func newPriceService(deps Dependencies) PriceService {
	return &priceServiceImpl{source: deps.Prices}
}

func (s *priceServiceImpl) History(ctx context.Context, ticker, period string) (*prices.History, error) {
	if s.source == nil {
		return nil, apperrors.NotConfigured("price history is not configured")
	}
	if period == "" {
		period = prices.DefaultPeriod
	}
	if !prices.ValidPeriod(period) {
		return nil, apperrors.InvalidInput("period must be one of "+strings.Join(prices.Periods, ", "), nil)
	}
	return s.source.History(ctx, strings.ToUpper(strings.TrimSpace(ticker)), period)
}
