package selection

import (
	"context"

	"github.com/wonny/b3monitor/internal/contracts"
	"github.com/wonny/b3monitor/internal/metrics"
	"github.com/wonny/b3monitor/internal/telemetry"
	"github.com/wonny/b3monitor/pkg/logger"
)

// Screener applies the value screen to a stock snapshot
// ⭐ SSOT: admission decisions are made here only
type Screener struct {
	thresholds metrics.Thresholds
	logger     *logger.Logger
	metrics    *telemetry.Metrics
}

// Row is one stock with its derived ratios and screen verdict
type Row struct {
	Stock    contracts.Stock `json:"stock"`
	Ratios   metrics.Ratios  `json:"ratios"`
	Admitted bool            `json:"admitted"`
	Reason   string          `json:"reason,omitempty"` // first failing check
	Rank     int             `json:"rank,omitempty"`   // set by Rank, admitted rows only
}

// Result holds a screen outcome. Both slices keep input order.
type Result struct {
	Admitted []Row          `json:"admitted"`
	Rejected []Row          `json:"rejected"`
	Reasons  map[string]int `json:"reasons"` // reason -> rejected count
}

// Rows returns admitted rows, followed by rejected rows when all is set
func (r *Result) Rows(all bool) []Row {
	if !all {
		return r.Admitted
	}
	rows := make([]Row, 0, len(r.Admitted)+len(r.Rejected))
	rows = append(rows, r.Admitted...)
	return append(rows, r.Rejected...)
}

// Find returns the row for symbol, admitted or not
func (r *Result) Find(symbol string) (Row, bool) {
	for _, rows := range [][]Row{r.Admitted, r.Rejected} {
		for _, row := range rows {
			if row.Stock.Symbol == symbol {
				return row, true
			}
		}
	}
	return Row{}, false
}

// NewScreener creates a new screener
func NewScreener(thresholds metrics.Thresholds, logger *logger.Logger) *Screener {
	return &Screener{
		thresholds: thresholds,
		logger:     logger,
	}
}

// WithMetrics records every decision into m
func (s *Screener) WithMetrics(m *telemetry.Metrics) *Screener {
	s.metrics = m
	return s
}

// Thresholds returns the active thresholds
func (s *Screener) Thresholds() metrics.Thresholds {
	return s.thresholds
}

// Screen evaluates every stock. Stocks without a symbol are skipped.
func (s *Screener) Screen(ctx context.Context, stocks []contracts.Stock) *Result {
	result := &Result{
		Admitted: make([]Row, 0),
		Rejected: make([]Row, 0),
		Reasons:  make(map[string]int),
	}

	skipped, noData := 0, 0
	for _, stock := range stocks {
		if err := stock.Validate(); err != nil {
			s.logger.WithError(err).Debug("Skipping invalid stock")
			skipped++
			continue
		}
		if stock.Known() == 0 {
			s.logger.WithField("symbol", stock.Symbol).Debug("Stock has no fundamentals")
			noData++
		}

		row := Row{
			Stock:  stock,
			Ratios: metrics.Compute(stock),
			Reason: s.thresholds.Check(stock),
		}
		row.Admitted = row.Reason == ""
		s.metrics.ObserveDecision(row.Admitted, row.Reason)

		if row.Admitted {
			result.Admitted = append(result.Admitted, row)
		} else {
			result.Rejected = append(result.Rejected, row)
			result.Reasons[row.Reason]++
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"total_input":  len(stocks),
		"passed":       len(result.Admitted),
		"filtered_out": len(result.Rejected),
		"skipped":      skipped,
		"no_data":      noData,
		"filters":      result.Reasons,
	}).Info("Screening completed")

	return result
}
