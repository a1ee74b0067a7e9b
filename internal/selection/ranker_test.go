package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	c "github.com/wonny/b3monitor/internal/contracts"
	"github.com/wonny/b3monitor/internal/metrics"
)

func row(symbol string, price, iv *float64) Row {
	return Row{
		Stock:  c.Stock{Symbol: symbol, RegularMarketPrice: price},
		Ratios: metrics.Ratios{IntrinsicValue: iv},
	}
}

func TestRank(t *testing.T) {
	rows := []Row{
		row("NOIV", f(10), nil),
		row("FAIR", f(20), f(20)),
		row("CHEAP", f(10), f(30)),
		row("NOPRICE", nil, f(5)),
		row("DEAR", f(40), f(20)),
	}

	ranked := Rank(rows)

	require.Len(t, ranked, 5)
	got := make([]string, len(ranked))
	for i, r := range ranked {
		got[i] = r.Stock.Symbol
		assert.Equal(t, i+1, r.Rank)
	}
	assert.Equal(t, []string{"CHEAP", "FAIR", "DEAR", "NOIV", "NOPRICE"}, got)
	assert.Zero(t, rows[0].Rank, "input is not modified")
}

func TestDiscount(t *testing.T) {
	d, ok := Discount(row("X", f(10), f(15)))
	require.True(t, ok)
	assert.InDelta(t, 1.5, d, 1e-9)

	_, ok = Discount(row("X", f(0), f(15)))
	assert.False(t, ok)
}
