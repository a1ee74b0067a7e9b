package brapi

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/wonny/b3monitor/internal/contracts"
)

// ParseSymbols reads stocks[].stock from a list response. Non-string
// and blank entries are skipped; repeats keep their first position.
func ParseSymbols(body []byte) []string {
	seen := make(map[string]bool)
	out := make([]string, 0)

	gjson.GetBytes(body, "stocks").ForEach(func(_, item gjson.Result) bool {
		v := item.Get("stock")
		if v.Type != gjson.String {
			return true
		}
		sym := strings.TrimSpace(v.Str)
		if sym == "" || seen[sym] {
			return true
		}
		seen[sym] = true
		out = append(out, sym)
		return true
	})

	return out
}

// ParseQuotes normalizes results[] of a quote response. Entries without
// a symbol are dropped.
func ParseQuotes(body []byte) []contracts.Stock {
	out := make([]contracts.Stock, 0)

	gjson.GetBytes(body, "results").ForEach(func(_, item gjson.Result) bool {
		if s := Normalize(item); s.Symbol != "" {
			out = append(out, s)
		}
		return true
	})

	return out
}

// Normalize maps one quote object to a Stock. Three shapes are accepted:
// flat fields already in Stock units, the same names under "fundamental",
// and Yahoo-style "financialData"/"defaultKeyStatistics" modules, where
// ROE and growth are fractions and debtToEquity is a percentage.
func Normalize(item gjson.Result) contracts.Stock {
	fund := item.Get("fundamental")
	fin := item.Get("financialData")
	stats := item.Get("defaultKeyStatistics")

	flat := func(name string) *float64 {
		return first(number(item.Get(name)), number(fund.Get(name)))
	}

	debt := first(flat("grossDebt"), number(fin.Get("totalDebt")))

	var symbol string
	if v := item.Get("symbol"); v.Type == gjson.String {
		symbol = strings.TrimSpace(v.Str)
	}

	return contracts.Stock{
		Symbol:             symbol,
		RegularMarketPrice: flat("regularMarketPrice"),
		PriceEarnings:      flat("priceEarnings"),
		PriceBookValue:     first(flat("priceBookValue"), number(stats.Get("priceToBook"))),
		DividendYield:      first(flat("dividendYield"), number(stats.Get("dividendYield"))),
		ROE:                first(flat("roe"), percent(fin.Get("returnOnEquity"))),
		GrossDebt:          debt,
		Equity:             first(flat("equity"), equityFromLeverage(debt, number(fin.Get("debtToEquity")))),
		EarningsPerShare:   first(flat("earningsPerShare"), number(stats.Get("trailingEps"))),
		BookValuePerShare:  first(flat("bookValuePerShare"), number(stats.Get("bookValue"))),
		ProfitGrowth5y:     first(flat("profitGrowth5y"), percent(stats.Get("earningsAnnualGrowth"))),
		EBITDA:             first(flat("ebitda"), number(fin.Get("ebitda"))),
		MarketCap:          flat("marketCap"),
	}
}

// decimalNumber is plain decimal notation. strconv also takes hex
// floats and underscores, which upstream never means as numbers.
var decimalNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// number coerces a JSON number or numeric string; anything else,
// including blank strings and non-finite values, is absent
func number(r gjson.Result) *float64 {
	switch r.Type {
	case gjson.Number:
		return contracts.Float(r.Num)
	case gjson.String:
		s := strings.TrimSpace(r.Str)
		if !decimalNumber.MatchString(s) {
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		return contracts.Float(v)
	default:
		return nil
	}
}

// percent scales a 0–1 fraction to percent
func percent(r gjson.Result) *float64 {
	v := number(r)
	if v == nil {
		return nil
	}
	return contracts.Float(*v * 100)
}

// equityFromLeverage solves debtToEquity (percent) = debt / equity × 100
func equityFromLeverage(debt, debtToEquity *float64) *float64 {
	if debt == nil || debtToEquity == nil || *debtToEquity == 0 {
		return nil
	}
	return contracts.Float(*debt * 100 / *debtToEquity)
}

func first(vs ...*float64) *float64 {
	for _, v := range vs {
		if v != nil {
			return v
		}
	}
	return nil
}
