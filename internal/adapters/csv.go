// Package adapters turns external trade sources — CSV uploads, the demo
// generator and decoded Deriverse transaction logs — into validated
// NormalizedTrade batches. Adapters sit upstream of the trade filter; the
// engines never see a malformed record.
package adapters

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"deriverse-journal/internal/types"
)

// CSVHeader documents the import layout. Optional numeric cells may be left
// empty; tags are |-joined.
const CSVHeader = "id,time,symbol,side,order_type,entry_price,exit_price,size,pnl_usd,fees_usd,fee_maker_usd,fee_taker_usd,fee_funding_usd,duration_sec,tags,notes"

// csvRow mirrors one CSV line as raw text; conversion and validation happen
// per field so errors can name the offending row.
type csvRow struct {
	ID            string `csv:"id"`
	Time          string `csv:"time"`
	Symbol        string `csv:"symbol"`
	Side          string `csv:"side"`
	OrderType     string `csv:"order_type"`
	EntryPrice    string `csv:"entry_price"`
	ExitPrice     string `csv:"exit_price"`
	Size          string `csv:"size"`
	PnLUSD        string `csv:"pnl_usd"`
	FeesUSD       string `csv:"fees_usd"`
	FeeMakerUSD   string `csv:"fee_maker_usd"`
	FeeTakerUSD   string `csv:"fee_taker_usd"`
	FeeFundingUSD string `csv:"fee_funding_usd"`
	DurationSec   string `csv:"duration_sec"`
	Tags          string `csv:"tags"`
	Notes         string `csv:"notes"`
}

// ParseTradesCSV converts an uploaded CSV document into a validated batch.
// Any invalid row fails the whole import; partial batches would silently
// skew every downstream metric.
func ParseTradesCSV(csvText string) ([]types.NormalizedTrade, error) {
	var rows []*csvRow
	if err := gocsv.UnmarshalString(csvText, &rows); err != nil {
		return nil, fmt.Errorf("csv parse failed: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("csv contains no trade rows")
	}

	trades := make([]types.NormalizedTrade, 0, len(rows))
	for i, row := range rows {
		t, err := rowToTrade(row)
		if err != nil {
			// +2: one for the header line, one for 1-based numbering.
			return nil, fmt.Errorf("csv row %d: %w", i+2, err)
		}
		trades = append(trades, t)
	}

	if err := types.ValidateBatch(trades); err != nil {
		return nil, fmt.Errorf("csv import rejected: %w", err)
	}
	return trades, nil
}

func rowToTrade(row *csvRow) (types.NormalizedTrade, error) {
	var t types.NormalizedTrade

	ts, err := time.Parse(time.RFC3339, row.Time)
	if err != nil {
		return t, fmt.Errorf("invalid time %q (want RFC3339): %w", row.Time, err)
	}

	side, err := types.ParseSide(strings.ToLower(strings.TrimSpace(row.Side)))
	if err != nil {
		return t, err
	}
	orderType, err := types.ParseOrderType(strings.ToLower(strings.TrimSpace(row.OrderType)))
	if err != nil {
		return t, err
	}

	pnl, err := parseRequiredFloat("pnl_usd", row.PnLUSD)
	if err != nil {
		return t, err
	}
	fees, err := parseRequiredFloat("fees_usd", row.FeesUSD)
	if err != nil {
		return t, err
	}

	entryPrice, err := parseOptionalFloat("entry_price", row.EntryPrice)
	if err != nil {
		return t, err
	}
	exitPrice, err := parseOptionalFloat("exit_price", row.ExitPrice)
	if err != nil {
		return t, err
	}
	size, err := parseOptionalFloat("size", row.Size)
	if err != nil {
		return t, err
	}
	feeMaker, err := parseOptionalFloat("fee_maker_usd", row.FeeMakerUSD)
	if err != nil {
		return t, err
	}
	feeTaker, err := parseOptionalFloat("fee_taker_usd", row.FeeTakerUSD)
	if err != nil {
		return t, err
	}
	feeFunding, err := parseOptionalFloat("fee_funding_usd", row.FeeFundingUSD)
	if err != nil {
		return t, err
	}
	duration, err := parseOptionalFloat("duration_sec", row.DurationSec)
	if err != nil {
		return t, err
	}

	t = types.NormalizedTrade{
		ID:            strings.TrimSpace(row.ID),
		Ts:            ts,
		Symbol:        strings.TrimSpace(row.Symbol),
		Side:          side,
		OrderType:     orderType,
		EntryPrice:    entryPrice,
		ExitPrice:     exitPrice,
		Size:          size,
		PnLUSD:        pnl,
		FeesUSD:       fees,
		FeeMakerUSD:   feeMaker,
		FeeTakerUSD:   feeTaker,
		FeeFundingUSD: feeFunding,
		DurationSec:   duration,
		Tags:          splitTags(row.Tags),
		Notes:         row.Notes,
	}
	return t, nil
}

func parseRequiredFloat(field, s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%s is required", field)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", field, s)
	}
	return v, nil
}

func parseOptionalFloat(field, s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q", field, s)
	}
	return &v, nil
}

// splitTags splits a |-joined tag cell, dropping empties and duplicates.
func splitTags(s string) []string {
	tags := []string{}
	seen := make(map[string]struct{})
	for _, tag := range strings.Split(s, "|") {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}
