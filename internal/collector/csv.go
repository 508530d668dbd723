package collector

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"FiboTrader/internal/model"
)

// CSVFetcher reads daily bars from a local CSV file with the header
// time,open,high,low,close[,volume]. Time is RFC3339 or YYYY-MM-DD.
type CSVFetcher struct {
	Path string
}

func NewCSVFetcher(path string) *CSVFetcher { return &CSVFetcher{Path: path} }

func (f *CSVFetcher) Name() string { return "csv" }

// FetchDailyBars ignores symbol; the file holds a single series.
func (f *CSVFetcher) FetchDailyBars(_ context.Context, _ string, days int) ([]model.OHLCV, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()

	bars, err := ParseCSV(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Path, err)
	}
	if days > 0 && len(bars) > days {
		bars = bars[len(bars)-days:]
	}
	return bars, nil
}

// ParseCSV decodes bars from r, sorted oldest first.
func ParseCSV(r io.Reader) ([]model.OHLCV, error) {
	rows, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("csv is empty")
	}

	col := map[string]int{}
	for i, h := range rows[0] {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, req := range []string{"time", "open", "high", "low", "close"} {
		if _, ok := col[req]; !ok {
			return nil, fmt.Errorf("missing column %q", req)
		}
	}

	bars := make([]model.OHLCV, 0, len(rows)-1)
	for n, row := range rows[1:] {
		line := n + 2
		ts, err := parseTime(row[col["time"]])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		b := model.OHLCV{Time: ts}
		for name, dst := range map[string]*float64{"open": &b.Open, "high": &b.High, "low": &b.Low, "close": &b.Close} {
			v, err := strconv.ParseFloat(strings.TrimSpace(row[col[name]]), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %s: %w", line, name, err)
			}
			*dst = v
		}
		if i, ok := col["volume"]; ok && i < len(row) && row[i] != "" {
			if v, err := strconv.ParseFloat(strings.TrimSpace(row[i]), 64); err == nil {
				b.Volume = v
			}
		}
		bars = append(bars, b)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
