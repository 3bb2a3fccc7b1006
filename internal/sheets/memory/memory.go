package memory

import (
	"context"
	"slices"
	"sync"

	"faktura/internal/forecast"
	ports "faktura/internal/sheets"
)

// Exporter keeps exported forecast rows per year in memory.
type Exporter struct {
	mu      sync.Mutex
	years   map[int][]ports.Row
	exports int
}

var (
	_ ports.ForecastExporter = (*Exporter)(nil)
	_ ports.ForecastReader   = (*Exporter)(nil)
)

func New() *Exporter {
	return &Exporter{years: map[int][]ports.Row{}}
}

func (e *Exporter) ExportForecast(_ context.Context, entries []forecast.Entry) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	byYear := ports.RowsByYear(entries)
	for _, year := range ports.Years(byYear) {
		e.years[year] = ports.MergeRows(e.years[year], byYear[year])
	}
	e.exports++
	return nil
}

func (e *Exporter) ReadForecast(_ context.Context, year int) ([]ports.Row, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.years[year]), nil
}

// Exports returns how often ExportForecast was called.
func (e *Exporter) Exports() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.exports
}
