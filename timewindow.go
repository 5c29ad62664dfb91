package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ErrInvalidPeriod is returned by timeBins when the period specifier does not
// end in one of the recognized unit symbols.
var ErrInvalidPeriod = errors.New("period must end in hour (h), day (d), month (m), year (y) or 'l' for a single bin")

// durationToSeconds converts a "<n><unit>" duration specifier into seconds.
// Units are s, m, h and d. The literal "all" maps to the current time as
// epoch seconds, which makes a window of that size reach back to the epoch.
// A non-numeric magnitude falls back to the given default specifier. An
// unrecognized unit yields zero.
func durationToSeconds(spec, fallback string, now func() time.Time) float64 {
	if spec == "all" {
		return float64(now().Unix())
	}
	if len(spec) < 2 || !isNumeric(spec[:len(spec)-1]) {
		spec = fallback
	}
	n, err := strconv.Atoi(spec[:len(spec)-1])
	if err != nil {
		return 0
	}
	switch spec[len(spec)-1] {
	case 's':
		return float64(n)
	case 'm':
		return float64(n) * 60
	case 'h':
		return float64(n) * 60 * 60
	case 'd':
		return float64(n) * 24 * 60 * 60
	}
	return 0
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// timeBin is one fixed-width interval of wall-clock time. Records fall into
// the half-open range [Start, End).
type timeBin struct {
	Label   string
	Start   float64
	End     float64
	Records []Record
}

// binWidthSeconds gives the width of one bin for a unit symbol.
func binWidthSeconds(unit byte) float64 {
	switch unit {
	case 'h':
		return 60 * 60
	case 'd':
		return 24 * 60 * 60
	case 'm':
		return 30 * 24 * 60 * 60
	case 'y':
		return 365 * 24 * 60 * 60
	}
	return 0
}

// timeBins partitions records into consecutive fixed-width bins of
// period seconds, starting two seconds before the earliest record so that it
// is inclusively captured, and ending at now. Bin labels are of the form
// "<index*n><unit>". The unit must be h, d, m, y or the sentinel 'l', which
// (like a non-numeric magnitude) collapses everything into a single bin
// labeled "all". An unrecognized unit is an ErrInvalidPeriod.
func timeBins(records []Record, period string, now func() time.Time) ([]timeBin, error) {
	if period == "" {
		return nil, fmt.Errorf("empty period: %w", ErrInvalidPeriod)
	}
	unit := period[len(period)-1]
	switch unit {
	case 'h', 'd', 'm', 'y', 'l':
	default:
		return nil, fmt.Errorf("period %q: %w", period, ErrInvalidPeriod)
	}
	if len(records) == 0 {
		return nil, nil
	}

	t0 := records[0].TS
	for _, r := range records[1:] {
		if r.TS < t0 {
			t0 = r.TS
		}
	}
	end := float64(now().Unix())

	magnitude := period[:len(period)-1]
	if unit == 'l' || !isNumeric(magnitude) {
		// Documented special case: one bin covering every record.
		return []timeBin{{Label: "all", Start: t0 - 2, End: end, Records: records}}, nil
	}

	n, _ := strconv.Atoi(magnitude)
	width := float64(n) * binWidthSeconds(unit)
	if width <= 0 {
		// A zero magnitude would stall the bin loop below.
		return nil, fmt.Errorf("period %q has a zero bin width: %w", period, ErrInvalidPeriod)
	}

	bins := make([]timeBin, 0)
	for i, start := 0, t0-2; start < end; i, start = i+1, start+width {
		bins = append(bins, timeBin{
			Label: fmt.Sprintf("%d%c", i*n, unit),
			Start: start,
			End:   start + width,
		})
	}

	for _, r := range records {
		idx := int((r.TS - (t0 - 2)) / width)
		if idx < 0 || idx >= len(bins) {
			continue
		}
		bins[idx].Records = append(bins[idx].Records, r)
	}

	return bins, nil
}

// recordsSince filters the table down to records newer than the given window
// in seconds, measured back from now.
func recordsSince(records []Record, window float64, now func() time.Time) []Record {
	cutoff := float64(now().Unix()) - window
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if r.TS > cutoff {
			out = append(out, r)
		}
	}
	return out
}
