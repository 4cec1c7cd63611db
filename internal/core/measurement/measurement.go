// Package measurement holds the probe sample data model and the pure
// reductions that turn labeled sample tables into summary statistics.
package measurement

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Sample is one probe observation. Samples are never mutated after parsing.
type Sample struct {
	Test        string // burst identity, e.g. "trial 03: center 10 samples"
	Measurement string // logical trial or corner identity, e.g. "Test #03"
	Index       int    // position within the burst after transient discard
	X           float64
	Y           float64
	Z           float64
}

// Table is a flat, ordered collection of samples spanning any number of bursts.
type Table []Sample

// WithMeasurement returns a copy of t with every sample tagged with the given
// measurement label.
func (t Table) WithMeasurement(measurement string) Table {
	out := make(Table, len(t))
	for i, s := range t {
		s.Measurement = measurement
		out[i] = s
	}
	return out
}

// Merge concatenates tables in submission order, preserving the order of
// samples inside each table.
func Merge(tables ...Table) Table {
	n := 0
	for _, t := range tables {
		n += len(t)
	}
	out := make(Table, 0, n)
	for _, t := range tables {
		out = append(out, t...)
	}
	return out
}

// SummaryRecord holds the statistics of z for one label group.
// Std is the sample (n-1) standard deviation and is NaN for a single sample.
type SummaryRecord struct {
	Label string
	Min   float64
	Max   float64
	First float64
	Last  float64
	Mean  float64
	Std   float64
	Count int
	Range float64 // Max - Min
	Drift float64 // Last - First
}

// GroupKey selects the label a sample is grouped under.
type GroupKey func(Sample) string

// ByTest groups samples by burst identity.
func ByTest(s Sample) string { return s.Test }

// ByMeasurement groups samples by logical trial or corner identity.
func ByMeasurement(s Sample) string { return s.Measurement }

// Summarize reduces t into one record per test label.
func Summarize(t Table) map[string]SummaryRecord {
	records := SummarizeBy(t, ByTest)
	out := make(map[string]SummaryRecord, len(records))
	for _, r := range records {
		out[r.Label] = r
	}
	return out
}

// SummarizeBy reduces t into one record per key, ordered by the first
// appearance of each key in t.
func SummarizeBy(t Table, key GroupKey) []SummaryRecord {
	var order []string
	groups := make(map[string][]float64)
	for _, s := range t {
		k := key(s)
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], s.Z)
	}

	out := make([]SummaryRecord, 0, len(order))
	for _, k := range order {
		out = append(out, summarizeGroup(k, groups[k]))
	}
	return out
}

func summarizeGroup(label string, z []float64) SummaryRecord {
	r := SummaryRecord{
		Label: label,
		Min:   z[0],
		Max:   z[0],
		First: z[0],
		Last:  z[len(z)-1],
		Count: len(z),
		Std:   math.NaN(),
	}
	for _, v := range z[1:] {
		r.Min = math.Min(r.Min, v)
		r.Max = math.Max(r.Max, v)
	}
	r.Mean = stat.Mean(z, nil)
	if len(z) > 1 {
		r.Std = stat.StdDev(z, nil)
	}
	r.Range = r.Max - r.Min
	r.Drift = r.Last - r.First
	return r
}
