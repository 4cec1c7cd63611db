package app

import (
	"github.com/example/probeacc/internal/core/measurement"
	"github.com/example/probeacc/internal/ports/primary"
	"github.com/example/probeacc/internal/ports/secondary"
)

func toPrimarySamples(t measurement.Table) []*primary.Sample {
	out := make([]*primary.Sample, len(t))
	for i, s := range t {
		out[i] = &primary.Sample{
			Test:        s.Test,
			Measurement: s.Measurement,
			Index:       s.Index,
			X:           s.X,
			Y:           s.Y,
			Z:           s.Z,
		}
	}
	return out
}

func toPrimarySummaries(records []measurement.SummaryRecord) []*primary.Summary {
	out := make([]*primary.Summary, len(records))
	for i, r := range records {
		out[i] = &primary.Summary{
			Label: r.Label,
			Min:   r.Min,
			Max:   r.Max,
			First: r.First,
			Last:  r.Last,
			Mean:  r.Mean,
			Std:   r.Std,
			Count: r.Count,
			Range: r.Range,
			Drift: r.Drift,
		}
	}
	return out
}

func toSampleRecords(t measurement.Table) []*secondary.SampleRecord {
	out := make([]*secondary.SampleRecord, len(t))
	for i, s := range t {
		out[i] = &secondary.SampleRecord{
			Test:        s.Test,
			Measurement: s.Measurement,
			Index:       s.Index,
			X:           s.X,
			Y:           s.Y,
			Z:           s.Z,
		}
	}
	return out
}

func fromSampleRecords(records []*secondary.SampleRecord) measurement.Table {
	out := make(measurement.Table, len(records))
	for i, r := range records {
		out[i] = measurement.Sample{
			Test:        r.Test,
			Measurement: r.Measurement,
			Index:       r.Index,
			X:           r.X,
			Y:           r.Y,
			Z:           r.Z,
		}
	}
	return out
}

func toSummaryRows(records []measurement.SummaryRecord) []*secondary.SummaryRow {
	out := make([]*secondary.SummaryRow, len(records))
	for i, r := range records {
		out[i] = &secondary.SummaryRow{
			Test:  r.Label,
			Min:   r.Min,
			Max:   r.Max,
			First: r.First,
			Last:  r.Last,
			Mean:  r.Mean,
			Std:   r.Std,
			Count: r.Count,
			Range: r.Range,
			Drift: r.Drift,
		}
	}
	return out
}
