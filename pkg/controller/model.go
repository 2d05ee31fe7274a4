package controller

import "fmt"

// Model is an immutable table of measures, one row per configuration and one
// column per tracked measure.
//
// Rows must be ordered by the constraint measure (non-decreasing). That
// ordering is checked by Settings once the constraint column is known.
type Model struct {
	measures  [][]float64
	nEntries  int
	nMeasures int
}

// NewModel creates a Model from a copy of measures.
func NewModel(measures [][]float64) (*Model, error) {
	nEntries := len(measures)
	if nEntries == 0 {
		return nil, fmt.Errorf("%w: measures must not be empty (nEntries = 0)", ErrInvalidModel)
	}
	nMeasures := len(measures[0])
	if nMeasures == 0 {
		return nil, fmt.Errorf("%w: measures must not be empty (nMeasures = 0)", ErrInvalidModel)
	}

	rows := make([][]float64, nEntries)
	for i, row := range measures {
		if len(row) != nMeasures {
			return nil, fmt.Errorf("%w: entry %d has %d measures, expected %d", ErrInvalidModel, i, len(row), nMeasures)
		}
		rows[i] = append([]float64(nil), row...)
	}

	return &Model{
		measures:  rows,
		nEntries:  nEntries,
		nMeasures: nMeasures,
	}, nil
}

// NEntries returns the number of configurations.
func (m *Model) NEntries() int {
	return m.nEntries
}

// NMeasures returns the number of measures per configuration.
func (m *Model) NMeasures() int {
	return m.nMeasures
}

// Measure returns measure col of configuration entry.
func (m *Model) Measure(entry, col int) float64 {
	return m.measures[entry][col]
}

// Row returns a copy of the measures of configuration entry.
func (m *Model) Row(entry int) []float64 {
	return append([]float64(nil), m.measures[entry]...)
}

// StrictlyIncreasing reports whether column col increases strictly from each
// row to the next. A single-row model is trivially strictly increasing.
func (m *Model) StrictlyIncreasing(col int) bool {
	for i := 1; i < m.nEntries; i++ {
		if m.measures[i][col] <= m.measures[i-1][col] {
			return false
		}
	}
	return true
}
