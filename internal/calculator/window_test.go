package calculator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioReturns(t *testing.T) []*float64 {
	t.Helper()
	r, err := AbsoluteReturn([]float64{10, 11, 9, 12})
	require.NoError(t, err)
	return r
}

func TestCumulativeReturn_Scenario(t *testing.T) {
	r := scenarioReturns(t)

	got := CumulativeReturn(r, 1, 0, 2)
	require.NotNil(t, got)
	assert.InDelta(t, -1.0, *got, 1e-12)

	assert.Nil(t, CumulativeReturn(r, 2, 0, 2))
}

func TestCumulativeReturn_Bounds(t *testing.T) {
	r := scenarioReturns(t)
	tests := []struct {
		name    string
		T, m, n int
		defined bool
	}{
		{"lower edge before series", 0, 1, 1, false},
		{"upper edge at length", 1, 0, 3, false},
		{"covers leading null", 0, 0, 2, false},
		{"one before one after", 2, 1, 1, true},
		{"empty window at last row", 3, 0, 0, true},
		{"empty window inside", 1, 0, 0, true},
		{"two before last row", 3, 2, 0, true},
		{"reaches past last row", 3, 0, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CumulativeReturn(r, tt.T, tt.m, tt.n)
			assert.Equal(t, tt.defined, got != nil)
		})
	}
}

func TestAverageReturn_DividesBySeriesLength(t *testing.T) {
	r := scenarioReturns(t)
	got := AverageReturn(r, 1, 0, 2)
	require.NotNil(t, got)
	assert.InDelta(t, -1.0/4.0, *got, 1e-12)
	assert.Nil(t, AverageReturn(r, 2, 0, 2))
}

func TestWindow_MatchesDirectDefinition(t *testing.T) {
	prices := []float64{20, 21.5, 21, 19.75, 22, 23.1, 22.9, 24, 23.5, 25, 24.2, 26}
	r, err := AbsoluteReturn(prices)
	require.NoError(t, err)
	w := NewWindow(r)
	require.Equal(t, len(r), w.Len())

	for m := 0; m <= 4; m++ {
		for n := 0; n <= 4; n++ {
			for T := 0; T < len(r); T++ {
				want := CumulativeReturn(r, T, m, n)
				got := w.Cumulative(T, m, n)
				if want == nil {
					assert.Nil(t, got, "T=%d m=%d n=%d", T, m, n)
					assert.Nil(t, w.Average(T, m, n))
					continue
				}
				require.NotNil(t, got, "T=%d m=%d n=%d", T, m, n)
				assert.InDelta(t, *want, *got, 1e-9)
				assert.InDelta(t, *AverageReturn(r, T, m, n), *w.Average(T, m, n), 1e-9)
			}
		}
	}
}
