package calculator

// Window answers windowed sum queries over a return series in O(1) per
// query after an O(n) prefix pass.
type Window struct {
	returns []*float64
	sums    []float64 // sums[i] = sum of defined returns[0:i]
	nulls   []int     // nulls[i] = count of nil in returns[0:i]
}

// NewWindow precomputes prefix sums over returns.
func NewWindow(returns []*float64) *Window {
	w := &Window{
		returns: returns,
		sums:    make([]float64, len(returns)+1),
		nulls:   make([]int, len(returns)+1),
	}
	for i, r := range returns {
		w.sums[i+1] = w.sums[i]
		w.nulls[i+1] = w.nulls[i]
		if r == nil {
			w.nulls[i+1]++
			continue
		}
		w.sums[i+1] += *r
	}
	return w
}

// Len is the length of the underlying series.
func (w *Window) Len() int { return len(w.returns) }

// Cumulative is the sum of returns over [t-m, t+n). It is nil when the
// window leaves the series or covers an undefined return.
func (w *Window) Cumulative(t, m, n int) *float64 {
	lo, hi := t-m, t+n
	if lo < 0 || hi >= len(w.returns) {
		return nil
	}
	if w.nulls[hi]-w.nulls[lo] > 0 {
		return nil
	}
	v := w.sums[hi] - w.sums[lo]
	return &v
}

// Average is Cumulative divided by the full series length, not the window
// width.
func (w *Window) Average(t, m, n int) *float64 {
	c := w.Cumulative(t, m, n)
	if c == nil {
		return nil
	}
	v := *c / float64(len(w.returns))
	return &v
}

// CumulativeReturn sums returns[t] for t in [T-m, T+n). It is nil when
// T-m < 0, T+n >= len(returns), or any return in the window is nil.
func CumulativeReturn(returns []*float64, T, m, n int) *float64 {
	if T-m < 0 || T+n >= len(returns) {
		return nil
	}
	sum := 0.0
	for t := T - m; t < T+n; t++ {
		if returns[t] == nil {
			return nil
		}
		sum += *returns[t]
	}
	return &sum
}

// AverageReturn is CumulativeReturn divided by len(returns).
func AverageReturn(returns []*float64, T, m, n int) *float64 {
	c := CumulativeReturn(returns, T, m, n)
	if c == nil {
		return nil
	}
	v := *c / float64(len(returns))
	return &v
}
