package beamana

// SelectionMask flags the rows of a dataset that pass a selection.
type SelectionMask []bool

type Comparison int

const (
	Less Comparison = iota
	LessEqual
	Greater
	GreaterEqual
	Equal
)

func (c Comparison) apply(a, b float64) bool {
	switch c {
	case Less:
		return a < b
	case LessEqual:
		return a <= b
	case Greater:
		return a > b
	case GreaterEqual:
		return a >= b
	case Equal:
		return a == b
	}
	return false
}

func AllRows(n int) SelectionMask {
	m := make(SelectionMask, n)
	for i := range m {
		m[i] = true
	}
	return m
}

func NoRows(n int) SelectionMask {
	return make(SelectionMask, n)
}

// Compare selects rows where values[i] op threshold.
func Compare(values []float64, op Comparison, threshold float64) SelectionMask {
	m := make(SelectionMask, len(values))
	for i, v := range values {
		m[i] = op.apply(v, threshold)
	}
	return m
}

// CompareColumns selects rows where a[i] op b[i].
func CompareColumns(a []float64, op Comparison, b []float64) SelectionMask {
	m := make(SelectionMask, len(a))
	for i := range a {
		m[i] = op.apply(a[i], b[i])
	}
	return m
}

// AboveLine selects rows where y > slope*x + intercept.
func AboveLine(x, y []float64, slope, intercept float64) SelectionMask {
	m := make(SelectionMask, len(x))
	for i := range x {
		m[i] = y[i] > slope*x[i]+intercept
	}
	return m
}

// InWindow selects lo <= v <= hi, or lo < v < hi when open is set.
func InWindow(values []float64, lo, hi float64, open bool) SelectionMask {
	m := make(SelectionMask, len(values))
	for i, v := range values {
		if open {
			m[i] = v > lo && v < hi
		} else {
			m[i] = v >= lo && v <= hi
		}
	}
	return m
}

func (m SelectionMask) And(o SelectionMask) SelectionMask {
	mustSameLength(m, o)
	out := make(SelectionMask, len(m))
	for i := range m {
		out[i] = m[i] && o[i]
	}
	return out
}

func (m SelectionMask) Or(o SelectionMask) SelectionMask {
	mustSameLength(m, o)
	out := make(SelectionMask, len(m))
	for i := range m {
		out[i] = m[i] || o[i]
	}
	return out
}

func (m SelectionMask) Not() SelectionMask {
	out := make(SelectionMask, len(m))
	for i := range m {
		out[i] = !m[i]
	}
	return out
}

func (m SelectionMask) Count() int {
	n := 0
	for _, v := range m {
		if v {
			n++
		}
	}
	return n
}

func mustSameLength(a, b SelectionMask) {
	if len(a) != len(b) {
		panic("selection masks of different length")
	}
}
