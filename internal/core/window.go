package core

// Window is an inclusive range of body-row indices. End < Start means empty.
type Window struct {
	Start int
	End   int
}

// EmptyWindow selects no rows.
var EmptyWindow = Window{Start: 0, End: -1}

// Len returns the number of rows selected.
func (w Window) Len() int {
	if w.End < w.Start {
		return 0
	}
	return w.End - w.Start + 1
}

// Empty reports whether no rows are selected.
func (w Window) Empty() bool {
	return w.Len() == 0
}

// Contains reports whether row index i is selected.
func (w Window) Contains(i int) bool {
	return i >= w.Start && i <= w.End
}

// SelectWindow computes the rows to keep out of rowCount body rows.
//
//   - limit == 0 keeps every row, whatever the offset.
//   - limit > 0 skips the first offset rows, then keeps up to limit rows.
//   - limit < 0 drops the last |offset| rows, then keeps the last |limit| rows
//     of what remains.
//
// An offset whose sign disagrees with the limit's direction (negative offset
// with positive limit, or the reverse) is ignored.
func SelectWindow(rowCount, limit, offset int) Window {
	if rowCount <= 0 {
		return EmptyWindow
	}

	switch {
	case limit == 0:
		return Window{Start: 0, End: rowCount - 1}

	case limit > 0:
		skip := max(offset, 0)
		if skip >= rowCount {
			return EmptyWindow
		}
		end := rowCount - 1
		if limit < rowCount-skip {
			end = skip + limit - 1
		}
		return Window{Start: skip, End: end}

	default:
		remaining := rowCount
		if offset < 0 {
			if offset <= -rowCount {
				return EmptyWindow
			}
			remaining = rowCount + offset
		}
		start := 0
		if limit > -remaining {
			start = remaining + limit
		}
		return Window{Start: start, End: remaining - 1}
	}
}
