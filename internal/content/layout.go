package content

import "slices"

// Layout describes how many columns a section has and their relative widths.
type Layout string

const (
	LayoutOne            Layout = "1"
	LayoutTwo            Layout = "2"
	LayoutThree          Layout = "3"
	LayoutThirdTwoThirds Layout = "1-2"
	LayoutTwoThirdsThird Layout = "2-1"
)

// Layouts lists every known layout in menu order.
var Layouts = []Layout{LayoutOne, LayoutTwo, LayoutThree, LayoutThirdTwoThirds, LayoutTwoThirdsThird}

// Width tokens stored on each column.
const (
	WidthFull      = "full"
	WidthHalf      = "1/2"
	WidthThird     = "1/3"
	WidthTwoThirds = "2/3"
)

// Valid reports whether l is one of the known layouts.
func (l Layout) Valid() bool {
	return slices.Contains(Layouts, l)
}

// Widths returns the width token of every column, left to right.
// Unknown layouts have no columns.
func (l Layout) Widths() []string {
	switch l {
	case LayoutOne:
		return []string{WidthFull}
	case LayoutTwo:
		return []string{WidthHalf, WidthHalf}
	case LayoutThree:
		return []string{WidthThird, WidthThird, WidthThird}
	case LayoutThirdTwoThirds:
		return []string{WidthThird, WidthTwoThirds}
	case LayoutTwoThirdsThird:
		return []string{WidthTwoThirds, WidthThird}
	}
	return nil
}

// ColumnCount is the number of columns the layout implies.
func (l Layout) ColumnCount() int {
	return len(l.Widths())
}

// Tracks is the number of equal grid tracks the layout is drawn on.
func (l Layout) Tracks() int {
	switch l {
	case LayoutOne:
		return 1
	case LayoutTwo:
		return 2
	case LayoutThree, LayoutThirdTwoThirds, LayoutTwoThirdsThird:
		return 3
	}
	return 1
}

// Spans returns how many grid tracks each column occupies. The wider column
// of an asymmetric layout spans two tracks.
func (l Layout) Spans() []int {
	switch l {
	case LayoutOne:
		return []int{1}
	case LayoutTwo:
		return []int{1, 1}
	case LayoutThree:
		return []int{1, 1, 1}
	case LayoutThirdTwoThirds:
		return []int{1, 2}
	case LayoutTwoThirdsThird:
		return []int{2, 1}
	}
	return nil
}
