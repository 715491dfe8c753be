package filterbank

// Overlap describes how a block joins the one before it. The falling slope
// of the previous block and the rising slope of the current one cover the
// same samples; adding them completes those samples.
type Overlap struct {
	PrevSize, CurSize int

	PrevStart int // start of the previous block's falling slope
	CurStart  int // start of the current block's rising slope
	Width     int // slope length
}

// NewOverlap returns the overlap between blocks of the given sizes.
func NewOverlap(prevSize, curSize int) Overlap {
	w := min(prevSize, curSize) / 2
	return Overlap{
		PrevSize:  prevSize,
		CurSize:   curSize,
		PrevStart: 3*prevSize/4 - w/2,
		CurStart:  curSize/4 - w/2,
		Width:     w,
	}
}

// Add adds the rising slope of cur into the falling slope of prev.
func (o Overlap) Add(prev, cur []float32) {
	p := prev[o.PrevStart : o.PrevStart+o.Width]
	c := cur[o.CurStart : o.CurStart+o.Width]
	for i := range p {
		p[i] += c[i]
	}
}

// Prev returns the range of the previous block that is final after Add:
// from its centre to the end of the overlap.
func (o Overlap) Prev() (start, end int) {
	return o.PrevSize / 2, o.PrevStart + o.Width
}

// Cur returns the range of the current block that is final after Add:
// from the end of the overlap to its centre.
func (o Overlap) Cur() (start, end int) {
	return o.CurStart + o.Width, o.CurSize / 2
}

// Samples returns the number of samples the joint completes.
func (o Overlap) Samples() int {
	return o.PrevSize/4 + o.CurSize/4
}
