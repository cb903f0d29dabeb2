package record

// Run describes a temporary file containing a contiguous, internally
// sorted sequence of records. OriginOffset records the producer's read
// position in the original input; it is used only for diagnostics
// during phase A — merge-phase runs (the output of a cascade step) set
// it to zero, since they no longer correspond to a single input offset.
type Run struct {
	Name         string
	SizeBytes    int64
	OriginOffset int64
}

// Records returns the number of width-sized records the run holds.
func (r Run) Records(width int) int64 {
	return r.SizeBytes / int64(width)
}
