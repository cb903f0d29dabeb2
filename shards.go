package extsort

import "runtime"

// defaultShards bounds phase A's partition parallelism to one goroutine
// per available core, matching the errgroup.SetLimit(GOMAXPROCS) pattern
// used throughout this module's concurrent loops.
func defaultShards() int {
	n := runtime.GOMAXPROCS(0)
	if n < 1 {
		return 1
	}
	return n
}
