// Package rlimit raises the process's open-file descriptor limit before
// the orchestrator starts opening one stream per run. A cascade fan-in
// of K runs plus the input and a handful of temp files can exceed a
// conservative shell default on a large sort well before memory does.
package rlimit

// reservedDescriptors accounts for the descriptors a sort run holds
// open outside its merge streams: the input file, stdio, an optional
// log file, and the temp-file manager's own bookkeeping overhead.
const reservedDescriptors = 16

// RaiseOpenFiles raises the soft open-file limit enough to cover fanIn
// concurrently open merge streams plus reservedDescriptors of overhead,
// capped at the process's hard limit, and returns the resulting soft
// limit. It never lowers the limit below whatever it already was. On
// platforms with no rlimit concept it is a no-op that reports 0.
func RaiseOpenFiles(fanIn int) (int, error) {
	need := fanIn + reservedDescriptors
	return raiseOpenFilesLimit(need)
}
