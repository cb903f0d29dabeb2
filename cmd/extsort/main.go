// Command extsort sorts a file of fixed-width binary records in place.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kr/text"

	extsort "github.com/chulup/ext-sort"
	"github.com/chulup/ext-sort/internal/rlimit"
	"github.com/chulup/ext-sort/internal/telemetry"
)

const progressInterval = 500 * time.Millisecond

const longHelp = `
extsort sorts a file of fixed-width binary records in place, using only a
bounded amount of memory regardless of the file's size.

It partitions the input into sorted temp runs sized to the memory it can
obtain, then merges those runs back down, in cascades bounded by that same
memory budget, into the original file. Temp files live next to the input
and are removed as they're consumed; none should remain once the process
exits cleanly.
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("extsort", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: extsort [flags] <file>")
		fmt.Fprint(os.Stderr, text.Wrap(longHelp, 76))
		fmt.Fprintln(os.Stderr)
		fs.PrintDefaults()
	}

	recordSize := fs.Int("record-size", 4096, "record width in bytes")
	fanIn := fs.Int("merge-ways", extsort.DefaultFanIn, "maximum runs merged per cascade step")
	minBuffer := fs.Int64("min-buffer", extsort.DefaultMinBuffer, "smallest per-stream merge buffer tolerated, in bytes")
	logFile := fs.String("log-file", "", "path to a rotated log file; logs always also go to stderr")
	verbose := fs.Bool("verbose", false, "enable debug-level logging")
	verify := fs.Bool("verify", false, "re-read the output and verify it is sorted before exiting")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	path := fs.Arg(0)

	if _, err := rlimit.RaiseOpenFiles(*fanIn); err != nil {
		fmt.Fprintf(os.Stderr, "extsort: %s: %v\n", "startup", err)
	}

	log, err := telemetry.New(telemetry.Config{FilePath: *logFile, Verbose: *verbose})
	if err != nil {
		fmt.Fprintf(os.Stderr, "extsort: %s: %v\n", "startup", err)
		return 1
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = telemetry.WithLogger(ctx, log)

	reporter := telemetry.NewRunProgress()
	progress := telemetry.NewProgress(reporter, progressInterval)
	go progress.Run()
	defer progress.Close()

	metrics := telemetry.NewMetrics()

	err = extsort.Sort(ctx, path, extsort.Options{
		RecordSize: *recordSize,
		FanIn:      *fanIn,
		MinBuffer:  *minBuffer,
		Reporter:   reporter,
		Metrics:    metrics,
		Verify:     *verify,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "extsort: %s: %v\n", "sort", err)
		return 1
	}
	return 0
}
