package telemetry

import (
	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"
)

// waterfallCore fans a log entry out to every underlying core, in order,
// accumulating write errors rather than stopping at the first one. It is
// how this package combines a console core with an optional rotating
// file core into a single zapcore.Core.
type waterfallCore []zapcore.Core

func newWaterfall(cores ...zapcore.Core) zapcore.Core {
	switch len(cores) {
	case 0:
		return zapcore.NewNopCore()
	case 1:
		return cores[0]
	default:
		return waterfallCore(cores)
	}
}

func (wc waterfallCore) With(fields []zapcore.Field) zapcore.Core {
	clone := make(waterfallCore, len(wc))
	for i := range wc {
		clone[i] = wc[i].With(fields)
	}
	return clone
}

func (wc waterfallCore) Enabled(lvl zapcore.Level) bool {
	for i := range wc {
		if wc[i].Enabled(lvl) {
			return true
		}
	}
	return false
}

func (wc waterfallCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	for i := range wc {
		if wc[i].Enabled(ent.Level) {
			ce = ce.AddCore(ent, wc[i])
		}
	}
	return ce
}

func (wc waterfallCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	var err error
	for i := range wc {
		err = multierr.Append(err, wc[i].Write(ent, fields))
	}
	return err
}

func (wc waterfallCore) Sync() error {
	var err error
	for i := range wc {
		err = multierr.Append(err, wc[i].Sync())
	}
	return err
}
