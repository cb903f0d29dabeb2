package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/chulup/ext-sort/internal/telemetry/telemetrymock"
)

func TestLoggerContextRoundTrip(t *testing.T) {
	base := zaptest.NewLogger(t)
	ctx := WithLogger(context.Background(), base)
	require.Same(t, base, Logger(ctx))
}

func TestLoggerContextDefaultsToNop(t *testing.T) {
	got := Logger(context.Background())
	require.NotNil(t, got)
}

func TestRunProgressDisplayReportsFinish(t *testing.T) {
	p := NewRunProgress()
	p.SetPhase("phase-a")
	p.SetRunsTotal(4)
	p.RunCompleted()
	p.RunCompleted()
	p.BytesCompleted(1024)

	var buf bytes.Buffer
	cont := p.Display(&buf)
	require.True(t, cont)
	require.Contains(t, buf.String(), "phase-a")
	require.Contains(t, buf.String(), "runs=2/4")

	p.Finish()
	buf.Reset()
	cont = p.Display(&buf)
	require.False(t, cont)
}

func TestNewMetricsRegistersCollectors(t *testing.T) {
	m := NewMetrics()
	m.BytesSorted.Add(10)
	m.RunsGenerated.Inc()
	m.CascadeIterations.Inc()
	m.MergeDuration.Observe(0.5)

	mfs, err := m.Registry.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, mfs)
}

func TestNewConsoleOnlyLogger(t *testing.T) {
	log, err := New(Config{})
	require.NoError(t, err)
	require.NotNil(t, log)
	log.Info("hello")
}

func TestMockReporterSatisfiesInterface(t *testing.T) {
	ctrl := gomock.NewController(t)
	mr := telemetrymock.NewMockReporter(ctrl)

	mr.EXPECT().SetPhase("cascade")
	mr.EXPECT().CascadeIterationCompleted().Times(2)
	mr.EXPECT().Finish()

	var r Reporter = mr
	r.SetPhase("cascade")
	r.CascadeIterationCompleted()
	r.CascadeIterationCompleted()
	r.Finish()
}
