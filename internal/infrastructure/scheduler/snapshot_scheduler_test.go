package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type stubGenerator struct {
	calls     atomic.Int32
	generated int
	err       error
}

func (g *stubGenerator) GenerateAll(ctx context.Context) (int, error) {
	g.calls.Add(1)
	if _, ok := ctx.Deadline(); !ok {
		return 0, errors.New("expected a job deadline")
	}
	return g.generated, g.err
}

func TestParseCronSchedule(t *testing.T) {
	tests := []struct {
		name       string
		expr       string
		wantHour   int
		wantMinute int
		wantErr    bool
	}{
		{name: "default 2am", expr: "0 2 * * *", wantHour: 2, wantMinute: 0},
		{name: "half past three", expr: "30 3 * * *", wantHour: 3, wantMinute: 30},
		{name: "midnight", expr: "0 0 * * *", wantHour: 0, wantMinute: 0},
		{name: "empty uses default", expr: "", wantHour: 2, wantMinute: 0},
		{name: "extra whitespace", expr: "  15   4   *   *   *  ", wantHour: 4, wantMinute: 15},
		{name: "wildcard hour", expr: "45 *", wantHour: 2, wantMinute: 45},
		{name: "single field", expr: "15", wantErr: true},
		{name: "minute out of range", expr: "60 2 * * *", wantErr: true},
		{name: "hour out of range", expr: "0 24 * * *", wantErr: true},
		{name: "step syntax unsupported", expr: "*/5 2 * * *", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hour, minute, err := ParseCronSchedule(tt.expr)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSchedule)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHour, hour, "hour mismatch")
			assert.Equal(t, tt.wantMinute, minute, "minute mismatch")
		})
	}
}

func TestNewSnapshotScheduler(t *testing.T) {
	s, err := NewSnapshotScheduler(Config{Enabled: true, Schedule: "30 6 * * *"}, &stubGenerator{}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, 6, s.hour)
	assert.Equal(t, 30, s.minute)
	assert.Equal(t, defaultCheckInterval, s.config.CheckInterval)
	assert.Equal(t, defaultJobTimeout, s.config.JobTimeout)

	_, err = NewSnapshotScheduler(Config{Schedule: "99 1 * * *"}, &stubGenerator{}, zaptest.NewLogger(t))
	assert.ErrorIs(t, err, ErrInvalidSchedule)
}

func TestSnapshotScheduler_CheckAndRun_OncePerDay(t *testing.T) {
	gen := &stubGenerator{generated: 5}
	s, err := NewSnapshotScheduler(Config{Enabled: true, Schedule: "0 2 * * *"}, gen, zaptest.NewLogger(t))
	require.NoError(t, err)

	current := time.Date(2025, 3, 10, 1, 59, 0, 0, time.Local)
	s.now = func() time.Time { return current }

	assert.False(t, s.checkAndRun(context.Background()))

	current = current.Add(time.Minute)
	assert.True(t, s.checkAndRun(context.Background()))
	assert.False(t, s.checkAndRun(context.Background()))

	current = current.Add(time.Minute)
	assert.False(t, s.checkAndRun(context.Background()))

	current = time.Date(2025, 3, 11, 2, 0, 0, 0, time.Local)
	assert.True(t, s.checkAndRun(context.Background()))

	assert.Equal(t, int32(2), gen.calls.Load())
	status := s.Status()
	assert.Equal(t, "02:00 daily", status["schedule"])
	require.NotNil(t, status["last_result"])
	assert.Equal(t, 5, status["last_result"].(*RunResult).Generated)
}

func TestSnapshotScheduler_NextRunAt(t *testing.T) {
	s, err := NewSnapshotScheduler(Config{Schedule: "0 2 * * *"}, &stubGenerator{}, zaptest.NewLogger(t))
	require.NoError(t, err)

	s.now = func() time.Time { return time.Date(2025, 3, 10, 1, 0, 0, 0, time.Local) }
	assert.Equal(t, time.Date(2025, 3, 10, 2, 0, 0, 0, time.Local), s.NextRunAt())

	s.now = func() time.Time { return time.Date(2025, 3, 10, 9, 0, 0, 0, time.Local) }
	assert.Equal(t, time.Date(2025, 3, 11, 2, 0, 0, 0, time.Local), s.NextRunAt())
}

func TestSnapshotScheduler_RecordsFailedRun(t *testing.T) {
	gen := &stubGenerator{generated: 3, err: errors.New("ads: store unavailable")}
	s, err := NewSnapshotScheduler(Config{Enabled: true, Schedule: "30 6 * * *"}, gen, zaptest.NewLogger(t))
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2025, 3, 10, 6, 30, 0, 0, time.Local) }

	require.True(t, s.checkAndRun(context.Background()))

	result, ok := s.Status()["last_result"].(*RunResult)
	require.True(t, ok)
	assert.Equal(t, 3, result.Generated)
	assert.Equal(t, "ads: store unavailable", result.Error)
	assert.NotNil(t, s.Status()["last_run_at"])
}

func TestSnapshotScheduler_StartStop(t *testing.T) {
	s, err := NewSnapshotScheduler(Config{Enabled: true, CheckInterval: 10 * time.Millisecond}, &stubGenerator{}, zaptest.NewLogger(t))
	require.NoError(t, err)

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, true, s.Status()["is_running"])

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	assert.Equal(t, false, s.Status()["is_running"])
	require.NoError(t, s.Stop(ctx))
}

func TestSnapshotScheduler_DisabledDoesNotStart(t *testing.T) {
	s, err := NewSnapshotScheduler(Config{Enabled: false}, &stubGenerator{}, zaptest.NewLogger(t))
	require.NoError(t, err)

	require.NoError(t, s.Start(context.Background()))

	assert.Equal(t, false, s.Status()["is_running"])
}
