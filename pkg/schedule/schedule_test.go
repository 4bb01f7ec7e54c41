package schedule_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darzi-app/darzi/pkg/schedule"
)

func TestCronFiresOncePerMinute(t *testing.T) {
	s := schedule.New()
	var runs atomic.Int32
	require.NoError(t, s.Cron("0 21 * * *").Name("daily-report").Run(func(context.Context) error {
		runs.Add(1)
		return nil
	}))

	ctx := context.Background()
	base := time.Date(2023, 4, 20, 21, 0, 0, 0, time.UTC)
	for i := 0; i < 60; i++ {
		s.Tick(ctx, base.Add(time.Duration(i)*time.Second))
	}
	s.Tick(ctx, base.Add(-time.Minute))
	s.Wait()
	assert.Equal(t, int32(1), runs.Load())

	s.Tick(ctx, base.Add(24*time.Hour))
	s.Wait()
	assert.Equal(t, int32(2), runs.Load())
}

func TestCronUsesLocation(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	s := schedule.New().In(ist)
	var runs atomic.Int32
	require.NoError(t, s.Cron("0 21 * * *").Run(func(context.Context) error { runs.Add(1); return nil }))

	// 21:00 IST is 15:30 UTC.
	s.Tick(context.Background(), time.Date(2023, 4, 20, 15, 30, 0, 0, time.UTC))
	s.Wait()
	assert.Equal(t, int32(1), runs.Load())
}

func TestIntervalSchedule(t *testing.T) {
	s := schedule.New()
	var runs atomic.Int32
	require.NoError(t, s.Every(5).Minutes().Run(func(context.Context) error { runs.Add(1); return nil }))

	ctx := context.Background()
	start := time.Date(2023, 4, 20, 10, 0, 0, 0, time.UTC)
	s.Tick(ctx, start)
	s.Tick(ctx, start.Add(time.Minute))
	s.Tick(ctx, start.Add(5*time.Minute))
	s.Wait()
	assert.Equal(t, int32(2), runs.Load())
}

func TestCronParsing(t *testing.T) {
	s := schedule.New()
	noop := func(context.Context) error { return nil }

	assert.NoError(t, s.Cron("*/15 9-18 * * 1,2,3,4,5").Run(noop))
	assert.Error(t, s.Cron("0 25 * * *").Run(noop))
	assert.Error(t, s.Cron("* * *").Run(noop))
	assert.Len(t, s.List(), 1)
}

func TestWithoutOverlapping(t *testing.T) {
	s := schedule.New()
	release := make(chan struct{})
	var runs atomic.Int32
	require.NoError(t, s.Every(1).Seconds().WithoutOverlapping().Run(func(context.Context) error {
		runs.Add(1)
		<-release
		return nil
	}))

	ctx := context.Background()
	start := time.Now()
	s.Tick(ctx, start)
	require.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, time.Millisecond)
	s.Tick(ctx, start.Add(2*time.Second))
	close(release)
	s.Wait()
	assert.Equal(t, int32(1), runs.Load())
}
