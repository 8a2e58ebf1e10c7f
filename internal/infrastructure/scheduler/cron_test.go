package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewCronSchedulerRejectsBadSpec(t *testing.T) {
	t.Parallel()

	_, err := NewCronScheduler("every day at nine", time.UTC, nil)
	require.Error(t, err)
}

func TestNextRunDaily(t *testing.T) {
	t.Parallel()

	s, err := NewCronScheduler("0 9 * * *", time.UTC, nil)
	require.NoError(t, err)
	require.True(t, s.NextRun().IsZero())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Start(ctx, func(time.Time) {}))
	defer s.Stop(context.Background())

	next := s.NextRun().UTC()
	require.True(t, next.After(time.Now()))
	require.Equal(t, 9, next.Hour())
	require.Zero(t, next.Minute())
	require.LessOrEqual(t, time.Until(next), 24*time.Hour)
}

func TestJobRunsAndStops(t *testing.T) {
	t.Parallel()

	s, err := NewCronScheduler("@every 1s", time.UTC, nil)
	require.NoError(t, err)

	fired := make(chan time.Time, 4)
	require.NoError(t, s.Start(context.Background(), func(at time.Time) {
		select {
		case fired <- at:
		default:
		}
	}))

	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not fire")
	}

	require.NoError(t, s.Stop(context.Background()))
	require.True(t, s.NextRun().IsZero())
	require.NoError(t, s.Stop(context.Background()), "second stop is a no-op")
}

func TestStartIgnoresNilJob(t *testing.T) {
	t.Parallel()

	s, err := NewCronScheduler("0 9 * * *", nil, nil)
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background(), nil))
	require.True(t, s.NextRun().IsZero())
}

func TestStopWaitsForRunningJobInEveryCaller(t *testing.T) {
	t.Parallel()

	s, err := NewCronScheduler("@every 1s", time.UTC, nil)
	require.NoError(t, err)

	started := make(chan struct{}, 1)
	release := make(chan struct{})
	require.NoError(t, s.Start(context.Background(), func(time.Time) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
	}))

	select {
	case <-started:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not fire")
	}

	stopped := make(chan error, 2)
	for range 2 {
		go func() { stopped <- s.Stop(context.Background()) }()
	}

	select {
	case <-stopped:
		t.Fatal("Stop returned while the job was still running")
	case <-time.After(100 * time.Millisecond):
	}

	close(release)
	for range 2 {
		select {
		case err := <-stopped:
			require.NoError(t, err)
		case <-time.After(3 * time.Second):
			t.Fatal("Stop did not return after the job finished")
		}
	}
}

func TestStopHonoursDeadline(t *testing.T) {
	t.Parallel()

	s, err := NewCronScheduler("@every 1s", time.UTC, nil)
	require.NoError(t, err)

	started := make(chan struct{}, 1)
	release := make(chan struct{})
	defer close(release)
	require.NoError(t, s.Start(context.Background(), func(time.Time) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
	}))
	select {
	case <-started:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not fire")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, s.Stop(ctx), context.DeadlineExceeded)
}
