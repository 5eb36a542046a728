package backup

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sappho-media/sappho/internal/testutil"
)

func TestScheduler_RunCycle(t *testing.T) {
	e := newTestEngine(t)
	s := NewScheduler(e, false, 0, testutil.Logger())

	s.RunCycle(context.Background())

	status, err := s.Status()
	require.NoError(t, err)
	require.Equal(t, 1, status.BackupCount)
	require.NotNil(t, status.LastBackup)
	require.Contains(t, status.LastResult, "created sappho-backup-")
	require.False(t, status.InProgress)
}

func TestScheduler_RunCycleAppliesRetention(t *testing.T) {
	e := newTestEngine(t)
	s := NewScheduler(e, false, 2, testutil.Logger())

	base := time.Date(2024, 1, 7, 3, 0, 0, 0, time.UTC)
	writeBundleFile(t, e.Dir(), "sappho-backup-2024-01-07T03-00-00-000Z.zip", 64, base)
	writeBundleFile(t, e.Dir(), "sappho-backup-2024-01-08T03-00-00-000Z.zip", 64, base.AddDate(0, 0, 1))

	s.RunCycle(context.Background())

	bundles, err := e.ListBackups()
	require.NoError(t, err)
	require.Len(t, bundles, 2, "retention keeps the two newest bundles")
	require.True(t, strings.HasPrefix(bundles[0].Filename, "sappho-backup-2"), "newest is the fresh build")
	require.Equal(t, "sappho-backup-2024-01-08T03-00-00-000Z.zip", bundles[1].Filename)
}

func TestScheduler_RunCycleSkipsWhileBusy(t *testing.T) {
	e := newTestEngine(t)
	s := NewScheduler(e, false, 0, testutil.Logger())

	require.True(t, e.TryBegin())
	defer e.End()

	s.RunCycle(context.Background())

	status, err := s.Status()
	require.NoError(t, err)
	require.Equal(t, 0, status.BackupCount, "cycle must be skipped, not queued")
	require.Nil(t, status.LastBackup)
}

func TestScheduler_RunCycleRecordsFailure(t *testing.T) {
	e := newTestEngine(t)
	s := NewScheduler(e, false, 0, testutil.Logger())

	require.NoError(t, os.Remove(e.dbPath))

	s.RunCycle(context.Background())

	status, err := s.Status()
	require.NoError(t, err)
	require.Contains(t, status.LastResult, "backup failed")
	require.NotNil(t, status.LastBackup, "failed runs still count as runs")
}

func TestScheduler_StartIsIdempotent(t *testing.T) {
	e := newTestEngine(t)
	s := NewScheduler(e, false, 0, testutil.Logger())
	defer s.Stop()

	s.startEvery(time.Hour)
	require.True(t, s.Running())

	first := s.stop
	s.startEvery(time.Hour)
	require.True(t, first == s.stop, "second start must not replace the timer")
}

func TestScheduler_StopIsIdempotent(t *testing.T) {
	e := newTestEngine(t)
	s := NewScheduler(e, false, 0, testutil.Logger())

	s.Stop()
	require.False(t, s.Running())

	s.startEvery(time.Hour)
	s.Stop()
	s.Stop()
	require.False(t, s.Running())
}

func TestScheduler_RestartAfterStop(t *testing.T) {
	e := newTestEngine(t)
	s := NewScheduler(e, false, 0, testutil.Logger())

	s.startEvery(time.Hour)
	s.Stop()
	s.startEvery(time.Hour)
	require.True(t, s.Running())
	s.Stop()
}

func TestScheduler_TicksProduceBackups(t *testing.T) {
	e := newTestEngine(t)
	s := NewScheduler(e, false, 0, testutil.Logger())

	s.startEvery(25 * time.Millisecond)
	defer s.Stop()

	deadline := time.Now().Add(5 * time.Second)
	for {
		bundles, err := e.ListBackups()
		require.NoError(t, err)
		if len(bundles) > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("no backup produced by the scheduler within the deadline")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
