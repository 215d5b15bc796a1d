package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestExecuteRunsDueEntryAndRetiresOneShot(t *testing.T) {
	s := NewScheduler(nil)
	calls := 0
	now := time.Now()
	s.Add(&Entry{
		Name:     "Subscribe",
		NextFire: now,
		Process:  func(time.Time) error { calls++; return nil },
	})

	s.Execute(now)
	require.Equal(t, 1, calls)
	require.Equal(t, 0, s.Size()) // one-shot retired and reclaimed in the same pass

	s.Execute(now)
	require.Equal(t, 1, calls) // already gone, no further execution
}

func TestExecuteReschedulesRepeatingEntry(t *testing.T) {
	s := NewScheduler(nil)
	calls := 0
	now := time.Now()
	s.Add(&Entry{
		Name:     "PostAlive",
		NextFire: now,
		RepeatMs: 1000,
		Process:  func(time.Time) error { calls++; return nil },
	})

	s.Execute(now)
	require.Equal(t, 1, calls)
	require.Equal(t, 1, s.Size())

	s.Execute(now.Add(500 * time.Millisecond))
	require.Equal(t, 1, calls) // not due yet

	s.Execute(now.Add(1100 * time.Millisecond))
	require.Equal(t, 2, calls)
}

func TestSetActiveGatesExecuteEntirely(t *testing.T) {
	s := NewScheduler(nil)
	calls := 0
	now := time.Now()
	s.Add(&Entry{Name: "MSearch", NextFire: now, Process: func(time.Time) error { calls++; return nil }})
	s.SetActive(false)

	s.Execute(now)
	require.Equal(t, 0, calls)

	s.SetActive(true)
	s.Execute(now)
	require.Equal(t, 1, calls)
}

func TestIsMSearchActive(t *testing.T) {
	s := NewScheduler(nil)
	require.False(t, s.IsMSearchActive())

	s.Add(&Entry{Name: "MSearch", NextFire: time.Now().Add(time.Hour), Process: func(time.Time) error { return nil }})
	require.True(t, s.IsMSearchActive())
}
