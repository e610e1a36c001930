package trivia

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_AddGetRemove(t *testing.T) {
	m := NewManager()
	s1 := newSession(startReq("g1"), 3, Timings{})

	require.NoError(t, m.add(s1))
	assert.ErrorIs(t, m.add(newSession(startReq("g1"), 3, Timings{})), ErrSessionActive)
	assert.Equal(t, 1, m.Active())

	got, ok := m.Get("g1")
	require.True(t, ok)
	assert.Same(t, s1, got)

	assert.True(t, m.remove(s1))
	assert.False(t, m.remove(s1))

	s2 := newSession(startReq("g1"), 3, Timings{})
	require.NoError(t, m.add(s2))
	assert.False(t, m.remove(s1), "a finished game never removes a newer session")
	got, _ = m.Get("g1")
	assert.Same(t, s2, got)
}

func TestManager_Rounds(t *testing.T) {
	m := NewManager()
	s := newSession(startReq("g1"), 3, Timings{})
	rd := s.newRound("r1", question("q", "A"))

	m.openRound(rd)
	got, ok := m.round("r1")
	require.True(t, ok)
	assert.Same(t, rd, got)
	assert.Equal(t, 1, got.number)

	m.closeRound("r1")
	_, ok = m.round("r1")
	assert.False(t, ok)
}

func TestSession_HaltOnce(t *testing.T) {
	s := newSession(startReq("g1"), 3, Timings{})
	s.setState(StatePlaying)

	snap, ok := s.halt()
	assert.True(t, ok)
	assert.Equal(t, StatePlaying, snap.State)
	assert.Equal(t, StateStopped, s.State())

	_, ok = s.halt()
	assert.False(t, ok)

	s.setState(StatePlaying)
	assert.Equal(t, StateStopped, s.State(), "a stopped session never restarts")
}

func TestRound_SubmitAndClose(t *testing.T) {
	s := newSession(startReq("g1"), 3, Timings{})
	rd := s.newRound("r1", question("q", "C"))

	a, accepted, total, err := rd.submit("u1", "One", "c")
	require.NoError(t, err)
	assert.True(t, accepted)
	assert.True(t, a.Correct)
	assert.Equal(t, 1, total)

	_, accepted, total, err = rd.submit("u2", "Two", "A")
	require.NoError(t, err)
	assert.True(t, accepted)
	assert.Equal(t, 2, total)

	prev, accepted, _, err := rd.submit("u1", "One", "D")
	require.NoError(t, err)
	assert.False(t, accepted)
	assert.Equal(t, "C", prev.Label)

	answers := rd.close()
	require.Len(t, answers, 2)
	assert.Equal(t, "u1", answers[0].UserID)
	assert.False(t, answers[1].Correct)

	_, _, _, err = rd.submit("u3", "Three", "C")
	assert.ErrorIs(t, err, ErrRoundClosed)
}
