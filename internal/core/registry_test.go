package core

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/consiliumhq/signaling/internal/domain"
)

func checkIndexes(t *testing.T, r *Registry) {
	t.Helper()
	for _, info := range r.Rooms() {
		members := r.MembersOf(info.ID)
		require.NotEmpty(t, members, "room %s listed but empty", info.ID)
		require.Len(t, members, info.MemberCount)
		for _, id := range members {
			room, ok := r.RoomOf(id)
			require.True(t, ok, "member %s has no room mapping", id)
			require.Equal(t, info.ID, room)
			_, ok = r.ParticipantOf(id)
			require.True(t, ok)
			_, ok = r.MediaOf(id)
			require.True(t, ok, "member %s has no media entry", id)
		}
	}
}

func TestAddAndLookups(t *testing.T) {
	r := NewRegistry()

	evicted, ok := r.Add("c1", "R1", "P1", domain.MediaStatus{MicEnabled: true})
	require.False(t, ok)
	require.Empty(t, evicted)

	room, ok := r.RoomOf("c1")
	require.True(t, ok)
	require.Equal(t, domain.RoomID("R1"), room)

	pid, ok := r.ParticipantOf("c1")
	require.True(t, ok)
	require.Equal(t, domain.ParticipantID("P1"), pid)

	media, ok := r.MediaOf("c1")
	require.True(t, ok)
	require.True(t, media.MicEnabled)
	require.False(t, media.VideoEnabled)

	require.ElementsMatch(t, []ConnID{"c1"}, r.MembersOf("R1"))
	checkIndexes(t, r)
}

func TestDuplicateParticipantEvictsPrior(t *testing.T) {
	r := NewRegistry()

	r.Add("c1", "R1", "P1", domain.MediaStatus{})
	evicted, ok := r.Add("c2", "R1", "P1", domain.MediaStatus{VideoEnabled: true})
	require.True(t, ok)
	require.Equal(t, ConnID("c1"), evicted)

	// Exactly one connection holds the slot, and it is the newcomer.
	require.ElementsMatch(t, []ConnID{"c2"}, r.MembersOf("R1"))
	_, ok = r.RoomOf("c1")
	require.False(t, ok)
	_, ok = r.MediaOf("c1")
	require.False(t, ok, "evicted connection must lose its media entry")
	checkIndexes(t, r)
}

func TestReAddSameConnectionIsNotAnEviction(t *testing.T) {
	r := NewRegistry()

	r.Add("c1", "R1", "P1", domain.MediaStatus{})
	evicted, ok := r.Add("c1", "R1", "P1", domain.MediaStatus{MicEnabled: true})
	require.False(t, ok)
	require.Empty(t, evicted)
	require.ElementsMatch(t, []ConnID{"c1"}, r.MembersOf("R1"))

	media, _ := r.MediaOf("c1")
	require.True(t, media.MicEnabled)
	checkIndexes(t, r)
}

func TestAddMovesConnectionBetweenRooms(t *testing.T) {
	r := NewRegistry()

	r.Add("c1", "R1", "P1", domain.MediaStatus{})
	r.Add("c2", "R1", "P2", domain.MediaStatus{})
	r.Add("c1", "R2", "P1", domain.MediaStatus{})

	require.ElementsMatch(t, []ConnID{"c2"}, r.MembersOf("R1"))
	require.ElementsMatch(t, []ConnID{"c1"}, r.MembersOf("R2"))

	room, ok := r.RoomOf("c1")
	require.True(t, ok)
	require.Equal(t, domain.RoomID("R2"), room)
	checkIndexes(t, r)
}

func TestRemovePrunesEmptyRoom(t *testing.T) {
	r := NewRegistry()

	r.Add("c1", "R1", "P1", domain.MediaStatus{})
	r.Add("c2", "R1", "P2", domain.MediaStatus{})

	room, pid, ok := r.Remove("c1")
	require.True(t, ok)
	require.Equal(t, domain.RoomID("R1"), room)
	require.Equal(t, domain.ParticipantID("P1"), pid)
	require.NotContains(t, r.MembersOf("R1"), ConnID("c1"))

	_, _, ok = r.Remove("c2")
	require.True(t, ok)
	require.Empty(t, r.MembersOf("R1"))
	require.Empty(t, r.Rooms())

	// Duplicate disconnect signals are no-ops.
	_, _, ok = r.Remove("c2")
	require.False(t, ok)
	checkIndexes(t, r)
}

func TestSetMediaRequiresMembership(t *testing.T) {
	r := NewRegistry()

	require.False(t, r.SetMedia("ghost", domain.MediaStatus{}))

	r.Add("c1", "R1", "P1", domain.MediaStatus{})
	require.True(t, r.SetMedia("c1", domain.MediaStatus{MicEnabled: true, VideoEnabled: true}))

	media, ok := r.MediaOf("c1")
	require.True(t, ok)
	require.True(t, media.MicEnabled)
	require.True(t, media.VideoEnabled)

	r.Remove("c1")
	_, ok = r.MediaOf("c1")
	require.False(t, ok)
}

func TestIndexesStayConsistentUnderChurn(t *testing.T) {
	r := NewRegistry()

	for i := 0; i < 50; i++ {
		room := domain.RoomID(fmt.Sprintf("R%d", i%5))
		pid := domain.ParticipantID(fmt.Sprintf("P%d", i%7))
		r.Add(ConnID(fmt.Sprintf("c%d", i)), room, pid, domain.MediaStatus{})
		if i%3 == 0 {
			r.Remove(ConnID(fmt.Sprintf("c%d", i/2)))
		}
		checkIndexes(t, r)
	}
}
