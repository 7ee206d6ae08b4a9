package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextHop_Table(t *testing.T) {
	tests := []struct {
		kind       NodeKind
		isResponse bool
		want       hop
	}{
		{KindEntry, false, hop{rule: hopFirst, kind: KindBalancer}},
		{KindBalancer, false, hop{rule: hopLeastLoaded, kind: KindWorker}},
		{KindWorker, false, hop{rule: hopFirst, kind: KindStore}},
		{KindStore, false, hop{rule: hopTurnaround, kind: KindWorker}},
		{KindStore, true, hop{rule: hopAnchor, kind: KindWorker}},
		{KindWorker, true, hop{rule: hopFirst, kind: KindBalancer}},
		{KindBalancer, true, hop{rule: hopFirst, kind: KindEntry}},
		{KindEntry, true, hop{rule: hopComplete}},
	}
	for _, tt := range tests {
		name := tt.kind.String()
		if tt.isResponse {
			name += "/response"
		} else {
			name += "/request"
		}
		t.Run(name, func(t *testing.T) {
			got, ok := nextHop(tt.kind, tt.isResponse)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNextHop_UnknownKind(t *testing.T) {
	_, ok := nextHop(NodeKind(9), false)
	assert.False(t, ok)
	_, ok = nextHop(NodeKind(9), true)
	assert.False(t, ok)
}

func TestLeastLoaded_FirstWinsTies(t *testing.T) {
	// GIVEN three workers, the last two equally and least loaded
	e := newTestEngine(1)
	e.AddNode(1, 0, 0, KindBalancer)
	e.AddNodeWithSpec(2, 0, 0, KindWorker, 2, 50, 2, 0)
	e.AddNodeWithSpec(3, 0, 0, KindWorker, 4, 50, 2, 0)
	e.AddNodeWithSpec(4, 0, 0, KindWorker, 4, 50, 2, 0)
	e.nodes[1].InService = []ServiceSlot{{}, {}} // 2/2 = 1.0
	e.nodes[2].InService = []ServiceSlot{{}}     // 1/4
	e.nodes[3].Queue.Enqueue(0)                  // 1/4

	// WHEN the least-loaded worker is selected
	idx, load := e.leastLoaded(KindWorker)

	// THEN the first of the tied workers wins
	assert.Equal(t, 2, idx)
	assert.Equal(t, float32(0.25), load)
}

func TestLeastLoaded_ZeroSlotsUsesUnitDenominator(t *testing.T) {
	e := newTestEngine(1)
	e.AddNodeWithSpec(1, 0, 0, KindWorker, 0, 50, 5, 0)
	e.AddNodeWithSpec(2, 0, 0, KindWorker, 4, 50, 5, 0)
	e.nodes[0].Queue.Enqueue(0)                      // 1/1
	e.nodes[1].InService = []ServiceSlot{{}, {}, {}} // 3/4

	idx, _ := e.leastLoaded(KindWorker)

	assert.Equal(t, 1, idx)
}

func TestLeastLoaded_NoneOfKind(t *testing.T) {
	e := newTestEngine(1)
	e.AddNode(1, 0, 0, KindStore)
	idx, _ := e.leastLoaded(KindWorker)
	assert.Equal(t, -1, idx)
}

func TestAnchorOrFirst(t *testing.T) {
	e := newTestEngine(1)
	e.AddNode(1, 0, 0, KindStore)  // 0
	e.AddNode(2, 0, 0, KindWorker) // 1
	e.AddNode(3, 0, 0, KindWorker) // 2

	tests := []struct {
		name   string
		anchor int
		want   int
	}{
		{"valid anchor", 2, 2},
		{"unset anchor", noIndex, 1},
		{"out of range", 7, 1},
		{"anchor names a store", 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := e.anchorOrFirst(&Packet{Anchor: tt.anchor})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRoute_Turnaround_GrowsSizeAndTargetsAnchor(t *testing.T) {
	// GIVEN a request that reached a store after visiting worker 2
	e := newTestEngine(1)
	e.AddNode(1, 0, 0, KindWorker)
	e.AddNode(2, 10, 0, KindStore)
	e.AddNode(3, 20, 0, KindWorker)
	idx := e.pool.claim(0)
	p := e.pool.At(idx)
	p.Anchor = 2

	// WHEN it leaves the store
	e.route(idx, 1)

	// THEN it is a 10x response heading back to its anchor from the store
	assert.True(t, p.IsResponse)
	assert.Equal(t, float32(10), p.Size)
	assert.Equal(t, 2, p.Target)
	assert.Equal(t, float32(10), p.X)
	assert.Equal(t, StateMoving, p.State)
	assert.Equal(t, noIndex, p.Current)
}

func TestRoute_MissingStore_DropsPacket(t *testing.T) {
	e := newTestEngine(1)
	e.AddNode(1, 0, 0, KindWorker)
	idx := e.pool.claim(0)

	e.route(idx, 0)

	assert.False(t, e.pool.At(idx).Active)
	assert.Equal(t, 1, e.StatsDropped())
}

func TestRoute_ResponseAtEntry_CompletesWithRoundTrip(t *testing.T) {
	e := newTestEngine(1)
	e.AddNode(1, 0, 0, KindEntry)
	idx := e.pool.claim(0)
	p := e.pool.At(idx)
	p.IsResponse = true
	p.SpawnedAt = 0
	e.clock = 420

	e.route(idx, 0)

	assert.False(t, p.Active)
	assert.Equal(t, 1, e.StatsProcessed())
	assert.Equal(t, []float64{420}, e.RoundTrips())
}
