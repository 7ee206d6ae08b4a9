package sim

import "testing"

func TestDecideAdmission(t *testing.T) {
	tests := []struct {
		name      string
		inService int
		queued    int
		spec      NodeSpec
		want      AdmissionDecision
	}{
		{"free slot", 0, 0, NodeSpec{MaxConcurrent: 1, ServiceTimeMs: 10, QueueCapacity: 1}, AdmitServe},
		{"slots busy, queue room", 1, 0, NodeSpec{MaxConcurrent: 1, ServiceTimeMs: 10, QueueCapacity: 1}, AdmitQueue},
		{"slots busy, queue full", 1, 1, NodeSpec{MaxConcurrent: 1, ServiceTimeMs: 10, QueueCapacity: 1}, AdmitDrop},
		{"no slots, no queue", 0, 0, NodeSpec{MaxConcurrent: 0, ServiceTimeMs: 10, QueueCapacity: 0}, AdmitDrop},
		{"no slots, queue room", 0, 0, NodeSpec{MaxConcurrent: 0, ServiceTimeMs: 10, QueueCapacity: 2}, AdmitQueue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := newNode(1, 0, 0, KindWorker, tt.spec)
			for i := 0; i < tt.inService; i++ {
				n.InService = append(n.InService, ServiceSlot{Packet: i})
			}
			for i := 0; i < tt.queued; i++ {
				n.Queue.Enqueue(100 + i)
			}
			if got := decideAdmission(n); got != tt.want {
				t.Errorf("decideAdmission = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestAdmission_ServiceTimeScalesWithSize(t *testing.T) {
	// GIVEN a response packet (size 10) arriving at a worker
	e := newTestEngine(1)
	e.AddNode(1, 0, 0, KindWorker)
	idx := e.pool.claim(0)
	p := e.pool.At(idx)
	p.Size = 10
	p.IsResponse = true
	p.Target = 0

	// WHEN it is admitted
	e.arrive(idx)

	// THEN its service time is 50 · (1 + 9 · 0.3)
	slots := e.nodes[0].InService
	if len(slots) != 1 {
		t.Fatalf("in service = %d, want 1", len(slots))
	}
	if diff := slots[0].RemainingMs - 185; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("RemainingMs = %v, want 185", slots[0].RemainingMs)
	}
	if p.Anchor != noIndex {
		t.Errorf("response arrival set anchor to %d, want unset", p.Anchor)
	}
}

func TestAdmission_PassThroughNeverHoldsPackets(t *testing.T) {
	// GIVEN an entry node with zero service time and a balancer behind it
	e := newTestEngine(1)
	e.AddNode(1, 0, 0, KindEntry)
	e.AddNode(2, 100, 0, KindBalancer)
	idx := e.pool.claim(0)
	e.pool.At(idx).Target = 0

	// WHEN the packet arrives at the entry
	e.arrive(idx)

	// THEN it is forwarded at once, still moving
	if got := len(e.nodes[0].InService) + e.nodes[0].Queue.Len(); got != 0 {
		t.Errorf("entry holds %d packets, want 0", got)
	}
	p := e.pool.At(idx)
	if p.State != StateMoving || p.Target != 1 {
		t.Errorf("packet state=%s target=%d, want moving toward 1", p.State, p.Target)
	}
}

func TestServiceNodes_CompletionExactlyAtZero(t *testing.T) {
	e := newTestEngine(1)
	e.AddNodeWithSpec(1, 0, 0, KindStore, 1, 30, 0, 0)
	idx := e.pool.claim(0)
	e.pool.At(idx).Target = 0
	e.arrive(idx)

	if got := e.serviceNodes(29.5); len(got) != 0 {
		t.Fatalf("completed early: %v", got)
	}
	got := e.serviceNodes(0.5)
	if len(got) != 1 || got[0].packet != idx || got[0].node != 0 {
		t.Errorf("completions = %v, want [{0 %d}]", got, idx)
	}
}
