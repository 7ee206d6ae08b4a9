package trace

import (
	"testing"
)

func TestSimulationTrace_RecordAdmission_AppendsRecord(t *testing.T) {
	// GIVEN a trace configured for decisions
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelDecisions})

	// WHEN an admission record is recorded
	st.RecordAdmission(AdmissionRecord{
		Packet:   3,
		Node:     2,
		NodeKind: "worker",
		Clock:    1000,
		Outcome:  OutcomeServed,
	})

	// THEN the trace contains one admission record with correct data
	if len(st.Admissions) != 1 {
		t.Fatalf("expected 1 admission, got %d", len(st.Admissions))
	}
	if st.Admissions[0].Packet != 3 {
		t.Errorf("expected packet 3, got %d", st.Admissions[0].Packet)
	}
	if st.Admissions[0].Outcome != OutcomeServed {
		t.Errorf("expected outcome served, got %s", st.Admissions[0].Outcome)
	}
}

func TestSimulationTrace_RecordRouting_AppendsRecord(t *testing.T) {
	// GIVEN a trace configured for decisions
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelDecisions})

	// WHEN a routing record is recorded
	st.RecordRouting(RoutingRecord{
		Packet: 1,
		From:   1,
		To:     2,
		Clock:  2000,
		Reason: "least-loaded (load=0.00)",
	})

	// THEN the trace contains one routing record with correct data
	if len(st.Routings) != 1 {
		t.Fatalf("expected 1 routing, got %d", len(st.Routings))
	}
	if st.Routings[0].To != 2 {
		t.Errorf("expected target 2, got %d", st.Routings[0].To)
	}
}

func TestSimulationTrace_MultipleRecords_PreservesOrder(t *testing.T) {
	// GIVEN a trace
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelDecisions})

	// WHEN multiple records are added
	st.RecordAdmission(AdmissionRecord{Packet: 1, Clock: 100, Outcome: OutcomeServed})
	st.RecordAdmission(AdmissionRecord{Packet: 2, Clock: 200, Outcome: OutcomeDropped})
	st.RecordRouting(RoutingRecord{Packet: 1, Clock: 150, To: 0})

	// THEN order is preserved
	if len(st.Admissions) != 2 {
		t.Fatalf("expected 2 admissions, got %d", len(st.Admissions))
	}
	if st.Admissions[0].Packet != 1 || st.Admissions[1].Packet != 2 {
		t.Error("admission order not preserved")
	}
	if len(st.Routings) != 1 || st.Routings[0].Packet != 1 {
		t.Error("routing record mismatch")
	}
}

func TestSimulationTrace_MaxRecords_CountsOverflow(t *testing.T) {
	// GIVEN a trace capped at 2 records per list
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelDecisions, MaxRecords: 2})

	// WHEN 3 admissions and 1 routing are recorded
	for i := 0; i < 3; i++ {
		st.RecordAdmission(AdmissionRecord{Packet: i})
	}
	st.RecordRouting(RoutingRecord{Packet: 0})

	// THEN the third admission is discarded and counted
	if len(st.Admissions) != 2 {
		t.Errorf("expected 2 admissions kept, got %d", len(st.Admissions))
	}
	if st.Overflow != 1 {
		t.Errorf("expected overflow 1, got %d", st.Overflow)
	}
	if len(st.Routings) != 1 {
		t.Errorf("expected 1 routing kept, got %d", len(st.Routings))
	}
}

func TestSimulationTrace_Reset_KeepsConfig(t *testing.T) {
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelDecisions, MaxRecords: 1})
	st.RecordAdmission(AdmissionRecord{Packet: 1})
	st.RecordAdmission(AdmissionRecord{Packet: 2})

	st.Reset()

	if len(st.Admissions) != 0 || st.Overflow != 0 {
		t.Errorf("expected empty trace after reset, got %d records, overflow %d", len(st.Admissions), st.Overflow)
	}
	if st.Config.MaxRecords != 1 {
		t.Errorf("reset changed config: %+v", st.Config)
	}
}

func TestSimulationTrace_Enabled(t *testing.T) {
	var nilTrace *SimulationTrace
	if nilTrace.Enabled() {
		t.Error("nil trace must not be enabled")
	}
	if NewSimulationTrace(TraceConfig{Level: TraceLevelNone}).Enabled() {
		t.Error("level none must not be enabled")
	}
	if !NewSimulationTrace(TraceConfig{Level: TraceLevelDecisions}).Enabled() {
		t.Error("level decisions must be enabled")
	}
}

func TestIsValidTraceLevel_ValidLevels(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"none", true},
		{"decisions", true},
		{"", true}, // empty defaults to none
		{"detailed", false},
		{"foobar", false},
		{"NONE", false}, // case-sensitive
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			if got := IsValidTraceLevel(tt.level); got != tt.valid {
				t.Errorf("IsValidTraceLevel(%q) = %v, want %v", tt.level, got, tt.valid)
			}
		})
	}
}
