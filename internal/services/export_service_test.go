package services

import (
	"strings"
	"testing"
	"time"
)

type stubExportStore struct {
	sessions []*Session
	trials   []*Trial
}

func (s *stubExportStore) ListSessions() []*Session { return s.sessions }
func (s *stubExportStore) ListTrials() []*Trial     { return s.trials }
func (s *stubExportStore) CountSessions() int       { return len(s.sessions) }
func (s *stubExportStore) CountTrials() int         { return len(s.trials) }

func TestExportAll(t *testing.T) {
	store := &stubExportStore{
		sessions: []*Session{{SessionID: "S1"}, {SessionID: "S2"}},
		trials:   []*Trial{{TrialID: "T1", SessionID: "S1"}},
	}
	svc := NewExportService(store)
	svc.now = func() time.Time { return time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC) }

	snap := svc.ExportAll()
	if len(snap.Sessions) != 2 || len(snap.Trials) != 1 {
		t.Fatalf("unexpected snapshot sizes: %d sessions, %d trials", len(snap.Sessions), len(snap.Trials))
	}
	if snap.ExportTime != "2026-08-25T12:00:00Z" {
		t.Fatalf("unexpected export time %q", snap.ExportTime)
	}
}

func TestHealthCheck(t *testing.T) {
	store := &stubExportStore{sessions: []*Session{{SessionID: "S1"}}}
	svc := NewExportService(store)
	h := svc.HealthCheck()
	if h.Status != "healthy" {
		t.Fatalf("unexpected status %q", h.Status)
	}
	if h.SessionCount != 1 || h.TrialCount != 0 {
		t.Fatalf("unexpected counts: %+v", h)
	}
	if h.Timestamp == "" {
		t.Fatalf("missing timestamp")
	}
}

func TestExportTrialsCSV(t *testing.T) {
	fix := 750.0
	store := &stubExportStore{trials: []*Trial{
		{
			TrialID:          "T1",
			SessionID:        "S1",
			Timestamp:        1700000000000,
			LeftImage:        &StimulusRef{Category: "gore", ScrambleMethod: "fourier", ScrambleLevel: 2},
			LeftFixationTime: &fix,
			FirstFixation:    SideLeft,
		},
		{TrialID: "T2", SessionID: "S1", Timestamp: 1700000001000},
	}}
	svc := NewExportService(store)
	b, err := svc.ExportTrialsCSV()
	if err != nil {
		t.Fatalf("ExportTrialsCSV error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines:\n%s", len(lines), b)
	}
	if lines[0] != "trial_id,session_id,timestamp,side,category,scramble_method,scramble_level,fixation_time,first_fixation" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if lines[1] != "T1,S1,1700000000000,left,gore,fourier,2,750,left" {
		t.Fatalf("unexpected row %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "T2,S1,1700000001000,,") {
		t.Fatalf("trial without observations should still emit a row, got %q", lines[2])
	}
}
