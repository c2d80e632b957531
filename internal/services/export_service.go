package services

import "time"

// ExportStore abstracts the read access required by ExportService.
type ExportStore interface {
	ListSessions() []*Session
	ListTrials() []*Trial
	CountSessions() int
	CountTrials() int
}

// ExportSnapshot is the full dataset dump for offline analysis. Not paginated;
// dataset size is bounded by a single experiment run.
type ExportSnapshot struct {
	Sessions   []*Session `json:"sessions"`
	Trials     []*Trial   `json:"trials"`
	ExportTime string     `json:"exportTime"`
}

// Health reports store totals for liveness probes and the dashboard.
type Health struct {
	Status       string `json:"status"`
	SessionCount int    `json:"sessionCount"`
	TrialCount   int    `json:"trialCount"`
	Timestamp    string `json:"timestamp"`
}

// ExportService provides read-only views over the store.
type ExportService struct {
	store ExportStore
	now   func() time.Time
}

func NewExportService(store ExportStore) *ExportService {
	return &ExportService{store: store, now: time.Now}
}

// ExportAll dumps every session and trial with a wall-clock export timestamp.
func (s *ExportService) ExportAll() *ExportSnapshot {
	return &ExportSnapshot{
		Sessions:   s.store.ListSessions(),
		Trials:     s.store.ListTrials(),
		ExportTime: s.now().UTC().Format(time.RFC3339),
	}
}

// ExportTrialsCSV renders the trial sequence as long-format CSV.
func (s *ExportService) ExportTrialsCSV() ([]byte, error) {
	return renderTrialsCSV(s.store.ListTrials())
}

// HealthCheck reports current store totals.
func (s *ExportService) HealthCheck() *Health {
	return &Health{
		Status:       "healthy",
		SessionCount: s.store.CountSessions(),
		TrialCount:   s.store.CountTrials(),
		Timestamp:    s.now().UTC().Format(time.RFC3339),
	}
}
