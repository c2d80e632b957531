package api

import "github.com/gazelab/gazetrack/internal/services"

// Store is the single source of truth for sessions and trials. Both the
// in-memory reference store and the SQLite store implement it. Reads return
// copies/snapshots; each write is atomic with respect to the whole store.
type Store interface {
	AddSession(s *services.Session)
	GetSession(id string) *services.Session
	CompleteSession(id string, endTime int64) bool
	ListSessions() []*services.Session

	AddTrial(t *services.Trial) bool
	ListTrials() []*services.Trial

	CountSessions() int
	CountTrials() int
}

var _ Store = (*memoryStore)(nil)

// A Store must cover every service's narrow view of it.
var (
	_ services.SessionStore    = Store(nil)
	_ services.TrialStore      = Store(nil)
	_ services.StatisticsStore = Store(nil)
	_ services.ExportStore     = Store(nil)
)
