package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/gazelab/gazetrack/internal/services"
)

// Router is the thin HTTP façade over the core services. It owns request
// parsing and status-code mapping; all domain behavior lives in the services.
type Router struct {
	sessions   *services.SessionService
	trials     *services.TrialService
	statistics *services.StatisticsService
	export     *services.ExportService
}

func NewRouter(store Store) *Router {
	return &Router{
		sessions:   services.NewSessionService(store),
		trials:     services.NewTrialService(store),
		statistics: services.NewStatisticsService(store),
		export:     services.NewExportService(store),
	}
}

func (rt *Router) Register(r *mux.Router) {
	r.HandleFunc("/sessions", rt.handleCreateSession).Methods(http.MethodPost)
	r.HandleFunc("/sessions", rt.handleListSessions).Methods(http.MethodGet)
	r.HandleFunc("/sessions/{id}/trials", rt.handleRecordTrial).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{id}/complete", rt.handleCompleteSession).Methods(http.MethodPut)
	r.HandleFunc("/statistics", rt.handleStatistics).Methods(http.MethodGet)
	r.HandleFunc("/export", rt.handleExport).Methods(http.MethodGet)
	r.HandleFunc("/health", rt.handleHealth).Methods(http.MethodGet)
}

// POST /sessions
// All body fields are optional; a malformed body is treated as empty input so
// a participant is never turned away over metadata.
func (rt *Router) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ParticipantID       string         `json:"participantId"`
		CalibrationAccuracy float64        `json:"calibrationAccuracy"`
		BrowserInfo         map[string]any `json:"browserInfo"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	sess := rt.sessions.Create(services.CreateSessionRequest{
		ParticipantID:       req.ParticipantID,
		CalibrationAccuracy: req.CalibrationAccuracy,
		BrowserInfo:         req.BrowserInfo,
	})
	log.Printf("created session %s for participant %s", sess.SessionID, sess.ParticipantID)
	writeJSON(w, http.StatusOK, map[string]any{"sessionId": sess.SessionID})
}

// GET /sessions
func (rt *Router) handleListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rt.sessions.List())
}

// POST /sessions/{id}/trials
func (rt *Router) handleRecordTrial(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	var in services.TrialInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, services.NewInvalidError("invalid trial payload"))
		return
	}
	trial, err := rt.trials.Record(sessionID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	log.Printf("saved trial %s for session %s", trial.TrialID, sessionID)
	writeJSON(w, http.StatusOK, map[string]any{"trialId": trial.TrialID})
}

// PUT /sessions/{id}/complete
func (rt *Router) handleCompleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	if err := rt.sessions.Complete(sessionID); err != nil {
		writeError(w, err)
		return
	}
	log.Printf("completed session %s", sessionID)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// GET /statistics
func (rt *Router) handleStatistics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rt.statistics.Snapshot())
}

// GET /export?format=json|csv
func (rt *Router) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("format") == "csv" {
		b, err := rt.export.ExportTrialsCSV()
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", "attachment; filename=trials.csv")
		_, _ = w.Write(b)
		return
	}
	writeJSON(w, http.StatusOK, rt.export.ExportAll())
}

// GET /health
func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rt.export.HealthCheck())
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// writeError maps service error codes onto status codes. Anything outside the
// taxonomy is logged and surfaced as an opaque server error.
func writeError(w http.ResponseWriter, err error) {
	if se, ok := services.AsServiceError(err); ok {
		switch se.Code {
		case services.ErrorNotFound:
			writeJSON(w, http.StatusNotFound, map[string]string{"error": se.Message})
			return
		case services.ErrorInvalid:
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": se.Message})
			return
		}
	}
	log.Printf("internal error: %v", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}
