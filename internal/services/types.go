package services

// Session status values. Transitions only move forward.
const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// Sides a fixation can land on.
const (
	SideLeft  = "left"
	SideRight = "right"
)

// Session is one participant's experiment run.
type Session struct {
	SessionID           string         `json:"sessionId"`
	ParticipantID       string         `json:"participantId"`
	CalibrationAccuracy float64        `json:"calibrationAccuracy"`
	BrowserInfo         map[string]any `json:"browserInfo"`
	StartTime           int64          `json:"startTime"`
	EndTime             int64          `json:"endTime,omitempty"`
	Status              string         `json:"status"`
	TotalTrials         int            `json:"totalTrials"`
	CompletedTrials     int            `json:"completedTrials"`
}

// StimulusRef describes one displayed image. Zero values coalesce to the
// sentinel grouping keys ("unknown" / level "0") during aggregation.
type StimulusRef struct {
	Category       string `json:"category"`
	ScrambleMethod string `json:"scrambleMethod"`
	ScrambleLevel  int    `json:"scrambleLevel"`
}

// Trial is a single recorded stimulus presentation. Measurement fields are
// optional; pointers distinguish an absent measurement from a zero one.
type Trial struct {
	TrialID           string       `json:"trialId"`
	SessionID         string       `json:"sessionId"`
	Timestamp         int64        `json:"timestamp"`
	LeftImage         *StimulusRef `json:"leftImage,omitempty"`
	RightImage        *StimulusRef `json:"rightImage,omitempty"`
	LeftFixationTime  *float64     `json:"leftFixationTime,omitempty"`
	RightFixationTime *float64     `json:"rightFixationTime,omitempty"`
	FirstFixation     string       `json:"firstFixation,omitempty"`
}

// TrialInput is the caller-supplied portion of a trial. Envelope fields
// (trialId, sessionId, timestamp) are generated at save time; payload keys
// outside this record are ignored.
type TrialInput struct {
	LeftImage         *StimulusRef `json:"leftImage"`
	RightImage        *StimulusRef `json:"rightImage"`
	LeftFixationTime  *float64     `json:"leftFixationTime"`
	RightFixationTime *float64     `json:"rightFixationTime"`
	FirstFixation     string       `json:"firstFixation"`
}
