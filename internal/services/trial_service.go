package services

import (
	"time"

	"github.com/google/uuid"
)

// TrialStore abstracts persistence operations required by TrialService.
type TrialStore interface {
	// AddTrial appends the trial and advances the owning session's trial
	// counters in one atomic step. It reports false when the session does
	// not exist, in which case the store is unchanged.
	AddTrial(t *Trial) bool
}

// TrialService attaches incoming per-trial measurements to a session.
type TrialService struct {
	store       TrialStore
	now         func() time.Time
	idGenerator func() string
}

func NewTrialService(store TrialStore) *TrialService {
	return &TrialService{
		store:       store,
		now:         time.Now,
		idGenerator: uuid.NewString,
	}
}

// Record validates the session reference, stamps the envelope fields and
// stores the trial. The measurement payload is copied field by field from the
// typed input; nothing else from the request body survives.
func (s *TrialService) Record(sessionID string, in TrialInput) (*Trial, error) {
	t := &Trial{
		TrialID:           s.idGenerator(),
		SessionID:         sessionID,
		Timestamp:         s.now().UnixMilli(),
		LeftImage:         in.LeftImage,
		RightImage:        in.RightImage,
		LeftFixationTime:  in.LeftFixationTime,
		RightFixationTime: in.RightFixationTime,
		FirstFixation:     in.FirstFixation,
	}
	if !s.store.AddTrial(t) {
		return nil, NewNotFoundError("session not found")
	}
	return t, nil
}
