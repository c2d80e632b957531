package services

import "strconv"

// StatisticsStore abstracts the read access required by StatisticsService.
type StatisticsStore interface {
	ListTrials() []*Trial
	CountSessions() int
}

// CategoryStats summarizes observations for one stimulus category. The
// first-fixation rate exists only on this grouping dimension; it is null when
// no observation in the bucket carried first-fixation data.
type CategoryStats struct {
	AvgFixationTime   float64  `json:"avgFixationTime"`
	Count             int      `json:"count"`
	FirstFixationRate *float64 `json:"firstFixationRate"`
}

// GroupStats summarizes observations for one scramble method or level.
type GroupStats struct {
	AvgFixationTime float64 `json:"avgFixationTime"`
	Count           int     `json:"count"`
}

// StatisticsSnapshot is the aggregate view over every recorded trial.
type StatisticsSnapshot struct {
	TotalSessions    int                      `json:"totalSessions"`
	TotalTrials      int                      `json:"totalTrials"`
	ByCategory       map[string]CategoryStats `json:"byCategory"`
	ByScrambleMethod map[string]GroupStats    `json:"byScrambleMethod"`
	ByScrambleLevel  map[string]GroupStats    `json:"byScrambleLevel"`
}

// StatisticsService derives descriptive statistics across all sessions. Every
// call rescans the store; there is no cached aggregate to go stale.
type StatisticsService struct {
	store StatisticsStore
}

func NewStatisticsService(store StatisticsStore) *StatisticsService {
	return &StatisticsService{store: store}
}

type categoryAccum struct {
	fixationSum float64
	count       int
	firstMatch  int
	firstTotal  int
}

type groupAccum struct {
	fixationSum float64
	count       int
}

// Snapshot aggregates fixation times over three independent grouping
// dimensions. Each trial contributes up to two observations, one per side,
// each only when both the image descriptor and the matching fixation time are
// present on the trial.
func (s *StatisticsService) Snapshot() *StatisticsSnapshot {
	trials := s.store.ListTrials()
	cats := map[string]*categoryAccum{}
	methods := map[string]*groupAccum{}
	levels := map[string]*groupAccum{}

	for _, t := range trials {
		observe(cats, methods, levels, t, SideLeft, t.LeftImage, t.LeftFixationTime)
		observe(cats, methods, levels, t, SideRight, t.RightImage, t.RightFixationTime)
	}

	out := &StatisticsSnapshot{
		TotalSessions:    s.store.CountSessions(),
		TotalTrials:      len(trials),
		ByCategory:       make(map[string]CategoryStats, len(cats)),
		ByScrambleMethod: make(map[string]GroupStats, len(methods)),
		ByScrambleLevel:  make(map[string]GroupStats, len(levels)),
	}
	for key, acc := range cats {
		st := CategoryStats{Count: acc.count}
		if acc.count > 0 {
			st.AvgFixationTime = acc.fixationSum / float64(acc.count)
		}
		if acc.firstTotal > 0 {
			rate := float64(acc.firstMatch) / float64(acc.firstTotal)
			st.FirstFixationRate = &rate
		}
		out.ByCategory[key] = st
	}
	for key, acc := range methods {
		out.ByScrambleMethod[key] = finalizeGroup(acc)
	}
	for key, acc := range levels {
		out.ByScrambleLevel[key] = finalizeGroup(acc)
	}
	return out
}

// observe records one side's contribution. Missing stimulus metadata
// coalesces to sentinel keys so no observation is ever dropped.
func observe(cats map[string]*categoryAccum, methods, levels map[string]*groupAccum, t *Trial, side string, img *StimulusRef, fixation *float64) {
	if img == nil || fixation == nil {
		return
	}
	category := img.Category
	if category == "" {
		category = "unknown"
	}
	method := img.ScrambleMethod
	if method == "" {
		method = "unknown"
	}
	level := strconv.Itoa(img.ScrambleLevel)

	ca := cats[category]
	if ca == nil {
		ca = &categoryAccum{}
		cats[category] = ca
	}
	ca.fixationSum += *fixation
	ca.count++
	ca.firstTotal++
	if t.FirstFixation == side {
		ca.firstMatch++
	}

	addGroup(methods, method, *fixation)
	addGroup(levels, level, *fixation)
}

func addGroup(mp map[string]*groupAccum, key string, fixation float64) {
	ga := mp[key]
	if ga == nil {
		ga = &groupAccum{}
		mp[key] = ga
	}
	ga.fixationSum += fixation
	ga.count++
}

func finalizeGroup(acc *groupAccum) GroupStats {
	st := GroupStats{Count: acc.count}
	if acc.count > 0 {
		st.AvgFixationTime = acc.fixationSum / float64(acc.count)
	}
	return st
}
