package services

import (
	"bytes"
	"encoding/csv"
	"strconv"
)

// renderTrialsCSV writes one row per contributed side observation, mirroring
// how the statistics aggregator reads trials. Trials without a usable side
// still emit a single row so no recorded trial disappears from the export.
func renderTrialsCSV(trials []*Trial) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"trial_id", "session_id", "timestamp", "side", "category", "scramble_method", "scramble_level", "fixation_time", "first_fixation"})
	for _, t := range trials {
		wrote := false
		if t.LeftImage != nil && t.LeftFixationTime != nil {
			if err := w.Write(trialRow(t, SideLeft, t.LeftImage, *t.LeftFixationTime)); err != nil {
				return nil, err
			}
			wrote = true
		}
		if t.RightImage != nil && t.RightFixationTime != nil {
			if err := w.Write(trialRow(t, SideRight, t.RightImage, *t.RightFixationTime)); err != nil {
				return nil, err
			}
			wrote = true
		}
		if !wrote {
			if err := w.Write([]string{t.TrialID, t.SessionID, strconv.FormatInt(t.Timestamp, 10), "", "", "", "", "", t.FirstFixation}); err != nil {
				return nil, err
			}
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func trialRow(t *Trial, side string, img *StimulusRef, fixation float64) []string {
	category := img.Category
	if category == "" {
		category = "unknown"
	}
	method := img.ScrambleMethod
	if method == "" {
		method = "unknown"
	}
	return []string{
		t.TrialID,
		t.SessionID,
		strconv.FormatInt(t.Timestamp, 10),
		side,
		category,
		method,
		strconv.Itoa(img.ScrambleLevel),
		strconv.FormatFloat(fixation, 'f', -1, 64),
		t.FirstFixation,
	}
}
