package web

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/sweeney/squat-coach/internal/status"
)

// RepsJSON lists the most recent completed repetitions, newest first.
type RepsJSON struct {
	Session string    `json:"session"`
	Reps    []RepJSON `json:"reps"`
}

// RepJSON is one completed repetition.
type RepJSON struct {
	Number     int         `json:"number"`
	End        string      `json:"end"`
	DurationMs int64       `json:"duration_ms"`
	Correct    bool        `json:"correct"`
	Faults     []FaultJSON `json:"faults"`
}

// FaultJSON is one fault of a repetition.
type FaultJSON struct {
	Phase   string `json:"phase"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

func repsView(snap status.Snapshot) RepsJSON {
	out := RepsJSON{Session: snap.Session, Reps: make([]RepJSON, 0, len(snap.Recent))}
	for i := len(snap.Recent) - 1; i >= 0; i-- {
		rec := snap.Recent[i]
		faults := make([]FaultJSON, 0)
		for phase, byType := range rec.Faults {
			for ft, msg := range byType {
				faults = append(faults, FaultJSON{Phase: string(phase), Type: string(ft), Message: msg})
			}
		}
		sort.Slice(faults, func(a, b int) bool {
			if faults[a].Phase != faults[b].Phase {
				return faults[a].Phase < faults[b].Phase
			}
			return faults[a].Type < faults[b].Type
		})
		out.Reps = append(out.Reps, RepJSON{
			Number:     rec.Number,
			End:        rec.End.UTC().Format(time.RFC3339),
			DurationMs: rec.Duration().Milliseconds(),
			Correct:    rec.Correct,
			Faults:     faults,
		})
	}
	return out
}

func formatReps(snap status.Snapshot) []byte {
	data, _ := json.MarshalIndent(repsView(snap), "", "  ")
	return data
}
