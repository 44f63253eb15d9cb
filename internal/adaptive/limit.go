// Package adaptive recomputes a user's per-word response-time budget from
// their most recent practice sessions.
//
// Everything here is a pure function of its arguments. Callers load a
// snapshot of the recent sessions, call NextLimit, and persist the result
// under their own transaction.
package adaptive

// Bounds of the time limit in milliseconds. Every computed limit is a
// multiple of StepMs inside [MinLimitMs, MaxLimitMs].
const (
	MinLimitMs = 20000
	MaxLimitMs = 60000
	StepMs     = 5000
)

// Window is the number of most recent sessions analyzed.
const Window = 3

// hardestCue is the cue level with the least support.
const hardestCue = 3

// exceedFraction of the current limit at which a hardest-cue failure counts
// as having run out of time.
const exceedFraction = 0.9

// Result is the outcome of one attempt.
type Result string

const (
	Correct   Result = "correct"
	Incorrect Result = "incorrect"
)

// Record is one attempt inside a session.
type Record struct {
	Result         Result `json:"result"`
	CueLevel       int    `json:"cue_level"`
	ResponseTimeMs int    `json:"response_time_ms"`
}

// Session is an ordered list of attempts.
type Session struct {
	Records []Record `json:"records"`
}

// Analysis is the aggregate NextLimit bases its decision on, plus the
// decision itself.
type Analysis struct {
	SessionsAnalyzed    int     `json:"sessions_analyzed"`
	TotalWords          int     `json:"total_words"`
	CorrectWords        int     `json:"correct_words"`
	WordsExceedingTime  int     `json:"words_exceeding_time"`
	TotalResponseTimeMs int64   `json:"total_response_time_ms"`
	Accuracy            float64 `json:"accuracy"`
	AvgResponseTimeMs   float64 `json:"avg_response_time_ms"`
	ExceedRate          float64 `json:"exceed_rate"`
	CurrentLimitMs      int     `json:"current_limit_ms"`
	Rule                string  `json:"rule"`
	Adjustment          int     `json:"adjustment_ms"`
	NewLimitMs          int     `json:"new_limit_ms"`
}

// Changed reports whether the limit moved.
func (a Analysis) Changed() bool {
	return a.NewLimitMs != a.CurrentLimitMs
}

// NextLimit returns the time limit for the user's next session.
//
// current is the persisted limit, or nil when none has been stored yet, in
// which case initial is used. recent is ordered oldest first; only the last
// Window sessions are considered. With no sessions initial is returned
// unchanged.
func NextLimit(current *int, initial int, recent []Session) int {
	return Evaluate(current, initial, recent).NewLimitMs
}

// Evaluate runs the same computation as NextLimit and returns the full
// analysis.
func Evaluate(current *int, initial int, recent []Session) Analysis {
	if len(recent) == 0 {
		return Analysis{CurrentLimitMs: initial, Rule: RuleNoHistory, NewLimitMs: initial}
	}

	effective := initial
	if current != nil {
		effective = *current
	}

	window := recent
	if len(window) > Window {
		window = window[len(window)-Window:]
	}

	a := aggregate(window, effective)
	if a.TotalWords == 0 {
		a.Rule = RuleNoHistory
		a.NewLimitMs = effective
		return a
	}

	rule := selectRule(a)
	a.Rule = rule.Name
	a.Adjustment = rule.Delta
	a.NewLimitMs = roundToStep(clamp(effective+rule.Delta, MinLimitMs, MaxLimitMs))
	return a
}

func aggregate(window []Session, effective int) Analysis {
	a := Analysis{SessionsAnalyzed: len(window), CurrentLimitMs: effective}
	exceedAt := exceedFraction * float64(effective)

	for _, s := range window {
		for _, r := range s.Records {
			rt := max(r.ResponseTimeMs, 0)
			a.TotalWords++
			a.TotalResponseTimeMs += int64(rt)
			if r.Result == Correct {
				a.CorrectWords++
			}
			if r.CueLevel == hardestCue && r.Result == Incorrect && float64(rt) >= exceedAt {
				a.WordsExceedingTime++
			}
		}
	}

	if a.TotalWords > 0 {
		total := float64(a.TotalWords)
		a.Accuracy = float64(a.CorrectWords) / total * 100
		a.AvgResponseTimeMs = float64(a.TotalResponseTimeMs) / total
		a.ExceedRate = float64(a.WordsExceedingTime) / total
	}
	return a
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

// roundToStep rounds v to the nearest multiple of StepMs, halves up.
func roundToStep(v int) int {
	return (v + StepMs/2) / StepMs * StepMs
}
