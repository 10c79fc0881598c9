package classify

import (
	"errors"
	"time"
)

type AssessmentOutcome string

const (
	// OutcomeTooFast flags likely gaming: the whole session finished in
	// under the minimum plausible time. Retake required regardless of score.
	OutcomeTooFast AssessmentOutcome = "too_fast"
	OutcomePassed  AssessmentOutcome = "passed"
	OutcomeTooSlow AssessmentOutcome = "too_slow"
)

// Fixed business thresholds in minutes; not derived from the score.
const (
	minPassMinutes = 30.0
	maxPassMinutes = 60.0
)

var (
	ErrNoTimings            = errors.New("assessment has no question timings")
	ErrTimingCountMismatch  = errors.New("timing count does not match question count")
	ErrTimingEndBeforeStart = errors.New("question timing ends before it starts")
)

// QuestionTiming records when one question was shown and answered.
type QuestionTiming struct {
	QuestionIndex int       `json:"question_index"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
}

// AssessmentSession is one completed timed quiz.
type AssessmentSession struct {
	LearnerEmail   string           `json:"learner_email"`
	Timings        []QuestionTiming `json:"timings"`
	CorrectCount   int              `json:"correct_count"`
	TotalQuestions int              `json:"total_questions"`
}

// AssessmentResult is the derived outcome, persisted by the caller via the
// user-profile service.
type AssessmentResult struct {
	LearnerEmail    string            `json:"learner_email"`
	DurationMinutes float64           `json:"duration_minutes"`
	Outcome         AssessmentOutcome `json:"outcome"`
	CorrectCount    int               `json:"correct_count"`
	TotalQuestions  int               `json:"total_questions"`
}

// ScoreSession validates the session and classifies it by duration.
//
// Duration is the span from the earliest question start to the latest
// question end, not the sum of per-question times: gaps between questions
// are intentional signal. Known weakness: a user can pad the duration by
// idling on the last question; flagged for product follow-up, the behavior
// stays as is because the pass thresholds were calibrated against it.
func ScoreSession(session AssessmentSession) (AssessmentResult, error) {
	if len(session.Timings) == 0 {
		return AssessmentResult{}, ErrNoTimings
	}
	if session.TotalQuestions != len(session.Timings) {
		return AssessmentResult{}, ErrTimingCountMismatch
	}

	earliest := session.Timings[0].StartTime
	latest := session.Timings[0].EndTime

	for _, t := range session.Timings {
		if t.EndTime.Before(t.StartTime) {
			return AssessmentResult{}, ErrTimingEndBeforeStart
		}
		if t.StartTime.Before(earliest) {
			earliest = t.StartTime
		}
		if t.EndTime.After(latest) {
			latest = t.EndTime
		}
	}

	minutes := latest.Sub(earliest).Minutes()

	return AssessmentResult{
		LearnerEmail:    session.LearnerEmail,
		DurationMinutes: minutes,
		Outcome:         ClassifyDuration(minutes),
		CorrectCount:    session.CorrectCount,
		TotalQuestions:  session.TotalQuestions,
	}, nil
}

// ClassifyDuration applies the fixed pass window: under 30 minutes is too
// fast, 30 through 60 inclusive passes, over 60 is too slow.
func ClassifyDuration(minutes float64) AssessmentOutcome {
	switch {
	case minutes < minPassMinutes:
		return OutcomeTooFast
	case minutes > maxPassMinutes:
		return OutcomeTooSlow
	default:
		return OutcomePassed
	}
}
