// Package classify maps heterogeneous upstream signals onto the canonical
// enums the rest of the system displays: learner training status, timed
// assessment outcomes and program lifecycle state. Everything here is a
// pure function; callers own persistence.
package classify

import "strings"

type LearnerStatus string

const (
	StatusPending    LearnerStatus = "pending"
	StatusInProgress LearnerStatus = "in_progress"
	StatusCompleted  LearnerStatus = "completed"
	// StatusNeedsReview is reserved for learners whose profile data could
	// not be fetched. CanonicalStatus never returns it; unknown strings
	// default to pending so upstream typos don't raise false alarms.
	StatusNeedsReview LearnerStatus = "needs_review"
)

// inProgressStatuses are the known free-text values the user-profile
// service emits for a learner with active training.
var inProgressStatuses = map[string]struct{}{
	"DNL":                {},
	"UFM":                {},
	"ACTIVE":             {},
	"LEARNING REQUESTED": {},
	"ACTIVELY LEARNING":  {},
}

// CanonicalStatus normalizes the profile service's free-text status. The
// mapping is total: every input, including empty or garbage, produces
// exactly one status and never an error.
func CanonicalStatus(raw string) LearnerStatus {
	normalized := strings.ToUpper(strings.TrimSpace(raw))

	if normalized == "REFORMED" {
		return StatusCompleted
	}
	if _, ok := inProgressStatuses[normalized]; ok {
		return StatusInProgress
	}
	return StatusPending
}

// LearnerRecord is the display-ready view of one target user within a
// training program.
type LearnerRecord struct {
	UserID          string        `json:"user_id"`
	Email           string        `json:"email"`
	RawStatus       string        `json:"raw_status"`
	CanonicalStatus LearnerStatus `json:"canonical_status"`
	Score           int           `json:"score"`
	LastActivity    string        `json:"last_activity,omitempty"`
}

func NewLearnerRecord(userID, email, rawStatus string, score int) LearnerRecord {
	return LearnerRecord{
		UserID:          userID,
		Email:           email,
		RawStatus:       rawStatus,
		CanonicalStatus: CanonicalStatus(rawStatus),
		Score:           score,
	}
}
