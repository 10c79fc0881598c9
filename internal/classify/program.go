package classify

type CampaignState string

const (
	CampaignActive    CampaignState = "active"
	CampaignDraft     CampaignState = "draft"
	CampaignCompleted CampaignState = "completed"
	CampaignArchived  CampaignState = "archived"
)

type ProgramState string

const (
	ProgramPendingInitiation ProgramState = "pending_initiation"
	ProgramTrainingActive    ProgramState = "training_active"
	ProgramCompleted         ProgramState = "program_completed"
	ProgramArchived          ProgramState = "program_archived"
)

// ProgramStatus derives the training program's state from the originating
// campaign's lifecycle and every enrolled learner's canonical status.
//
// A program completes only when the campaign itself is completed or
// archived AND every learner is Completed or NeedsReview — a learner whose
// profile fetch failed counts as resolved rather than blocking the whole
// program on a data error.
func ProgramStatus(campaign CampaignState, learners []LearnerStatus) ProgramState {
	finished := campaign == CampaignCompleted || campaign == CampaignArchived

	if finished && len(learners) > 0 && allResolved(learners) {
		return ProgramCompleted
	}
	if campaign == CampaignArchived {
		// Archived before every learner finished.
		return ProgramArchived
	}
	if campaign == CampaignDraft || len(learners) == 0 {
		return ProgramPendingInitiation
	}

	return ProgramTrainingActive
}

func allResolved(learners []LearnerStatus) bool {
	for _, s := range learners {
		if s != StatusCompleted && s != StatusNeedsReview {
			return false
		}
	}
	return true
}
