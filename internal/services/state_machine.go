package services

import (
	"fmt"

	"github.com/teamdesk/taskflow-api/internal/models"
)

// transitionRule describes one legal edge of the task status state machine.
type transitionRule struct {
	// adminOnly transitions may only be triggered by the project creator
	// or a team owner; the rest are open to assignees and the creator.
	adminOnly bool

	// needsSubmission requires a submission payload (note, attachments).
	needsSubmission bool

	// needsReason requires revision feedback with a non-empty reason.
	needsReason bool

	event models.NotificationEvent
}

// taskTransitions is the full transition table. Any status change not listed
// here is rejected with InvalidTransitionError. Completed has no outgoing
// edges: reopening a completed task is not supported. Pausing is not a
// status change (InProgress stays InProgress) and lives in the session
// tracker instead.
var taskTransitions = map[models.TaskStatus]map[models.TaskStatus]transitionRule{
	models.TaskStatusOpen: {
		models.TaskStatusInProgress: {event: models.EventWorkStarted},
	},
	models.TaskStatusRevision: {
		models.TaskStatusInProgress: {event: models.EventWorkStarted},
	},
	models.TaskStatusInProgress: {
		models.TaskStatusQA: {needsSubmission: true, event: models.EventWorkSubmitted},
	},
	models.TaskStatusQA: {
		models.TaskStatusCompleted: {adminOnly: true, event: models.EventTaskApproved},
		models.TaskStatusRevision:  {adminOnly: true, needsReason: true, event: models.EventRevisionRequested},
	},
}

// InvalidTransitionError reports a status change outside the transition
// table, naming both states for the user-facing message.
type InvalidTransitionError struct {
	From models.TaskStatus
	To   models.TaskStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot move task from %s to %s", e.From, e.To)
}

// transitionRuleFor looks up the rule governing a status change.
func transitionRuleFor(from, to models.TaskStatus) (transitionRule, error) {
	if targets, ok := taskTransitions[from]; ok {
		if rule, ok := targets[to]; ok {
			return rule, nil
		}
	}
	return transitionRule{}, &InvalidTransitionError{From: from, To: to}
}
