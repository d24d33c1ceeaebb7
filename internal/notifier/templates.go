package notifier

import (
	"fmt"

	"github.com/teamdesk/taskflow-api/internal/models"
)

// RenderMessage renders the human-readable text for an event. Unknown event
// types fall back to a generic line so a new event never breaks delivery.
func RenderMessage(event Event, actorName string) string {
	switch event.Type {
	case models.EventTaskCreated:
		return fmt.Sprintf("%s created task %s: %s", actorName, event.TaskKey, event.TaskTitle)
	case models.EventWorkStarted:
		return fmt.Sprintf("%s started working on %s", actorName, event.TaskKey)
	case models.EventWorkPaused:
		return fmt.Sprintf("%s paused work on %s", actorName, event.TaskKey)
	case models.EventWorkSubmitted:
		return fmt.Sprintf("%s submitted %s for QA", actorName, event.TaskKey)
	case models.EventTaskApproved:
		return fmt.Sprintf("%s approved %s", actorName, event.TaskKey)
	case models.EventRevisionRequested:
		if event.Detail != "" {
			return fmt.Sprintf("%s requested changes on %s: %s", actorName, event.TaskKey, event.Detail)
		}
		return fmt.Sprintf("%s requested changes on %s", actorName, event.TaskKey)
	case models.EventCommentPosted:
		return fmt.Sprintf("%s commented on %s", actorName, event.TaskKey)
	default:
		return fmt.Sprintf("%s updated %s", actorName, event.TaskKey)
	}
}
