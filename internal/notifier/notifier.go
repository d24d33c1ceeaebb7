package notifier

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/teamdesk/taskflow-api/internal/constants"
	"github.com/teamdesk/taskflow-api/internal/models"
	"github.com/teamdesk/taskflow-api/internal/repository"
)

// Event carries everything needed to render and route one notification.
type Event struct {
	Type       models.NotificationEvent
	TeamID     uint64
	TaskID     *uint64
	TaskKey    string
	TaskTitle  string
	ActorID    uint64
	Detail     string
	Recipients []uint64
}

// Resolver renders a user id as a human-readable name. Implementations must
// degrade to the raw id on lookup failure rather than erroring.
type Resolver interface {
	DisplayName(userID uint64) string
}

// Dispatcher delivers notifications to per-user inboxes and an optional
// per-team webhook. Delivery is asynchronous and best effort: it runs only
// after the triggering transaction has committed, failures are logged and
// never surfaced, and no ordering is guaranteed across events.
type Dispatcher struct {
	inbox    repository.NotificationRepository
	teams    repository.TeamRepository
	resolver Resolver
	webhook  *WebhookClient
	log      *logrus.Logger

	wg sync.WaitGroup
}

// NewDispatcher creates a Dispatcher. webhook may be nil to disable external
// delivery.
func NewDispatcher(inbox repository.NotificationRepository, teams repository.TeamRepository, resolver Resolver, webhook *WebhookClient, log *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		inbox:    inbox,
		teams:    teams,
		resolver: resolver,
		webhook:  webhook,
		log:      log,
	}
}

// Notify dispatches the event in the background and returns immediately.
// Callers must invoke it only after their own transaction has committed.
func (d *Dispatcher) Notify(event Event) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.deliver(event)
	}()
}

// Flush blocks until all in-flight deliveries have finished. Used on
// shutdown and in tests.
func (d *Dispatcher) Flush() {
	d.wg.Wait()
}

func (d *Dispatcher) deliver(event Event) {
	message := RenderMessage(event, d.resolver.DisplayName(event.ActorID))

	for _, userID := range event.Recipients {
		if userID == event.ActorID {
			continue
		}
		d.storeInbox(event, userID, message)
	}

	d.sendWebhook(event, message)
}

func (d *Dispatcher) storeInbox(event Event, userID uint64, message string) {
	notification := &models.Notification{
		ID:        uuid.New().String(),
		UserID:    userID,
		TaskID:    event.TaskID,
		Event:     event.Type,
		Message:   message,
		CreatedAt: time.Now(),
	}

	var err error
	for attempt := 1; attempt <= constants.NotifyMaxAttempts; attempt++ {
		if err = d.inbox.Create(notification); err == nil {
			return
		}
		time.Sleep(time.Duration(attempt) * 50 * time.Millisecond)
	}

	d.log.WithFields(logrus.Fields{
		"event":   event.Type,
		"user_id": userID,
	}).WithError(err).Warn("dropping inbox notification after retries")
}

func (d *Dispatcher) sendWebhook(event Event, message string) {
	if d.webhook == nil {
		return
	}

	team, err := d.teams.FindByID(event.TeamID)
	if err != nil {
		d.log.WithField("team_id", event.TeamID).WithError(err).
			Warn("skipping webhook delivery, team lookup failed")
		return
	}
	if team.WebhookURL == "" {
		return
	}

	if err := d.webhook.SendMessage(team.WebhookURL, message); err != nil {
		d.log.WithFields(logrus.Fields{
			"event":   event.Type,
			"team_id": event.TeamID,
		}).WithError(err).Warn("webhook delivery failed")
	}
}
