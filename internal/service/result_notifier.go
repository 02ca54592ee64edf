package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/careerlab/careerlab-os/internal/mail"
	"github.com/careerlab/careerlab-os/pkg/config"
	"github.com/careerlab/careerlab-os/pkg/jobs"
)

// ResultNotification is the payload for one result email.
type ResultNotification struct {
	To          string
	StudentName string
	ExamTitle   string
	Score       int
}

// ResultNotifier delivers result emails through the background queue so a
// slow or failing relay never blocks, or fails, a grading request.
type ResultNotifier struct {
	queue  *jobs.Queue
	mailer mail.Sender
	logger *zap.Logger
}

// NewResultNotifier builds the notifier and its worker queue.
func NewResultNotifier(mailer mail.Sender, cfg config.NotifierConfig, logger *zap.Logger) *ResultNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	n := &ResultNotifier{mailer: mailer, logger: logger}
	n.queue = jobs.NewQueue("result-notifications", n.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return n
}

// Start begins queue consumption.
func (n *ResultNotifier) Start(ctx context.Context) {
	n.queue.Start(ctx)
}

// Stop drains the workers.
func (n *ResultNotifier) Stop() {
	n.queue.Stop()
}

// Notify enqueues one result email.
func (n *ResultNotifier) Notify(notification ResultNotification) error {
	return n.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    "result_email",
		Payload: notification,
	})
}

func (n *ResultNotifier) handle(_ context.Context, job jobs.Job) error {
	notification, ok := job.Payload.(ResultNotification)
	if !ok {
		n.logger.Error("unexpected notification payload", zap.String("job_id", job.ID))
		return nil
	}

	subject := fmt.Sprintf("Result: %s - Career Lab Consulting", notification.ExamTitle)
	body := fmt.Sprintf("Namaste %s,\n\nYou have completed your assessment. Your score is %d%%.\n\nThank you for choosing Career Lab Consulting.",
		notification.StudentName, notification.Score)

	if err := n.mailer.Send(notification.To, subject, body); err != nil {
		return fmt.Errorf("deliver result email: %w", err)
	}
	return nil
}
