// Package notify is the notification hook invoked after a financial
// operation commits. Delivery is best effort: it runs on its own
// goroutine with a bounded wait and a failure is logged, never
// propagated to the caller.
package notify

import (
	"fmt"
	"net/smtp"
	"time"

	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"

	"github.com/andrei-d/partybank/internal/config"
	"github.com/andrei-d/partybank/internal/models"
)

// Event kinds passed to Notify.
const (
	EventTransferReceived = "transfer_received"
	EventTransferRequest  = "transfer_request"
	EventRequestAccepted  = "request_accepted"
	EventRequestDeclined  = "request_declined"
	EventPartyInvite      = "party_invite"
	EventPartyResponse    = "party_response"
)

// sendTimeout bounds how long a single delivery may take before it is
// treated as failed.
const sendTimeout = 10 * time.Second

// Notifier is the hook boundary the engines call on settlement events.
type Notifier interface {
	Notify(recipient *models.User, eventKind string, payload map[string]string)
}

// EmailNotifier delivers notifications over SMTP.
type EmailNotifier struct {
	cfg *config.Config
	log *logrus.Logger
}

// NewEmailNotifier creates a new email notifier
func NewEmailNotifier(cfg *config.Config, log *logrus.Logger) *EmailNotifier {
	return &EmailNotifier{cfg: cfg, log: log}
}

// Notify sends the event by email without blocking the caller. The
// financial transaction has already committed by the time this runs.
func (n *EmailNotifier) Notify(recipient *models.User, eventKind string, payload map[string]string) {
	go func() {
		done := make(chan error, 1)
		go func() { done <- n.send(recipient, eventKind, payload) }()
		select {
		case err := <-done:
			if err != nil {
				n.log.Errorf("Failed to notify %s about %s: %v", recipient.Email, eventKind, err)
				return
			}
			n.log.Infof("Notified %s: %s", recipient.Email, eventKind)
		case <-time.After(sendTimeout):
			n.log.Errorf("Notification to %s about %s timed out", recipient.Email, eventKind)
		}
	}()
}

func (n *EmailNotifier) send(recipient *models.User, eventKind string, payload map[string]string) error {
	e := email.NewEmail()
	e.From = n.cfg.SenderEmail
	e.To = []string{recipient.Email}

	switch eventKind {
	case EventTransferReceived:
		e.Subject = "You received money"
		e.Text = []byte(fmt.Sprintf(
			"Dear %s,\n\n%s sent you %s %s.\n\nBest regards,\nPartyBank",
			recipient.FirstName, payload["from"], payload["amount"], payload["currency"]))
	case EventTransferRequest:
		e.Subject = "New transfer request"
		e.Text = []byte(fmt.Sprintf(
			"Dear %s,\n\n%s requested %s %s from you.\n\nBest regards,\nPartyBank",
			recipient.FirstName, payload["from"], payload["amount"], payload["currency"]))
	case EventPartyInvite:
		e.Subject = "You were invited to split a bill"
		e.Text = []byte(fmt.Sprintf(
			"Dear %s,\n\n%s asks you to cover %s %s of \"%s\".\n\nBest regards,\nPartyBank",
			recipient.FirstName, payload["from"], payload["amount"], payload["currency"], payload["note"]))
	default:
		e.Subject = "Account activity"
		e.Text = []byte(fmt.Sprintf(
			"Dear %s,\n\nThere is new activity on your account: %s.\n\nBest regards,\nPartyBank",
			recipient.FirstName, eventKind))
	}

	addr := fmt.Sprintf("%s:%s", n.cfg.SMTPHost, n.cfg.SMTPPort)
	auth := smtp.PlainAuth("", n.cfg.SMTPUsername, n.cfg.SMTPPassword, n.cfg.SMTPHost)
	if err := e.Send(addr, auth); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// NopNotifier drops every notification; used when SMTP is not
// configured and in tests.
type NopNotifier struct{}

func (NopNotifier) Notify(*models.User, string, map[string]string) {}

var (
	_ Notifier = (*EmailNotifier)(nil)
	_ Notifier = NopNotifier{}
)
