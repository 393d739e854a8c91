// internal/app/system/notify/notify.go

// Package notify turns a contact submission into the messages the firm and
// the visitor receive: two outbox emails plus the WhatsApp and mailto links
// returned to the browser.
package notify

import (
	"context"
	"net/url"
	"strings"

	"github.com/dalemusser/stratalaw/internal/app/system/mailer"
	"github.com/dalemusser/stratalaw/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Firm is the contact identity used in links and emails.
type Firm struct {
	Name     string
	Email    string
	WhatsApp string // digits only, international format
	Phone    string
}

// SettingsReader loads every site setting as key -> value.
type SettingsReader interface {
	All(ctx context.Context) (map[string]any, error)
}

// Outbox stores a notification for later delivery.
type Outbox interface {
	Enqueue(ctx context.Context, kind string, submissionID *primitive.ObjectID, payload models.NotificationPayload, maxAttempts int) (primitive.ObjectID, error)
}

// Config controls notification behaviour.
type Config struct {
	Enabled     bool
	MaxAttempts int
	// Fallback values used when the matching site setting is absent.
	FirmName  string
	FirmEmail string
}

// Links are the client-side side channels returned after a submission.
type Links struct {
	WhatsAppURL string `json:"whatsapp_url"`
	MailtoURL   string `json:"mailto_url"`
}

// Service builds and enqueues contact notifications.
type Service struct {
	settings SettingsReader
	outbox   Outbox
	cfg      Config
	log      *zap.Logger
}

// New creates a Service. outbox may be nil when notifications are disabled.
func New(settings SettingsReader, outbox Outbox, cfg Config, log *zap.Logger) *Service {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	return &Service{settings: settings, outbox: outbox, cfg: cfg, log: log}
}

// Firm reads the firm identity from site settings, falling back to config.
func (s *Service) Firm(ctx context.Context) Firm {
	f := Firm{Name: s.cfg.FirmName, Email: s.cfg.FirmEmail}
	if s.settings == nil {
		return f
	}
	values, err := s.settings.All(ctx)
	if err != nil {
		s.log.Warn("notify: load settings", zap.Error(err))
		return f
	}
	if v := stringSetting(values, models.SettingFirmName); v != "" {
		f.Name = v
	}
	if v := stringSetting(values, models.SettingContactEmail); v != "" {
		f.Email = v
	}
	f.WhatsApp = digits(stringSetting(values, models.SettingWhatsAppNumber))
	f.Phone = stringSetting(values, models.SettingPhone)
	return f
}

// ContactReceived enqueues the firm and acknowledgement emails for sub and
// returns the side-channel links. Enqueue failures are logged only.
func (s *Service) ContactReceived(ctx context.Context, sub models.ContactSubmission) Links {
	firm := s.Firm(ctx)
	sum := SummaryOf(sub)
	links := Links{
		WhatsAppURL: WhatsAppURL(firm.WhatsApp, sum),
		MailtoURL:   MailtoURL(firm.Email, sum),
	}

	if !s.cfg.Enabled || s.outbox == nil {
		return links
	}

	id := sub.ID
	if firm.Email != "" {
		if p, err := FirmEmail(firm, sub); err != nil {
			s.log.Error("notify: build firm email", zap.Error(err))
		} else {
			s.enqueue(ctx, models.NotifyContactFirmEmail, &id, p)
		}
	} else {
		s.log.Warn("notify: no firm email configured, skipping firm notification",
			zap.String("submission_id", id.Hex()))
	}

	if p, err := AckEmail(firm, sub); err != nil {
		s.log.Error("notify: build acknowledgement", zap.Error(err))
	} else {
		s.enqueue(ctx, models.NotifyContactAckEmail, &id, p)
	}

	return links
}

func (s *Service) enqueue(ctx context.Context, kind string, subID *primitive.ObjectID, p models.NotificationPayload) {
	if _, err := s.outbox.Enqueue(ctx, kind, subID, p, s.cfg.MaxAttempts); err != nil {
		s.log.Error("notify: enqueue failed",
			zap.String("kind", kind),
			zap.String("submission_id", subID.Hex()),
			zap.Error(err))
	}
}

// Summary is the plain field set shown in every contact side channel.
type Summary struct {
	Name         string
	Email        string
	Phone        string
	SubjectLabel string
	Message      string
}

// SummaryOf maps the subject value to its practice-area label.
func SummaryOf(sub models.ContactSubmission) Summary {
	return Summary{
		Name:         sub.Name,
		Email:        sub.Email,
		Phone:        sub.Phone,
		SubjectLabel: models.SubjectLabel(sub.Subject),
		Message:      sub.Message,
	}
}

// WhatsAppText is the message pre-filled in the WhatsApp link.
func WhatsAppText(s Summary) string {
	return "New Contact Form Submission:\n" +
		"Name: " + s.Name + "\n" +
		"Email: " + s.Email + "\n" +
		"Phone: " + s.Phone + "\n" +
		"Subject: " + s.SubjectLabel + "\n" +
		"Message: " + s.Message
}

// MailtoSubject is the subject line used for the firm email and mailto link.
func MailtoSubject(s Summary) string {
	return "New Contact Form: " + s.SubjectLabel
}

// MailtoBody is the body pre-filled in the mailto link.
func MailtoBody(s Summary) string {
	return "New contact form submission received:\n\n" +
		"Name: " + s.Name + "\n" +
		"Email: " + s.Email + "\n" +
		"Phone: " + s.Phone + "\n" +
		"Subject: " + s.SubjectLabel + "\n" +
		"Message: " + s.Message + "\n\n" +
		"This message was sent from your website contact form."
}

// WhatsAppURL builds a wa.me link. An empty number yields a link that lets
// the sender pick the chat.
func WhatsAppURL(number string, s Summary) string {
	return "https://wa.me/" + digits(number) + "?text=" + encodeComponent(WhatsAppText(s))
}

// MailtoURL builds a mailto link addressed to the firm.
func MailtoURL(email string, s Summary) string {
	return "mailto:" + email +
		"?subject=" + encodeComponent(MailtoSubject(s)) +
		"&body=" + encodeComponent(MailtoBody(s))
}

// FirmEmail is the notification sent to the firm for a new submission.
func FirmEmail(firm Firm, sub models.ContactSubmission) (models.NotificationPayload, error) {
	sum := SummaryOf(sub)
	text, html, err := mailer.ContactEmail(mailer.ContactEmailData{
		FirmName: firm.Name,
		Heading:  "New contact form submission",
		Intro:    []string{"New contact form submission received:"},
		Fields: []mailer.Field{
			{Label: "Name", Value: sum.Name},
			{Label: "Email", Value: sum.Email},
			{Label: "Phone", Value: sum.Phone},
			{Label: "Subject", Value: sum.SubjectLabel},
			{Label: "Language", Value: languageLabel(sub.Language)},
			{Label: "Message", Value: sum.Message},
		},
		FooterNote: "This message was sent from your website contact form.",
	})
	if err != nil {
		return models.NotificationPayload{}, err
	}
	return models.NotificationPayload{
		To:       firm.Email,
		ReplyTo:  sub.Email,
		Subject:  MailtoSubject(sum),
		TextBody: text,
		HTMLBody: html,
	}, nil
}

// AckEmail is the acknowledgement sent to the visitor in their language.
func AckEmail(firm Firm, sub models.ContactSubmission) (models.NotificationPayload, error) {
	lang := models.NormalizeLang(sub.Language)
	p := Printer(lang)

	closing := []string{p.Sprintf("ack.closing"), firm.Name}
	if firm.Phone != "" {
		closing = append([]string{p.Sprintf("ack.urgent", firm.Phone)}, closing...)
	}

	text, html, err := mailer.ContactEmail(mailer.ContactEmailData{
		FirmName: firm.Name,
		Heading:  p.Sprintf("ack.heading"),
		Greeting: p.Sprintf("ack.greeting", sub.Name),
		Intro: []string{
			p.Sprintf("ack.body", firm.Name),
			p.Sprintf("ack.summary"),
		},
		Fields: []mailer.Field{
			{Label: p.Sprintf("field.subject"), Value: models.SubjectLabel(sub.Subject)},
			{Label: p.Sprintf("field.message"), Value: sub.Message},
		},
		Closing:    closing,
		FooterNote: p.Sprintf("ack.footer"),
		Lang:       lang,
	})
	if err != nil {
		return models.NotificationPayload{}, err
	}
	return models.NotificationPayload{
		To:       sub.Email,
		ReplyTo:  firm.Email,
		Subject:  p.Sprintf("ack.subject"),
		TextBody: text,
		HTMLBody: html,
	}, nil
}

func stringSetting(values map[string]any, key string) string {
	s, _ := values[key].(string)
	return strings.TrimSpace(s)
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func languageLabel(code string) string {
	for _, l := range models.SupportedLanguages {
		if l.Code == code {
			return l.Label
		}
	}
	return code
}

// encodeComponent escapes s for use as a URI component, with spaces as %20.
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
