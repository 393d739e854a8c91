// internal/app/system/mailer/mailer.go
package mailer

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/mail"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrNotConfigured is returned by Send when host or sender is unset.
	ErrNotConfigured = errors.New("mailer not configured")
	// ErrBadHeader is returned for recipients that could inject headers.
	ErrBadHeader = errors.New("invalid recipient header")
)

// Sender delivers one email. *Mailer implements it.
type Sender interface {
	Send(email Email) error
}

// Email is one outgoing message. HTMLBody is optional; when present the
// message is sent as multipart/alternative.
type Email struct {
	To       string
	ReplyTo  string
	Subject  string
	TextBody string
	HTMLBody string
}

// Config holds SMTP settings.
type Config struct {
	Host     string
	Port     int
	User     string
	Pass     string
	From     string
	FromName string
}

// Mailer sends email over SMTP.
type Mailer struct {
	cfg      Config
	log      *zap.Logger
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
	now      func() time.Time
}

func New(cfg Config, log *zap.Logger) *Mailer {
	return &Mailer{cfg: cfg, log: log, sendMail: smtp.SendMail, now: time.Now}
}

// Configured reports whether an SMTP host and sender address are set.
func (m *Mailer) Configured() bool {
	return m.cfg.Host != "" && m.cfg.From != ""
}

// Send delivers email through the configured relay. Auth is used only when
// both user and password are set.
func (m *Mailer) Send(email Email) error {
	if !m.Configured() {
		return ErrNotConfigured
	}
	msg, err := m.compose(email)
	if err != nil {
		return err
	}

	var auth smtp.Auth
	if m.cfg.User != "" && m.cfg.Pass != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)
	}
	addr := m.cfg.Host + ":" + strconv.Itoa(m.cfg.Port)

	if err := m.sendMail(addr, auth, m.cfg.From, []string{email.To}, msg); err != nil {
		m.log.Warn("smtp send failed",
			zap.String("to", email.To),
			zap.String("subject", email.Subject),
			zap.Error(err))
		return fmt.Errorf("send email: %w", err)
	}
	m.log.Info("email sent", zap.String("to", email.To), zap.String("subject", email.Subject))
	return nil
}

// compose renders the RFC 5322 message. Subjects and display names are
// Q-encoded since they are localized.
func (m *Mailer) compose(email Email) ([]byte, error) {
	if strings.ContainsAny(email.To+email.ReplyTo, "\r\n") || strings.TrimSpace(email.To) == "" {
		return nil, ErrBadHeader
	}

	from := (&mail.Address{Name: m.cfg.FromName, Address: m.cfg.From}).String()
	domain := "localhost"
	if _, d, ok := strings.Cut(m.cfg.From, "@"); ok && d != "" {
		domain = d
	}

	var buf bytes.Buffer
	h := textproto.MIMEHeader{}
	h.Set("From", from)
	h.Set("To", email.To)
	if email.ReplyTo != "" {
		h.Set("Reply-To", email.ReplyTo)
	}
	h.Set("Subject", mime.QEncoding.Encode("utf-8", email.Subject))
	h.Set("Date", m.now().Format(time.RFC1123Z))
	h.Set("Message-ID", "<"+uuid.NewString()+"@"+domain+">")
	h.Set("MIME-Version", "1.0")

	if email.HTMLBody == "" {
		h.Set("Content-Type", "text/plain; charset=UTF-8")
		writeHeader(&buf, h)
		buf.WriteString(email.TextBody)
		return buf.Bytes(), nil
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, part := range []struct{ ctype, content string }{
		{"text/plain; charset=UTF-8", email.TextBody},
		{"text/html; charset=UTF-8", email.HTMLBody},
	} {
		w, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {part.ctype}})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(part.content)); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	h.Set("Content-Type", `multipart/alternative; boundary="`+mw.Boundary()+`"`)
	writeHeader(&buf, h)
	buf.Write(body.Bytes())
	return buf.Bytes(), nil
}

var headerOrder = []string{"From", "To", "Reply-To", "Subject", "Date", "Message-ID", "MIME-Version", "Content-Type"}

func writeHeader(buf *bytes.Buffer, h textproto.MIMEHeader) {
	for _, k := range headerOrder {
		if v := h.Get(k); v != "" {
			buf.WriteString(k + ": " + v + "\r\n")
		}
	}
	buf.WriteString("\r\n")
}
