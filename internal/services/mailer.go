package services

import (
	"fmt"
	"html/template"
	"log"
	"net/smtp"
	"strings"

	"github.com/Yusuf-Babagana/smahi/internal/models"
)

// Mailer sends the submission confirmation. Failures are surfaced to the
// caller but never block an accepted application.
type Mailer interface {
	SendConfirmation(app *models.Applicant) error
}

// SMTPMailer delivers over plain SMTP with optional auth.
type SMTPMailer struct {
	Host string
	Port string
	User string
	Pass string
	From string
}

// LogMailer is the no-SMTP fallback: logs instead of sending, so local and
// test environments work without a mail server.
type LogMailer struct{}

func (LogMailer) SendConfirmation(app *models.Applicant) error {
	log.Printf("mailer: would send confirmation to %s (applicant #%d)", app.Email, app.ID)
	return nil
}

// NewMailer picks SMTP when a host is configured, otherwise the log fallback.
func NewMailer(host, port, user, pass, from string) Mailer {
	if host == "" {
		return LogMailer{}
	}
	return &SMTPMailer{Host: host, Port: port, User: user, Pass: pass, From: from}
}

func (m *SMTPMailer) SendConfirmation(app *models.Applicant) error {
	subject := "Agent Position Application Confirmation - S MAHI Global Services"
	boundary := "smahi-confirmation"
	msg := strings.Join([]string{
		"From: " + m.From,
		"To: " + app.Email,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: multipart/alternative; boundary=" + boundary,
		"",
		"--" + boundary,
		"Content-Type: text/plain; charset=utf-8",
		"",
		confirmationBody(app),
		"--" + boundary,
		"Content-Type: text/html; charset=utf-8",
		"",
		confirmationHTML(app),
		"--" + boundary + "--",
	}, "\r\n")

	addr := m.Host + ":" + m.Port
	var auth smtp.Auth
	if m.User != "" {
		auth = smtp.PlainAuth("", m.User, m.Pass, m.Host)
	}
	if err := smtp.SendMail(addr, auth, m.From, []string{app.Email}, []byte(msg)); err != nil {
		return fmt.Errorf("send confirmation to %s: %w", app.Email, err)
	}
	return nil
}

func confirmationBody(app *models.Applicant) string {
	return fmt.Sprintf(`Dear %s,

Thank you for your interest in joining S MAHI Global Services!

We have successfully received your application for the Agent position.

Application Details:
- Name: %s
- Position: %s
- Email: %s
- Phone: %s
- State: %s
- Submitted: %s

Our HR team will review your application and contact you within 5-7 business days.

Best regards,
S MAHI Global Services HR Team
`,
		app.FullName,
		app.FullName,
		models.ChoiceLabel(models.PositionChoices, app.PositionApplied),
		app.Email,
		app.Phone,
		models.ChoiceLabel(models.StateChoices, app.State),
		app.CreatedAt.Format("January 2, 2006 at 3:04 PM"),
	)
}

func confirmationHTML(app *models.Applicant) string {
	esc := template.HTMLEscapeString
	return fmt.Sprintf(`<html><body>
<p>Dear %s,</p>
<p>Thank you for your interest in joining <strong>S MAHI Global Services</strong>!</p>
<p>We have successfully received your application for the Agent position.</p>
<p><strong>Application Details:</strong></p>
<ul>
<li>Name: %s</li>
<li>Position: %s</li>
<li>Email: %s</li>
<li>Phone: %s</li>
<li>State: %s</li>
<li>Submitted: %s</li>
</ul>
<p>Our HR team will review your application and contact you within 5-7 business days.</p>
<p>Best regards,<br>S MAHI Global Services HR Team</p>
</body></html>`,
		esc(app.FullName),
		esc(app.FullName),
		esc(models.ChoiceLabel(models.PositionChoices, app.PositionApplied)),
		esc(app.Email),
		esc(app.Phone),
		esc(models.ChoiceLabel(models.StateChoices, app.State)),
		app.CreatedAt.Format("January 2, 2006 at 3:04 PM"),
	)
}
