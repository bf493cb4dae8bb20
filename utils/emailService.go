package utils

import (
	"fmt"
	"html"

	"lms/config"
	"lms/logger"
	"lms/models"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Mailer delivers a single HTML email.
type Mailer interface {
	Send(toEmail, toName, subject, htmlBody string) error
}

// Mail is the mailer used for notifications. It only logs until InitMailer runs.
var Mail Mailer = logMailer{}

// InitMailer picks SendGrid when an API key is configured.
func InitMailer(cfg *config.Config) {
	if cfg.SendgridAPIKey == "" {
		logger.Log.Warn("SENDGRID_API_KEY not set, emails will only be logged")
		Mail = logMailer{}
		return
	}
	Mail = &sendgridMailer{
		client: sendgrid.NewSendClient(cfg.SendgridAPIKey),
		from:   mail.NewEmail(cfg.EmailSenderName, cfg.EmailSender),
	}
}

type sendgridMailer struct {
	client *sendgrid.Client
	from   *mail.Email
}

func (m *sendgridMailer) Send(toEmail, toName, subject, htmlBody string) error {
	message := mail.NewSingleEmail(m.from, subject, mail.NewEmail(toName, toEmail), "", htmlBody)
	resp, err := m.client.Send(message)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

type logMailer struct{}

func (logMailer) Send(toEmail, _, subject, _ string) error {
	logger.Log.Info("Email (not sent)", "to", toEmail, "subject", subject)
	return nil
}

// sendAsync never blocks or fails the request.
func sendAsync(toEmail, toName, subject, htmlBody string) {
	mailer := Mail
	go func() {
		if err := mailer.Send(toEmail, toName, subject, htmlBody); err != nil {
			logger.Log.Error("Error sending email", "to", toEmail, "subject", subject, "error", err)
			return
		}
		logger.Log.Info("Email sent", "to", toEmail, "subject", subject)
	}()
}

func getEmailTemplate(title string, bodyContent string) string {
	return fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<body style="font-family: Arial, sans-serif; background-color: #f4f4f4; padding: 20px;">
		<div style="max-width: 600px; margin: auto; background-color: #ffffff; border-radius: 8px; padding: 30px;">
			<h2 style="color: #333333;">%s</h2>
			%s
			<p style="font-size: 12px; color: #999999; margin-top: 30px;">%s</p>
		</div>
	</body>
	</html>
	`, html.EscapeString(title), bodyContent, html.EscapeString(config.AppConfig.EmailSenderName))
}

// --- Triggers ---

func SendTeacherWelcomeEmail(user *models.User) {
	body := fmt.Sprintf(`<p>Dear %s,</p>
		<p>A teacher account has been created for you. Sign in to the dashboard with <b>%s</b>.</p>`,
		html.EscapeString(user.Name), html.EscapeString(user.Email))
	sendAsync(user.Email, user.Name, "Your teacher account is ready", getEmailTemplate("Welcome aboard", body))
}

func SendBanEmail(user *models.User) {
	body := fmt.Sprintf(`<p>Dear %s,</p>
		<p>Your account has been suspended.</p>
		<p><b>Reason:</b> %s</p>`,
		html.EscapeString(user.Name), html.EscapeString(user.BanReason))
	sendAsync(user.Email, user.Name, "Your account has been suspended", getEmailTemplate("Account suspended", body))
}

func SendUnbanEmail(user *models.User) {
	body := fmt.Sprintf(`<p>Dear %s,</p><p>Your account has been reactivated. You can sign in again.</p>`,
		html.EscapeString(user.Name))
	sendAsync(user.Email, user.Name, "Your account has been reactivated", getEmailTemplate("Account reactivated", body))
}
