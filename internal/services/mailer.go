package services

import (
	"fmt"
	"strings"
	"time"

	"adboard/internal/config"
	"adboard/internal/models"
	"adboard/internal/utils/logger"

	"gopkg.in/gomail.v2"
)

// Mailer delivers outbound mail. The SMTP implementation is swapped
// for a recorder in tests.
type Mailer interface {
	Send(to, subject, body string) error
}

// SMTPMailer sends through gomail. When no SMTP host is configured it
// logs the message instead of failing.
type SMTPMailer struct {
	cfg config.SMTPConfig
	log *logger.Logger
}

func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		cfg: cfg,
		log: logger.New("mailer"),
	}
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	if !m.cfg.Configured() {
		m.log.Warn("SMTP not configured, logging mail instead")
		m.log.Info("To: %s | Subject: %s\n%s", to, subject, body)
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	dialer := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)
	if err := dialer.DialAndSend(msg); err != nil {
		return m.log.Error("Failed to send mail to %s", err, to)
	}

	m.log.Success("Mail sent to %s: %s", to, subject)
	return nil
}

// InviteEmail builds the invitation message with the registration link
func InviteEmail(publicURL string, invite *models.Invite) (string, string) {
	subject := "You have been invited"
	body := fmt.Sprintf(
		"You have been invited to join with the %s role.\n\n"+
			"Register here within %d minutes:\n%s/register?invite=%s\n",
		invite.Role,
		int(time.Until(invite.ExpiresAt).Minutes()),
		publicURL,
		invite.Token,
	)
	return subject, body
}

// ApprovalEmail builds the admin notification for a pending account
func ApprovalEmail(publicURL string, user *models.User) (string, string) {
	subject := fmt.Sprintf("New registration pending approval: %s", user.Username)
	body := fmt.Sprintf(
		"%s (%s) registered and is waiting for approval.\n\n"+
			"Approve the account:\n%s/api/v1/auth/approve/%s\n",
		user.Username,
		user.Email,
		publicURL,
		user.ApprovalToken,
	)
	return subject, body
}

// PasswordResetEmail builds the reset message
func PasswordResetEmail(publicURL string, user *models.User) (string, string) {
	subject := "Password reset"
	body := fmt.Sprintf(
		"A password reset was requested for %s.\n\n"+
			"Set a new password here:\n%s/reset-password?token=%s\n\n"+
			"If this was not you, ignore this message.\n",
		user.Username,
		publicURL,
		user.ResetToken,
	)
	return subject, body
}

// DigestEmail builds the weekly summary of soon-expiring ads
func DigestEmail(user *models.User, ads []models.Ad) (string, string) {
	subject := fmt.Sprintf("Weekly digest: %d ads expiring soon", len(ads))

	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\nThe following ads expire within 7 days:\n\n", user.DisplayName)
	for _, ad := range ads {
		partner := ""
		if ad.Partner != nil {
			partner = ad.Partner.Name
		}
		fmt.Fprintf(&b, "- %s (%s, %s) ends %s\n",
			ad.Position, partner, ad.Type, ad.EndDate.Format("2006-01-02"))
	}
	b.WriteString("\n")

	return subject, b.String()
}
