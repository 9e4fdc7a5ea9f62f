package services

import (
	"adboard/internal/config"
	"adboard/internal/events"
	"adboard/internal/models"
	"adboard/internal/utils/logger"

	"gorm.io/gorm"
)

// Notifier turns domain events into outbound mail. Handlers emit,
// delivery failures are logged and never surface to the request.
type Notifier struct {
	db     *gorm.DB
	mailer Mailer
	cfg    *config.Config
	log    *logger.Logger
}

func NewNotifier(db *gorm.DB, mailer Mailer, cfg *config.Config) *Notifier {
	return &Notifier{
		db:     db,
		mailer: mailer,
		cfg:    cfg,
		log:    logger.New("notifier"),
	}
}

// Register subscribes the notifier on the default event bus
func (n *Notifier) Register() {
	events.On("invites.created", n.onInviteCreated)
	events.On("users.registered", n.onUserRegistered)
	events.On("password.reset", n.onPasswordReset)
}

func (n *Notifier) onInviteCreated(data interface{}) {
	invite, ok := data.(*models.Invite)
	if !ok {
		return
	}

	subject, body := InviteEmail(n.cfg.Server.PublicURL, invite)
	if err := n.mailer.Send(invite.Email, subject, body); err != nil {
		n.log.Error("Failed to send invite mail", err)
	}
}

// onUserRegistered mails every active admin with an address about the
// pending account
func (n *Notifier) onUserRegistered(data interface{}) {
	user, ok := data.(*models.User)
	if !ok {
		return
	}

	var admins []models.User
	if err := n.db.Where("role = ? AND status = ? AND email <> ''",
		models.UserRoleAdmin, models.UserStatusActive).Find(&admins).Error; err != nil {
		n.log.Error("Failed to load admins for approval mail", err)
		return
	}

	subject, body := ApprovalEmail(n.cfg.Server.PublicURL, user)
	for _, admin := range admins {
		if err := n.mailer.Send(admin.Email, subject, body); err != nil {
			n.log.Error("Failed to send approval mail to %s", err, admin.Email)
		}
	}
}

func (n *Notifier) onPasswordReset(data interface{}) {
	user, ok := data.(*models.User)
	if !ok {
		return
	}

	subject, body := PasswordResetEmail(n.cfg.Server.PublicURL, user)
	if err := n.mailer.Send(user.Email, subject, body); err != nil {
		n.log.Error("Failed to send reset mail", err)
	}
}
