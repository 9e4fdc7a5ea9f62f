package models

import (
	"fmt"
	"time"

	"adboard/internal/events"

	"gorm.io/gorm"
)

func (a *Ad) AfterCreate(tx *gorm.DB) error {
	events.Emit("ads.created", a)
	return nil
}

// AfterFind recomputes the derived status so every read reflects
// wall-clock time
func (a *Ad) AfterFind(tx *gorm.DB) error {
	a.Status = a.StatusAt(time.Now())
	return nil
}

func (p *Partner) AfterCreate(tx *gorm.DB) error {
	events.Emit("partners.created", p)
	return nil
}

func (i *Invite) AfterCreate(tx *gorm.DB) error {
	events.Emit("invites.created", i)
	return nil
}

func (u *User) AfterFind(tx *gorm.DB) error {
	if u.AvatarPath == "" {
		return nil
	}

	registryMu.RLock()
	generator := urlGenerator
	registryMu.RUnlock()

	if generator != nil {
		url, err := generator.GetSignedURL(tx.Statement.Context, u.AvatarPath, time.Hour)
		if err != nil {
			return fmt.Errorf("failed to generate signed avatar URL: %w", err)
		}
		u.AvatarURL = url
	}
	return nil
}
