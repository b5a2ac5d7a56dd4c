package notify

import (
	"fmt"

	"github.com/greenbasket/greenbasket/app/models"
	"github.com/greenbasket/greenbasket/internal/pkg/mail"
	"gorm.io/gorm"
)

// Emitter delivers user notifications and emails. It is consumed as a
// best-effort port: callers log and discard its errors instead of letting
// them propagate into settlement state.
type Emitter struct {
	db *gorm.DB
}

func NewEmitter(db *gorm.DB) *Emitter {
	return &Emitter{db: db}
}

// Notify persists an in-app notification row.
func (e *Emitter) Notify(userID uint, kind, title, message string, referenceID uint) error {
	return models.CreateNotification(e.db, userID, kind, title, message, referenceID)
}

// SendEmail resolves the user's address and sends via SMTP.
func (e *Emitter) SendEmail(userID uint, subject, body string) error {
	var user models.User
	if err := e.db.First(&user, userID).Error; err != nil {
		return fmt.Errorf("notify: lookup user %d: %w", userID, err)
	}
	return mail.SendMail(user.Email, subject, body)
}
