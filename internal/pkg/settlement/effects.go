package settlement

import (
	"github.com/gofiber/fiber/v2/log"
)

// NotificationEmitter delivers user-facing notifications and emails.
// Implementations are best-effort collaborators: every call site in this
// package wraps them with runBestEffort, so a provider outage can never
// unwind a settlement that already happened.
type NotificationEmitter interface {
	Notify(userID uint, kind, title, message string, referenceID uint) error
	SendEmail(userID uint, subject, body string) error
}

// runBestEffort executes a side effect that must not fail the settlement.
// Errors (and panics) are logged and swallowed; each effect is wrapped
// independently so one failure does not suppress the others.
func runBestEffort(name string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("settlement: best-effort %s panicked: %v", name, r)
		}
	}()
	if err := fn(); err != nil {
		log.Errorf("settlement: best-effort %s failed: %v", name, err)
	}
}
