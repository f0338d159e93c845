package state

import (
	"errors"
	"sync"

	"github.com/ngenohkevin/lmsdesk/internal/apiclient"
	"github.com/ngenohkevin/lmsdesk/internal/models"
)

// FallbackMessage is shown when a failure carries no usable message.
const FallbackMessage = "Something went wrong. Please try again."

type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

type Notification struct {
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// NotificationStore holds at most one notification at a time.
type NotificationStore struct {
	mu      sync.RWMutex
	current *Notification
}

func NewNotificationStore() *NotificationStore {
	return &NotificationStore{}
}

func (n *NotificationStore) Show(message string, severity Severity) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.current = &Notification{Message: message, Severity: severity}
}

// ShowError records a failed operation, using the server's message when it
// sent one.
func (n *NotificationStore) ShowError(err error) {
	n.Show(ErrorMessage(err), SeverityError)
}

// Current returns the shown notification, or nil.
func (n *NotificationStore) Current() *Notification {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.current == nil {
		return nil
	}
	c := *n.current
	return &c
}

func (n *NotificationStore) Hide() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.current = nil
}

// ErrorMessage is the user facing text for err.
func ErrorMessage(err error) string {
	var httpErr *apiclient.HTTPError
	if errors.As(err, &httpErr) && httpErr.Message != "" {
		return httpErr.Message
	}
	var validationErr *models.ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Error()
	}
	return FallbackMessage
}
