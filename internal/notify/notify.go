package notify

import (
	"github.com/skillbridge/skillbridge-server/internal/models"
	"github.com/skillbridge/skillbridge-server/internal/utils"
)

// Notifier delivers user-facing notifications. Delivery is fire-and-forget:
// implementations must not block the caller, and a delivery failure never
// fails the operation that triggered it.
type Notifier interface {
	SendVerificationCode(email, code string)
	SendMeetingInvite(email string, meeting *models.Meeting)
}

// LogNotifier writes notifications to the application log. It stands in for
// a real email or push channel in development and tests.
type LogNotifier struct {
	logger *utils.Logger
}

// NewLogNotifier creates a LogNotifier
func NewLogNotifier(logger *utils.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendVerificationCode(email, code string) {
	n.logger.Info("verification code for %s: %s", email, code)
}

func (n *LogNotifier) SendMeetingInvite(email string, meeting *models.Meeting) {
	n.logger.Info("meeting invite for %s: %q at %s", email, meeting.Title, meeting.StartsAt)
}
