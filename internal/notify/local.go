package notify

import (
	"context"

	"github.com/carelink/escort-platform/pkg/logging"
)

// LocalNotifier surfaces the unconditional in-app confirmation that follows
// a successful match, independent of whether any remote push got through.
type LocalNotifier interface {
	Notify(ctx context.Context, title, body string, data map[string]string)
}

// LogLocalNotifier records local notifications in the service log.
type LogLocalNotifier struct {
	logger *logging.Logger
}

// NewLogLocalNotifier creates a log-backed local notifier.
func NewLogLocalNotifier(logger *logging.Logger) *LogLocalNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogLocalNotifier{logger: logger}
}

// Notify emits the confirmation as a structured log record.
func (n *LogLocalNotifier) Notify(ctx context.Context, title, body string, data map[string]string) {
	n.logger.Info("local notification", "title", title, "body", body, "data", data)
}

// Ensure interface compliance
var _ LocalNotifier = (*LogLocalNotifier)(nil)
