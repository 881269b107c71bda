package notify

import (
	"fmt"

	"github.com/robinjoseph08/golib/logger"
)

// Notifier is the user-facing notification channel. The default sink is the
// structured log; a desktop client can plug in its own toast surface.
type Notifier interface {
	Info(msg string)
	Success(msg string)
	Warn(msg string)
}

// LogNotifier writes notifications to the structured log.
type LogNotifier struct {
	log logger.Logger
}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{log: logger.New()}
}

func (n *LogNotifier) Info(msg string) {
	n.log.Info(msg, logger.Data{"channel": "notification"})
}

func (n *LogNotifier) Success(msg string) {
	n.log.Info(msg, logger.Data{"channel": "notification", "kind": "success"})
}

func (n *LogNotifier) Warn(msg string) {
	n.log.Warn(msg, logger.Data{"channel": "notification", "kind": "warning"})
}

// Advisory messages shown at enqueue time, before any drain runs.
const (
	AnnotationSavedOffline   = "Annotation saved. It will sync when the connection returns."
	AnnotationUpdatedOffline = "Annotation updated. It will sync when the connection returns."
	AnnotationDeletedOffline = "Annotation deleted. It will sync when the connection returns."
)

// DrainOutcome formats the single aggregate message surfaced after a drain.
func DrainOutcome(succeeded, failed int) string {
	switch {
	case failed == 0:
		return fmt.Sprintf("Synced %d offline change(s).", succeeded)
	case succeeded == 0:
		return fmt.Sprintf("Failed to sync %d offline change(s). They will be retried.", failed)
	default:
		return fmt.Sprintf("Synced %d offline change(s); %d failed and will be retried.", succeeded, failed)
	}
}
