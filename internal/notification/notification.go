package notification

import (
	"context"
	"fmt"
	"strings"
)

// NotificationService ships the summary of an apply run
type NotificationService interface {
	SendNotification(ctx context.Context, message string) error
}

type NullNotificationService struct {
}

func NewNullNotificationService() NotificationService {
	return &NullNotificationService{}
}

func (s *NullNotificationService) SendNotification(ctx context.Context, message string) error {
	return nil
}

// FormatSummary renders the "action/result: n" lines of a run
func FormatSummary(caller string, organizations []string, summary []string, nbWarns, nbErrors int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "teamperms apply by %s on %s\n", caller, strings.Join(organizations, ", "))
	if len(summary) == 0 {
		sb.WriteString("nothing to apply\n")
	}
	for _, line := range summary {
		sb.WriteString("- " + line + "\n")
	}
	if nbWarns > 0 || nbErrors > 0 {
		fmt.Fprintf(&sb, "%d warning(s), %d error(s)\n", nbWarns, nbErrors)
	}
	return sb.String()
}
