package observability

import (
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestLogCollection(t *testing.T) {
	t.Run("happy path: events", func(t *testing.T) {
		logsCollector := NewLogCollection()
		logsCollector.AddEvent(Event{Level: logrus.InfoLevel, Organization: "acme", Team: "backend", Kind: "repository", Entity: "api", Action: "grant", Detail: "READ", Result: ResultApplied})
		logsCollector.AddEvent(Event{Level: logrus.InfoLevel, Organization: "acme", Team: "backend", Kind: "repository", Entity: "web", Action: "grant", Detail: "READ", Result: ResultApplied})
		logsCollector.AddEvent(Event{Level: logrus.WarnLevel, Organization: "acme", Team: "backend", Kind: "repository", Entity: "ghost", Action: "skip", Result: ResultNotAvailable})

		assert.Equal(t, 1, len(logsCollector.EventsByLevel(logrus.WarnLevel)))
		assert.Equal(t, []string{"grant/applied: 2", "skip/not_available: 1"}, logsCollector.Summary())
		assert.Equal(t, "acme/backend repository api grant READ: applied", logsCollector.Events[0].String())

		fields := logsCollector.Events[2].Fields()
		assert.Equal(t, "ghost", fields["entity"])
		_, hasDetail := fields["detail"]
		assert.False(t, hasDetail)
	})

	t.Run("happy path: errors and warnings", func(t *testing.T) {
		logsCollector := NewLogCollection()
		assert.False(t, logsCollector.HasErrors())
		assert.False(t, logsCollector.HasWarns())

		logsCollector.AddWarn(fmt.Errorf("team ops not found"))
		logsCollector.AddError(fmt.Errorf("boom"))
		logsCollector.AddInfo(map[string]any{"organization": "acme"}, "loading %s", "teams")

		assert.True(t, logsCollector.HasErrors())
		assert.True(t, logsCollector.HasWarns())
		assert.Equal(t, logrus.InfoLevel, logsCollector.Logs[0].LogLevel)
	})
}
