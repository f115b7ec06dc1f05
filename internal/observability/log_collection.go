package observability

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
)

type Warning error

type InfoEntry struct {
	LogLevel logrus.Level
	Format   string
	Args     []any
	Fields   map[string]any
}

// Event results
const (
	ResultApplied      = "applied"
	ResultDryrun       = "dryrun"
	ResultFailed       = "failed"
	ResultNotFound     = "not_found"
	ResultExcluded     = "excluded"
	ResultNotAvailable = "not_available"
	ResultSkipped      = "skipped"
)

/*
Event is the outcome of one reconciliation step, for example
"bob added as maintainer of team backend" or "repository ghost skipped".
Events carry no formatting: it is up to the caller to render them.
*/
type Event struct {
	Level        logrus.Level
	Organization string
	Team         string
	Kind         string // membership, repository, team
	Entity       string // login, repository name or team name
	Action       string // add_member, add_maintainer, remove_member, grant, revoke, skip
	Detail       string // role or permission
	Result       string
}

func (e Event) Fields() map[string]any {
	fields := map[string]any{
		"organization": e.Organization,
		"kind":         e.Kind,
		"entity":       e.Entity,
		"action":       e.Action,
		"result":       e.Result,
	}
	if e.Team != "" {
		fields["team"] = e.Team
	}
	if e.Detail != "" {
		fields["detail"] = e.Detail
	}
	return fields
}

func (e Event) String() string {
	s := fmt.Sprintf("%s/%s %s %s %s", e.Organization, e.Team, e.Kind, e.Entity, e.Action)
	if e.Detail != "" {
		s += " " + e.Detail
	}
	return s + ": " + e.Result
}

/*
LogCollection is used to collect logs (debug/info/warning/error) and
reconciliation events, and to ship them to multiple target
(std output, but also the Slack summary)
*/
type LogCollection struct {
	Logs   []InfoEntry
	Events []Event
	Errors []error
	Warns  []Warning
}

func (ec *LogCollection) AddDebug(fields map[string]any, format string, args ...any) {
	entry := InfoEntry{
		LogLevel: logrus.DebugLevel,
		Format:   format,
		Args:     args,
		Fields:   fields,
	}
	ec.Logs = append(ec.Logs, entry)
}

func (ec *LogCollection) AddInfo(fields map[string]any, format string, args ...any) {
	entry := InfoEntry{
		LogLevel: logrus.InfoLevel,
		Format:   format,
		Args:     args,
		Fields:   fields,
	}
	ec.Logs = append(ec.Logs, entry)
}

func (ec *LogCollection) AddEvent(event Event) {
	ec.Events = append(ec.Events, event)
}

func (ec *LogCollection) AddError(err error) {
	ec.Errors = append(ec.Errors, err)
}

func (ec *LogCollection) AddWarn(err Warning) {
	ec.Warns = append(ec.Warns, err)
}

func (ec *LogCollection) HasErrors() bool {
	return len(ec.Errors) > 0
}

func (ec *LogCollection) HasWarns() bool {
	return len(ec.Warns) > 0
}

// EventsByLevel returns the events logged at the given level
func (ec *LogCollection) EventsByLevel(level logrus.Level) []Event {
	events := []Event{}
	for _, e := range ec.Events {
		if e.Level == level {
			events = append(events, e)
		}
	}
	return events
}

// Summary counts the events per "action/result", sorted by key
func (ec *LogCollection) Summary() []string {
	counts := map[string]int{}
	for _, e := range ec.Events {
		counts[e.Action+"/"+e.Result]++
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	summary := make([]string, 0, len(keys))
	for _, k := range keys {
		summary = append(summary, fmt.Sprintf("%s: %d", k, counts[k]))
	}
	return summary
}

func NewLogCollection() *LogCollection {
	return &LogCollection{
		Events: []Event{},
		Errors: []error{},
		Warns:  []Warning{},
	}
}
