package audit

import (
	"context"
	"time"
)

// Record is one mutation sent to Github
type Record struct {
	Timestamp    string `dynamodbav:"timestamp"`
	Caller       string `dynamodbav:"caller"`
	Organization string `dynamodbav:"organization"`
	Team         string `dynamodbav:"team"`
	Action       string `dynamodbav:"action"`
	Entity       string `dynamodbav:"entity"`
	Detail       string `dynamodbav:"detail"`
}

func NewRecord(caller, organization, team, action, entity, detail string) Record {
	return Record{
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		Caller:       caller,
		Organization: organization,
		Team:         team,
		Action:       action,
		Entity:       entity,
		Detail:       detail,
	}
}

/*
 * AuditSink keeps a trail of the applied mutations.
 * A failure to record must never abort a run.
 */
type AuditSink interface {
	Record(ctx context.Context, record Record) error
}

type NullAuditSink struct {
}

func NewNullAuditSink() AuditSink {
	return &NullAuditSink{}
}

func (s *NullAuditSink) Record(ctx context.Context, record Record) error {
	return nil
}
