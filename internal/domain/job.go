package domain

import "time"

// Job is the unit of work admitted by the rule queue. It carries the rule to
// apply and the session captured at enqueue time so the consumer can
// re-authenticate when the job is eventually picked up.
type Job struct {
	ID        string       `json:"id"`
	RuleID    string       `json:"rule_id"`
	Session   AdminSession `json:"session"`
	CreatedAt time.Time    `json:"created_at"`
}

// JobEventType classifies job lifecycle notifications.
type JobEventType string

const (
	JobQueued    JobEventType = "queued"
	JobStarted   JobEventType = "started"
	JobProgress  JobEventType = "progress"
	JobCompleted JobEventType = "completed"
	JobFailed    JobEventType = "failed"
)

// JobEvent is published on the in-process event bus as a job moves through
// the queue. Progress is an integer percentage in [0,100].
type JobEvent struct {
	Type     JobEventType `json:"type"`
	JobID    string       `json:"job_id"`
	RuleID   string       `json:"rule_id"`
	Progress int          `json:"progress"`
	Error    string       `json:"error,omitempty"`
	At       time.Time    `json:"at"`
}
