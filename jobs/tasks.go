package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"

	"github.com/whitepages/keystone/internal/assignment"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskRevocationNotify carries a revocation scope to the token backend.
	TaskRevocationNotify = "revocation:notify"
	// TaskInferenceAudit walks the role inference rules looking for cycles.
	TaskInferenceAudit = "roles:inference_audit"
)

// RevocationPayload is the wire form of a revocation scope.
type RevocationPayload struct {
	Scope assignment.RevocationScope `json:"scope"`
}

// NewRevocationTask constructs an Asynq task for the revocation scope.
func NewRevocationTask(scope assignment.RevocationScope) (*asynq.Task, error) {
	data, err := json.Marshal(RevocationPayload{Scope: scope})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRevocationNotify, data), nil
}

// NewInferenceAuditTask constructs the parameterless audit task.
func NewInferenceAuditTask() *asynq.Task {
	return asynq.NewTask(TaskInferenceAudit, nil)
}
