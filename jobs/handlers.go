package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/whitepages/keystone/internal/roles"
)

// NewRevocationHandler processes revocation scopes produced by grant and
// role deletions. The token backend integration is a log line for now; the
// metrics record how much revocation traffic assignments generate.
func NewRevocationHandler(logger *slog.Logger, metrics *Metrics) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track("revocation_notify")
		var payload RevocationPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			_ = tracker.End(err)
			return asynq.SkipRetry
		}
		for _, userID := range payload.Scope.UserIDs {
			logger.Info("revoke all tokens for user", slog.String("user_id", userID))
		}
		for _, p := range payload.Scope.ProjectScoped {
			logger.Info("revoke project tokens for user",
				slog.String("user_id", p.UserID),
				slog.String("project_id", p.ProjectID))
		}
		metrics.AddRevocations("user", len(payload.Scope.UserIDs))
		metrics.AddRevocations("user_project", len(payload.Scope.ProjectScoped))
		return tracker.End(nil)
	}
}

// ImplicationLister is the slice of the role layer the audit job needs.
type ImplicationLister interface {
	ListImplications(ctx context.Context) ([]roles.ImpliedRole, error)
}

// NewInferenceAuditHandler reports inference rule cycles. The resolver
// tolerates cycles at read time, so this job exists to surface them to
// operators before they hide roles from listings.
func NewInferenceAuditHandler(lister ImplicationLister, logger *slog.Logger, metrics *Metrics) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track("inference_audit")
		edges, err := lister.ListImplications(ctx)
		if err != nil {
			return tracker.End(err)
		}
		cycles := findInferenceCycles(edges)
		for _, cycle := range cycles {
			logger.Warn("role inference cycle", slog.Any("roles", cycle))
		}
		metrics.AddInferenceCycles(len(cycles))
		return tracker.End(nil)
	}
}

// findInferenceCycles returns one representative per cycle in the rule
// graph, each expressed as the list of role IDs on the loop.
func findInferenceCycles(edges []roles.ImpliedRole) [][]string {
	graph := make(map[string][]string)
	for _, e := range edges {
		graph[e.PriorRoleID] = append(graph[e.PriorRoleID], e.ImpliedRoleID)
	}

	const (
		unvisited = 0
		inStack   = 1
		done      = 2
	)
	state := make(map[string]int)
	var stack []string
	var cycles [][]string

	var visit func(node string)
	visit = func(node string) {
		state[node] = inStack
		stack = append(stack, node)
		for _, next := range graph[node] {
			switch state[next] {
			case unvisited:
				visit(next)
			case inStack:
				for i, id := range stack {
					if id == next {
						cycle := append([]string(nil), stack[i:]...)
						cycles = append(cycles, cycle)
						break
					}
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[node] = done
	}

	for node := range graph {
		if state[node] == unvisited {
			visit(node)
		}
	}
	return cycles
}
