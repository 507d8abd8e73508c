package assignment

import (
	"context"
	"errors"
	"log/slog"

	"github.com/whitepages/keystone/internal/roles"
	"github.com/whitepages/keystone/internal/shared"
)

// impliedExpander closes a set of resolved assignments over role inference
// rules. Every assignment whose role is a prior role in some rule is
// duplicated with the implied role, recording the prior role in the
// Indirect block so callers can tell where the entry came from. The
// duplicates are themselves re-checked, so chains of rules are followed to
// their transitive closure.
type impliedExpander struct {
	roles   RolesPort
	logger  *slog.Logger
	enabled bool
}

func (e *impliedExpander) expand(ctx context.Context, refs []ResolvedAssignment) ([]ResolvedAssignment, error) {
	if !e.enabled {
		return refs, nil
	}

	// Inference rules are static for the duration of one expansion, so each
	// prior role is looked up at most once.
	ruleCache := make(map[string][]roles.ImpliedRole)

	toCheck := append([]ResolvedAssignment(nil), refs...)
	results := append([]ResolvedAssignment(nil), refs...)
	var checked []ResolvedAssignment

	for len(toCheck) > 0 {
		next := toCheck[len(toCheck)-1]
		toCheck = toCheck[:len(toCheck)-1]
		checked = append(checked, next)

		rules, ok := ruleCache[next.RoleID]
		if !ok {
			var err error
			rules, err = e.roles.ListImplied(ctx, next.RoleID)
			if err != nil {
				if errors.Is(err, shared.ErrNotSupported) {
					e.logger.Error("role backend does not support implied roles")
					return results, nil
				}
				return nil, err
			}
			ruleCache[next.RoleID] = rules
		}

		for _, rule := range rules {
			implied := next
			implied.RoleID = rule.ImpliedRoleID
			implied.Indirect.RoleID = next.RoleID
			if containsAssignment(checked, implied) {
				e.logger.Error("circular reference found in role inference rules",
					slog.String("prior_role_id", next.RoleID))
				continue
			}
			results = append(results, implied)
			toCheck = append(toCheck, implied)
		}
	}
	return results, nil
}

func containsAssignment(refs []ResolvedAssignment, ref ResolvedAssignment) bool {
	for _, r := range refs {
		if r == ref {
			return true
		}
	}
	return false
}
