package engine

import (
	"context"

	"github.com/goliac-project/teamperms/internal/entity"
	"github.com/goliac-project/teamperms/internal/observability"
	"github.com/goliac-project/teamperms/internal/utils"
	"github.com/sirupsen/logrus"
)

// RepositoryPermissionPlan is the resolved permission of a team on each repository
type RepositoryPermissionPlan struct {
	Permissions  map[string]entity.Permission // never contains an excluded or an unavailable repository
	Excluded     []string                     // candidates skipped because of an exclusion
	NotAvailable []string                     // candidates that don't exist in the organization
}

// RepositoryNames returns the repositories of the plan, sorted
func (p *RepositoryPermissionPlan) RepositoryNames() []string {
	return utils.SortedKeys(p.Permissions)
}

/*
 * ComputeRepositoryPermissions resolves the permissions of a team:
 * - the candidates are the explicit repositories if any, else every
 *   available repository
 * - an excluded candidate is skipped
 * - a candidate missing from the organization is skipped
 * - the override wins over the default permission (NONE if not set)
 *
 * available must be sorted.
 */
func ComputeRepositoryPermissions(available []string, team *entity.TeamConfiguration) *RepositoryPermissionPlan {
	plan := &RepositoryPermissionPlan{
		Permissions:  make(map[string]entity.Permission),
		Excluded:     []string{},
		NotAvailable: []string{},
	}

	availableSet := make(map[string]bool, len(available))
	for _, name := range available {
		availableSet[name] = true
	}
	excluded := make(map[string]bool, len(team.Exclusions))
	for _, name := range team.Exclusions {
		excluded[name] = true
	}

	candidates := available
	if len(team.Repositories) > 0 {
		candidates = utils.SortedSet(team.Repositories)
	}

	defaultPermission := team.DefaultPermission()
	for _, name := range candidates {
		if excluded[name] {
			plan.Excluded = append(plan.Excluded, name)
			continue
		}
		if !availableSet[name] {
			plan.NotAvailable = append(plan.NotAvailable, name)
			continue
		}
		if override, ok := team.Overrides[name]; ok {
			plan.Permissions[name] = override
		} else {
			plan.Permissions[name] = defaultPermission
		}
	}
	return plan
}

type PermissionReconciliator struct {
	executor ReconciliatorExecutor
}

func NewPermissionReconciliator(executor ReconciliatorExecutor) *PermissionReconciliator {
	return &PermissionReconciliator{executor: executor}
}

/*
 * Reconcile grants (or revokes, for NONE) the resolved permission of
 * every repository of the plan, in repository order.
 */
func (r *PermissionReconciliator) Reconcile(ctx context.Context, logsCollector *observability.LogCollection, dryrun bool, cache *OrganizationCache, team *GithubTeam, teamConfig *entity.TeamConfiguration) error {
	available, err := cache.RepositoryNames(ctx)
	if err != nil {
		return err
	}

	plan := ComputeRepositoryPermissions(available, teamConfig)

	for _, name := range plan.Excluded {
		logsCollector.AddEvent(observability.Event{
			Level:        logrus.DebugLevel,
			Organization: cache.Name(),
			Team:         team.Name,
			Kind:         "repository",
			Entity:       name,
			Action:       "skip",
			Result:       observability.ResultExcluded,
		})
	}
	for _, name := range plan.NotAvailable {
		logsCollector.AddEvent(observability.Event{
			Level:        logrus.WarnLevel,
			Organization: cache.Name(),
			Team:         team.Name,
			Kind:         "repository",
			Entity:       name,
			Action:       "skip",
			Result:       observability.ResultNotAvailable,
		})
	}

	result := observability.ResultApplied
	if dryrun {
		result = observability.ResultDryrun
	}
	for _, name := range plan.RepositoryNames() {
		permission := plan.Permissions[name]
		event := observability.Event{
			Level:        logrus.InfoLevel,
			Organization: cache.Name(),
			Team:         team.Name,
			Kind:         "repository",
			Entity:       name,
			Detail:       permission.String(),
			Result:       result,
		}

		var err error
		if permission == entity.PermissionNone {
			event.Action = "revoke"
			err = r.executor.UpdateRepositoryRemoveTeamAccess(ctx, logsCollector, dryrun, cache.Name(), name, team.Slug)
		} else {
			event.Action = "grant"
			err = r.executor.UpdateRepositoryAddTeamAccess(ctx, logsCollector, dryrun, cache.Name(), name, team.Slug, permission)
		}
		if err != nil {
			event.Level = logrus.ErrorLevel
			event.Result = observability.ResultFailed
			logsCollector.AddEvent(event)
			return err
		}
		logsCollector.AddEvent(event)
	}
	return nil
}
