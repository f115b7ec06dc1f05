package engine

import (
	"context"
	"testing"

	"github.com/goliac-project/teamperms/internal/entity"
	"github.com/goliac-project/teamperms/internal/observability"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func permissionPtr(p entity.Permission) *entity.Permission {
	return &p
}

func TestComputeRepositoryPermissions(t *testing.T) {
	available := []string{"api", "infra", "web"}

	t.Run("happy path: default permission with an exclusion", func(t *testing.T) {
		plan := ComputeRepositoryPermissions(available, &entity.TeamConfiguration{
			Permission: permissionPtr(entity.PermissionRead),
			Exclusions: []string{"infra"},
		})
		assert.Equal(t, map[string]entity.Permission{
			"api": entity.PermissionRead,
			"web": entity.PermissionRead,
		}, plan.Permissions)
		assert.Equal(t, []string{"infra"}, plan.Excluded)
		assert.Equal(t, []string{"api", "web"}, plan.RepositoryNames())
	})

	t.Run("happy path: explicit repositories and an override", func(t *testing.T) {
		plan := ComputeRepositoryPermissions(available, &entity.TeamConfiguration{
			Repositories: []string{"api", "ghost"},
			Overrides:    map[string]entity.Permission{"api": entity.PermissionAdmin},
		})
		assert.Equal(t, map[string]entity.Permission{"api": entity.PermissionAdmin}, plan.Permissions)
		assert.Equal(t, []string{"ghost"}, plan.NotAvailable)
	})

	t.Run("happy path: without explicit repositories every available repository is a candidate", func(t *testing.T) {
		plan := ComputeRepositoryPermissions(available, &entity.TeamConfiguration{
			Repositories: []string{},
		})
		assert.Equal(t, map[string]entity.Permission{
			"api":   entity.PermissionNone,
			"infra": entity.PermissionNone,
			"web":   entity.PermissionNone,
		}, plan.Permissions)
	})

	t.Run("happy path: explicit repositories restrict the candidates", func(t *testing.T) {
		plan := ComputeRepositoryPermissions(available, &entity.TeamConfiguration{
			Permission:   permissionPtr(entity.PermissionWrite),
			Repositories: []string{"web"},
		})
		assert.Equal(t, map[string]entity.Permission{"web": entity.PermissionWrite}, plan.Permissions)
	})

	t.Run("happy path: overrides win over the default", func(t *testing.T) {
		plan := ComputeRepositoryPermissions(available, &entity.TeamConfiguration{
			Permission: permissionPtr(entity.PermissionWrite),
			Overrides: map[string]entity.Permission{
				"infra": entity.PermissionNone,
				"api":   entity.PermissionRead,
			},
		})
		assert.Equal(t, entity.PermissionRead, plan.Permissions["api"])
		assert.Equal(t, entity.PermissionNone, plan.Permissions["infra"])
		assert.Equal(t, entity.PermissionWrite, plan.Permissions["web"])
	})

	t.Run("happy path: the plan never holds an excluded or unavailable repository", func(t *testing.T) {
		plan := ComputeRepositoryPermissions(available, &entity.TeamConfiguration{
			Permission:   permissionPtr(entity.PermissionAdmin),
			Repositories: []string{"api", "infra", "ghost", "phantom"},
			Exclusions:   []string{"infra", "ghost"},
			Overrides:    map[string]entity.Permission{"infra": entity.PermissionRead, "phantom": entity.PermissionRead},
		})
		assert.Equal(t, map[string]entity.Permission{"api": entity.PermissionAdmin}, plan.Permissions)
		assert.Equal(t, []string{"ghost", "infra"}, plan.Excluded)
		assert.Equal(t, []string{"phantom"}, plan.NotAvailable)
	})
}

func TestPermissionReconciliator(t *testing.T) {
	team := &GithubTeam{Name: "backend", Slug: "backend"}

	t.Run("happy path: grants and revokes in repository order", func(t *testing.T) {
		gateway := NewFakeRemoteGateway().AddRepositories("acme", "web", "api", "infra", "docs")
		executor := NewGatewayExecutor(gateway, nil, "octocat")
		reconciliator := NewPermissionReconciliator(executor)
		cache := NewOrganizationCache(gateway, "acme", nil)
		logsCollector := observability.NewLogCollection()

		err := reconciliator.Reconcile(context.TODO(), logsCollector, false, cache, team, &entity.TeamConfiguration{
			Name:       "backend",
			Permission: permissionPtr(entity.PermissionRead),
			Exclusions: []string{"docs"},
			Overrides: map[string]entity.Permission{
				"api":   entity.PermissionWrite,
				"infra": entity.PermissionNone,
			},
		})
		assert.Nil(t, err)
		assert.Equal(t, []string{
			"add_repository acme/backend api push",
			"remove_repository acme/backend infra",
			"add_repository acme/backend web pull",
		}, gateway.mutations)

		assert.Equal(t, 1, len(logsCollector.EventsByLevel(logrus.DebugLevel)))
		infos := logsCollector.EventsByLevel(logrus.InfoLevel)
		assert.Equal(t, 3, len(infos))
		assert.Equal(t, "revoke", infos[1].Action)
		assert.Equal(t, "NONE", infos[1].Detail)
	})

	t.Run("happy path: unavailable repositories are reported", func(t *testing.T) {
		gateway := NewFakeRemoteGateway().AddRepositories("acme", "api", "web", "infra")
		executor := NewGatewayExecutor(gateway, nil, "octocat")
		reconciliator := NewPermissionReconciliator(executor)
		cache := NewOrganizationCache(gateway, "acme", nil)
		logsCollector := observability.NewLogCollection()

		err := reconciliator.Reconcile(context.TODO(), logsCollector, false, cache, team, &entity.TeamConfiguration{
			Name:         "backend",
			Repositories: []string{"api", "ghost"},
			Overrides:    map[string]entity.Permission{"api": entity.PermissionAdmin},
		})
		assert.Nil(t, err)
		assert.Equal(t, []string{"add_repository acme/backend api admin"}, gateway.mutations)

		warnings := logsCollector.EventsByLevel(logrus.WarnLevel)
		assert.Equal(t, 1, len(warnings))
		assert.Equal(t, "ghost", warnings[0].Entity)
		assert.Equal(t, observability.ResultNotAvailable, warnings[0].Result)
	})
}
