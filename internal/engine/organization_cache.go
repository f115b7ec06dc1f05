package engine

import (
	"context"

	"github.com/goliac-project/teamperms/internal/observability"
	"github.com/goliac-project/teamperms/internal/utils"
)

/*
 * OrganizationCache is a lazy view over the teams and the repositories of
 * one organization. Each kind is listed at most once per instance.
 * It is not safe for concurrent use.
 */
type OrganizationCache struct {
	name         string
	teams        *RemoteLazyLoader[*GithubTeam]
	repositories *RemoteLazyLoader[*GithubRepository]
}

func NewOrganizationCache(gateway RemoteGateway, orgname string, feedback observability.RemoteLoadFeedback) *OrganizationCache {
	return &OrganizationCache{
		name: orgname,
		teams: NewRemoteLazyLoader(func(ctx context.Context) (map[string]*GithubTeam, error) {
			teams, err := gateway.ListTeams(ctx, orgname)
			if err != nil {
				return nil, newRemoteIOError("list teams", orgname, err)
			}
			if feedback != nil {
				feedback.LoadingAsset("teams", len(teams))
			}
			return teams, nil
		}),
		repositories: NewRemoteLazyLoader(func(ctx context.Context) (map[string]*GithubRepository, error) {
			repositories, err := gateway.ListRepositories(ctx, orgname)
			if err != nil {
				return nil, newRemoteIOError("list repositories", orgname, err)
			}
			if feedback != nil {
				feedback.LoadingAsset("repositories", len(repositories))
			}
			return repositories, nil
		}),
	}
}

func (o *OrganizationCache) Name() string {
	return o.name
}

// Teams returns every team of the organization, the key is the team name
func (o *OrganizationCache) Teams(ctx context.Context) (map[string]*GithubTeam, error) {
	return o.teams.GetEntity(ctx)
}

func (o *OrganizationCache) Team(ctx context.Context, name string) (*GithubTeam, bool, error) {
	teams, err := o.teams.GetEntity(ctx)
	if err != nil {
		return nil, false, err
	}
	team, ok := teams[name]
	return team, ok, nil
}

// Repositories returns every repository of the organization, the key is the repository name
func (o *OrganizationCache) Repositories(ctx context.Context) (map[string]*GithubRepository, error) {
	return o.repositories.GetEntity(ctx)
}

func (o *OrganizationCache) Repository(ctx context.Context, name string) (*GithubRepository, bool, error) {
	repositories, err := o.repositories.GetEntity(ctx)
	if err != nil {
		return nil, false, err
	}
	repository, ok := repositories[name]
	return repository, ok, nil
}

// RepositoryNames returns the repository names, sorted
func (o *OrganizationCache) RepositoryNames(ctx context.Context) ([]string, error) {
	repositories, err := o.repositories.GetEntity(ctx)
	if err != nil {
		return nil, err
	}
	return utils.SortedKeys(repositories), nil
}
