package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/goliac-project/teamperms/internal/config"
	"github.com/goliac-project/teamperms/internal/entity"
	"github.com/goliac-project/teamperms/internal/github"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// at most FORLOOP_STOP pages of PER_PAGE items (Github's maximum page size)
const FORLOOP_STOP = 1000
const PER_PAGE = 100

type GithubRepository struct {
	Name string
	Id   int
}

type GithubUser struct {
	Login string // login, ie github id
	Id    int
	Name  string
}

type GithubTeam struct {
	Name string
	Id   int
	Slug string // mutations address a team by its slug
}

/*
 * RemoteGateway
 * This interface is the only way to read and mutate a Github organization.
 * Pagination and rate limiting are handled behind it.
 */
type RemoteGateway interface {
	ListTeams(ctx context.Context, orgname string) (map[string]*GithubTeam, error)              // the key is the team name
	ListRepositories(ctx context.Context, orgname string) (map[string]*GithubRepository, error) // the key is the repository name
	// LookupUser returns nil (and no error) if the user doesn't exist
	LookupUser(ctx context.Context, login string) (*GithubUser, error)

	AddTeamMembership(ctx context.Context, orgname string, teamslug string, login string, role entity.TeamRole) error
	RemoveTeamMembership(ctx context.Context, orgname string, teamslug string, login string) error
	// permission can be "pull", "push", or "admin" which correspond to read, write, and admin access.
	AddTeamRepository(ctx context.Context, orgname string, teamslug string, reponame string, permission string) error
	RemoveTeamRepository(ctx context.Context, orgname string, teamslug string, reponame string) error
}

type RemoteGatewayImpl struct {
	client github.GitHubClient
}

func NewRemoteGatewayImpl(client github.GitHubClient) *RemoteGatewayImpl {
	return &RemoteGatewayImpl{
		client: client,
	}
}

type TeamResponse struct {
	Id   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type RepositoryResponse struct {
	Id   int    `json:"id"`
	Name string `json:"name"`
}

type UserResponse struct {
	Id    int    `json:"id"`
	Login string `json:"login"`
	Name  string `json:"name"`
}

// listAll walks the pages of a REST listing endpoint, until a short page.
// It fails rather than returning a partial listing.
func listAll[T any](ctx context.Context, client github.GitHubClient, endpoint string, each func(T)) error {
	for page := 1; page <= FORLOOP_STOP; page++ {
		data, err := client.CallRestAPI(
			ctx,
			endpoint,
			fmt.Sprintf("page=%d&per_page=%d", page, PER_PAGE),
			"GET",
			nil,
		)
		if err != nil {
			return err
		}

		var items []T
		err = json.Unmarshal(data, &items)
		if err != nil {
			return fmt.Errorf("not able to unmarshall %s: %v", endpoint, err)
		}

		for _, item := range items {
			each(item)
		}

		if len(items) < PER_PAGE {
			return nil
		}
	}
	return fmt.Errorf("too many pages for %s: more than %d items", endpoint, FORLOOP_STOP*PER_PAGE)
}

func (g *RemoteGatewayImpl) ListTeams(ctx context.Context, orgname string) (map[string]*GithubTeam, error) {
	var childSpan trace.Span
	if config.Config.OpenTelemetryEnabled {
		ctx, childSpan = otel.Tracer("teamperms").Start(ctx, "ListTeams")
		defer childSpan.End()
		childSpan.SetAttributes(attribute.String("organization", orgname))
	}
	logrus.Debugf("loading teams of %s", orgname)

	// https://docs.github.com/en/rest/teams/teams?apiVersion=2022-11-28#list-teams
	teams := make(map[string]*GithubTeam)
	err := listAll(ctx, g.client, fmt.Sprintf("/orgs/%s/teams", url.PathEscape(orgname)), func(t TeamResponse) {
		teams[t.Name] = &GithubTeam{
			Name: t.Name,
			Id:   t.Id,
			Slug: t.Slug,
		}
	})
	if err != nil {
		return nil, err
	}
	return teams, nil
}

func (g *RemoteGatewayImpl) ListRepositories(ctx context.Context, orgname string) (map[string]*GithubRepository, error) {
	var childSpan trace.Span
	if config.Config.OpenTelemetryEnabled {
		ctx, childSpan = otel.Tracer("teamperms").Start(ctx, "ListRepositories")
		defer childSpan.End()
		childSpan.SetAttributes(attribute.String("organization", orgname))
	}
	logrus.Debugf("loading repositories of %s", orgname)

	// https://docs.github.com/en/rest/repos/repos?apiVersion=2022-11-28#list-organization-repositories
	repositories := make(map[string]*GithubRepository)
	err := listAll(ctx, g.client, fmt.Sprintf("/orgs/%s/repos", url.PathEscape(orgname)), func(r RepositoryResponse) {
		repositories[r.Name] = &GithubRepository{
			Name: r.Name,
			Id:   r.Id,
		}
	})
	if err != nil {
		return nil, err
	}
	return repositories, nil
}

func (g *RemoteGatewayImpl) LookupUser(ctx context.Context, login string) (*GithubUser, error) {
	// https://docs.github.com/en/rest/users/users?apiVersion=2022-11-28#get-a-user
	data, err := g.client.CallRestAPI(ctx, "/users/"+url.PathEscape(login), "", "GET", nil)
	if err != nil {
		if github.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	var user UserResponse
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("not able to unmarshall user %s: %v", login, err)
	}
	return &GithubUser{
		Login: user.Login,
		Id:    user.Id,
		Name:  user.Name,
	}, nil
}

// role = member or maintainer
func (g *RemoteGatewayImpl) AddTeamMembership(ctx context.Context, orgname string, teamslug string, login string, role entity.TeamRole) error {
	if login == "" {
		return fmt.Errorf("invalid username")
	}
	// https://docs.github.com/en/rest/teams/members?apiVersion=2022-11-28#add-or-update-team-membership-for-a-user
	body, err := g.client.CallRestAPI(
		ctx,
		fmt.Sprintf("/orgs/%s/teams/%s/memberships/%s", url.PathEscape(orgname), url.PathEscape(teamslug), url.PathEscape(login)),
		"",
		"PUT",
		map[string]interface{}{"role": string(role)},
	)
	if err != nil {
		return fmt.Errorf("failed to add team member %s to team %s: %w. %s", login, teamslug, err, string(body))
	}
	return nil
}

func (g *RemoteGatewayImpl) RemoveTeamMembership(ctx context.Context, orgname string, teamslug string, login string) error {
	// https://docs.github.com/en/rest/teams/members?apiVersion=2022-11-28#remove-team-membership-for-a-user
	body, err := g.client.CallRestAPI(
		ctx,
		fmt.Sprintf("/orgs/%s/teams/%s/memberships/%s", url.PathEscape(orgname), url.PathEscape(teamslug), url.PathEscape(login)),
		"",
		"DELETE",
		nil,
	)
	if err != nil {
		// removing a user that is not part of the team is not an error
		if github.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to remove team member %s from team %s: %w. %s", login, teamslug, err, string(body))
	}
	return nil
}

func (g *RemoteGatewayImpl) AddTeamRepository(ctx context.Context, orgname string, teamslug string, reponame string, permission string) error {
	// https://docs.github.com/en/rest/teams/teams?apiVersion=2022-11-28#add-or-update-team-repository-permissions
	body, err := g.client.CallRestAPI(
		ctx,
		fmt.Sprintf("/orgs/%s/teams/%s/repos/%s/%s", url.PathEscape(orgname), url.PathEscape(teamslug), url.PathEscape(orgname), url.PathEscape(reponame)),
		"",
		"PUT",
		map[string]interface{}{"permission": permission},
	)
	if err != nil {
		return fmt.Errorf("failed to add team access %s to repository %s: %w. %s", teamslug, reponame, err, string(body))
	}
	return nil
}

func (g *RemoteGatewayImpl) RemoveTeamRepository(ctx context.Context, orgname string, teamslug string, reponame string) error {
	// https://docs.github.com/en/rest/teams/teams?apiVersion=2022-11-28#remove-a-repository-from-a-team
	body, err := g.client.CallRestAPI(
		ctx,
		fmt.Sprintf("/orgs/%s/teams/%s/repos/%s/%s", url.PathEscape(orgname), url.PathEscape(teamslug), url.PathEscape(orgname), url.PathEscape(reponame)),
		"",
		"DELETE",
		nil,
	)
	if err != nil {
		// the team had no access to the repository
		if github.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to remove team access %s from repository %s: %w. %s", teamslug, reponame, err, string(body))
	}
	return nil
}
