package engine

import (
	"context"
	"fmt"

	"github.com/goliac-project/teamperms/internal/entity"
)

/*
 * FakeRemoteGateway is an in-memory Github organization.
 * It keeps the live memberships and grants, and records every mutation.
 */
type FakeRemoteGateway struct {
	teams        map[string]map[string]*GithubTeam       // [org][teamname]
	repositories map[string]map[string]*GithubRepository // [org][reponame]
	users        map[string]*GithubUser

	memberships map[string]map[string]entity.TeamRole // [org/teamslug][login]
	grants      map[string]map[string]string          // [org/teamslug][reponame]github permission

	mutations             []string
	listTeamsCalls        map[string]int
	listRepositoriesCalls map[string]int
	lookupCalls           int

	lookupErrors          map[string]error
	listTeamsError        error
	listRepositoriesError error
	mutationError         error
	repositoryErrors      map[string]error // [reponame]
}

func NewFakeRemoteGateway() *FakeRemoteGateway {
	return &FakeRemoteGateway{
		teams:                 map[string]map[string]*GithubTeam{},
		repositories:          map[string]map[string]*GithubRepository{},
		users:                 map[string]*GithubUser{},
		memberships:           map[string]map[string]entity.TeamRole{},
		grants:                map[string]map[string]string{},
		mutations:             []string{},
		listTeamsCalls:        map[string]int{},
		listRepositoriesCalls: map[string]int{},
		lookupErrors:          map[string]error{},
		repositoryErrors:      map[string]error{},
	}
}

func (f *FakeRemoteGateway) AddTeam(orgname, teamname, slug string) *FakeRemoteGateway {
	if f.teams[orgname] == nil {
		f.teams[orgname] = map[string]*GithubTeam{}
	}
	f.teams[orgname][teamname] = &GithubTeam{Name: teamname, Slug: slug, Id: len(f.teams[orgname]) + 1}
	return f
}

func (f *FakeRemoteGateway) AddRepositories(orgname string, reponames ...string) *FakeRemoteGateway {
	if f.repositories[orgname] == nil {
		f.repositories[orgname] = map[string]*GithubRepository{}
	}
	for _, name := range reponames {
		f.repositories[orgname][name] = &GithubRepository{Name: name, Id: len(f.repositories[orgname]) + 1}
	}
	return f
}

func (f *FakeRemoteGateway) AddUsers(logins ...string) *FakeRemoteGateway {
	for _, login := range logins {
		f.users[login] = &GithubUser{Login: login, Id: len(f.users) + 1}
	}
	return f
}

func (f *FakeRemoteGateway) ListTeams(ctx context.Context, orgname string) (map[string]*GithubTeam, error) {
	f.listTeamsCalls[orgname]++
	if f.listTeamsError != nil {
		return nil, f.listTeamsError
	}
	teams := map[string]*GithubTeam{}
	for k, v := range f.teams[orgname] {
		teams[k] = v
	}
	return teams, nil
}

func (f *FakeRemoteGateway) ListRepositories(ctx context.Context, orgname string) (map[string]*GithubRepository, error) {
	f.listRepositoriesCalls[orgname]++
	if f.listRepositoriesError != nil {
		return nil, f.listRepositoriesError
	}
	repositories := map[string]*GithubRepository{}
	for k, v := range f.repositories[orgname] {
		repositories[k] = v
	}
	return repositories, nil
}

func (f *FakeRemoteGateway) LookupUser(ctx context.Context, login string) (*GithubUser, error) {
	f.lookupCalls++
	if err, ok := f.lookupErrors[login]; ok {
		return nil, err
	}
	return f.users[login], nil
}

func (f *FakeRemoteGateway) AddTeamMembership(ctx context.Context, orgname string, teamslug string, login string, role entity.TeamRole) error {
	if f.mutationError != nil {
		return f.mutationError
	}
	key := orgname + "/" + teamslug
	if f.memberships[key] == nil {
		f.memberships[key] = map[string]entity.TeamRole{}
	}
	f.memberships[key][login] = role
	f.mutations = append(f.mutations, fmt.Sprintf("add_member %s %s %s", key, login, role))
	return nil
}

func (f *FakeRemoteGateway) RemoveTeamMembership(ctx context.Context, orgname string, teamslug string, login string) error {
	if f.mutationError != nil {
		return f.mutationError
	}
	key := orgname + "/" + teamslug
	delete(f.memberships[key], login)
	f.mutations = append(f.mutations, fmt.Sprintf("remove_member %s %s", key, login))
	return nil
}

func (f *FakeRemoteGateway) AddTeamRepository(ctx context.Context, orgname string, teamslug string, reponame string, permission string) error {
	if f.mutationError != nil {
		return f.mutationError
	}
	if err, ok := f.repositoryErrors[reponame]; ok {
		return err
	}
	key := orgname + "/" + teamslug
	if f.grants[key] == nil {
		f.grants[key] = map[string]string{}
	}
	f.grants[key][reponame] = permission
	f.mutations = append(f.mutations, fmt.Sprintf("add_repository %s %s %s", key, reponame, permission))
	return nil
}

func (f *FakeRemoteGateway) RemoveTeamRepository(ctx context.Context, orgname string, teamslug string, reponame string) error {
	if f.mutationError != nil {
		return f.mutationError
	}
	if err, ok := f.repositoryErrors[reponame]; ok {
		return err
	}
	key := orgname + "/" + teamslug
	delete(f.grants[key], reponame)
	f.mutations = append(f.mutations, fmt.Sprintf("remove_repository %s %s", key, reponame))
	return nil
}
