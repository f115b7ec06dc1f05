package engine

import (
	"context"

	"github.com/goliac-project/teamperms/internal/entity"
	"github.com/goliac-project/teamperms/internal/observability"
	"github.com/sirupsen/logrus"
)

// MembershipStage is the membership list a login comes from
type MembershipStage string

// stages are evaluated in this order, the last one wins
const (
	StageMembers MembershipStage = "members"
	StageAdmins  MembershipStage = "admins"
	StageBanned  MembershipStage = "banned"
)

type MembershipChange struct {
	Login string
	Stage MembershipStage
}

/*
 * PlanMembership returns one change per (login, stage), members first,
 * then admins, then banned. Each stage is sorted by login.
 * There is no check against the current team membership: every change
 * is sent, the Github calls being idempotent.
 */
func PlanMembership(membership *entity.MembershipConfiguration) []MembershipChange {
	changes := []MembershipChange{}
	if membership == nil {
		return changes
	}
	for _, stage := range []struct {
		stage  MembershipStage
		logins []string
	}{
		{StageMembers, membership.Members},
		{StageAdmins, membership.Admins},
		{StageBanned, membership.Banned},
	} {
		for _, login := range stage.logins {
			changes = append(changes, MembershipChange{Login: login, Stage: stage.stage})
		}
	}
	return changes
}

// ResolveMembership returns the final stage of each login
// (banned beats admins which beats members)
func ResolveMembership(membership *entity.MembershipConfiguration) map[string]MembershipStage {
	outcome := make(map[string]MembershipStage)
	for _, change := range PlanMembership(membership) {
		outcome[change.Login] = change.Stage
	}
	return outcome
}

type MembershipReconciliator struct {
	executor ReconciliatorExecutor
	users    *UserResolver
}

func NewMembershipReconciliator(executor ReconciliatorExecutor, users *UserResolver) *MembershipReconciliator {
	return &MembershipReconciliator{
		executor: executor,
		users:    users,
	}
}

/*
 * Reconcile applies the membership of one team.
 * A login unknown to Github is skipped. Any other failure stops here.
 */
func (r *MembershipReconciliator) Reconcile(ctx context.Context, logsCollector *observability.LogCollection, dryrun bool, orgname string, team *GithubTeam, membership *entity.MembershipConfiguration) error {
	result := observability.ResultApplied
	if dryrun {
		result = observability.ResultDryrun
	}

	for _, change := range PlanMembership(membership) {
		event := observability.Event{
			Level:        logrus.InfoLevel,
			Organization: orgname,
			Team:         team.Name,
			Kind:         "membership",
			Entity:       change.Login,
			Result:       result,
		}

		user, found, err := r.users.Resolve(ctx, change.Login)
		if err != nil {
			return err
		}
		if !found {
			event.Level = logrus.WarnLevel
			event.Action = "skip"
			event.Detail = string(change.Stage)
			event.Result = observability.ResultNotFound
			logsCollector.AddEvent(event)
			continue
		}
		// Github's own case for the login
		login := user.Login
		event.Entity = login

		switch change.Stage {
		case StageMembers:
			event.Action = "add_member"
			event.Detail = string(entity.TeamRoleMember)
			err = r.executor.UpdateTeamAddMember(ctx, logsCollector, dryrun, orgname, team.Slug, login, entity.TeamRoleMember)
		case StageAdmins:
			event.Action = "add_maintainer"
			event.Detail = string(entity.TeamRoleMaintainer)
			err = r.executor.UpdateTeamAddMember(ctx, logsCollector, dryrun, orgname, team.Slug, login, entity.TeamRoleMaintainer)
		case StageBanned:
			event.Action = "remove_member"
			err = r.executor.UpdateTeamRemoveMember(ctx, logsCollector, dryrun, orgname, team.Slug, login)
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
