package engine

import (
	"context"
	"fmt"

	"github.com/goliac-project/teamperms/internal/audit"
	"github.com/goliac-project/teamperms/internal/entity"
	"github.com/goliac-project/teamperms/internal/observability"
	"github.com/sirupsen/logrus"
)

/*
 * ReconciliatorExecutor is the apply step of the reconciliation: the
 * reconciliators compute what to do, the executor does it (or not, in
 * dryrun). Any returned error is fatal.
 */
type ReconciliatorExecutor interface {
	UpdateTeamAddMember(ctx context.Context, logsCollector *observability.LogCollection, dryrun bool, orgname string, teamslug string, username string, role entity.TeamRole) error // role can be 'member' or 'maintainer'
	UpdateTeamRemoveMember(ctx context.Context, logsCollector *observability.LogCollection, dryrun bool, orgname string, teamslug string, username string) error
	UpdateRepositoryAddTeamAccess(ctx context.Context, logsCollector *observability.LogCollection, dryrun bool, orgname string, reponame string, teamslug string, permission entity.Permission) error // permission can be READ, WRITE or ADMIN
	UpdateRepositoryRemoveTeamAccess(ctx context.Context, logsCollector *observability.LogCollection, dryrun bool, orgname string, reponame string, teamslug string) error
}

// GatewayExecutor sends the mutations to the RemoteGateway
type GatewayExecutor struct {
	gateway RemoteGateway
	audit   audit.AuditSink
	caller  string
}

func NewGatewayExecutor(gateway RemoteGateway, auditSink audit.AuditSink, caller string) *GatewayExecutor {
	if auditSink == nil {
		auditSink = audit.NewNullAuditSink()
	}
	return &GatewayExecutor{
		gateway: gateway,
		audit:   auditSink,
		caller:  caller,
	}
}

func (e *GatewayExecutor) record(ctx context.Context, logsCollector *observability.LogCollection, orgname, teamslug, action, entityName, detail string) {
	if err := e.audit.Record(ctx, audit.NewRecord(e.caller, orgname, teamslug, action, entityName, detail)); err != nil {
		logsCollector.AddWarn(fmt.Errorf("audit: %v", err))
	}
}

func (e *GatewayExecutor) UpdateTeamAddMember(ctx context.Context, logsCollector *observability.LogCollection, dryrun bool, orgname string, teamslug string, username string, role entity.TeamRole) error {
	logrus.WithFields(map[string]interface{}{"dryrun": dryrun, "command": "update_team_add_member"}).Debugf("organization: %s, teamslug: %s, member: %s, role: %s", orgname, teamslug, username, role)
	if dryrun {
		return nil
	}
	if err := e.gateway.AddTeamMembership(ctx, orgname, teamslug, username, role); err != nil {
		return newRemoteIOError("add team membership", orgname+"/"+teamslug+"/"+username, err)
	}
	e.record(ctx, logsCollector, orgname, teamslug, "update_team_add_member", username, string(role))
	return nil
}

func (e *GatewayExecutor) UpdateTeamRemoveMember(ctx context.Context, logsCollector *observability.LogCollection, dryrun bool, orgname string, teamslug string, username string) error {
	logrus.WithFields(map[string]interface{}{"dryrun": dryrun, "command": "update_team_remove_member"}).Debugf("organization: %s, teamslug: %s, member: %s", orgname, teamslug, username)
	if dryrun {
		return nil
	}
	if err := e.gateway.RemoveTeamMembership(ctx, orgname, teamslug, username); err != nil {
		return newRemoteIOError("remove team membership", orgname+"/"+teamslug+"/"+username, err)
	}
	e.record(ctx, logsCollector, orgname, teamslug, "update_team_remove_member", username, "")
	return nil
}

func (e *GatewayExecutor) UpdateRepositoryAddTeamAccess(ctx context.Context, logsCollector *observability.LogCollection, dryrun bool, orgname string, reponame string, teamslug string, permission entity.Permission) error {
	githubPermission, err := permission.GithubPermission()
	if err != nil {
		return err
	}
	logrus.WithFields(map[string]interface{}{"dryrun": dryrun, "command": "update_repository_add_team"}).Debugf("organization: %s, repositoryname: %s, teamslug: %s, permission: %s", orgname, reponame, teamslug, githubPermission)
	if dryrun {
		return nil
	}
	if err := e.gateway.AddTeamRepository(ctx, orgname, teamslug, reponame, githubPermission); err != nil {
		return newRemoteIOError("add team repository", orgname+"/"+teamslug+"/"+reponame, err)
	}
	e.record(ctx, logsCollector, orgname, teamslug, "update_repository_add_team", reponame, githubPermission)
	return nil
}

func (e *GatewayExecutor) UpdateRepositoryRemoveTeamAccess(ctx context.Context, logsCollector *observability.LogCollection, dryrun bool, orgname string, reponame string, teamslug string) error {
	logrus.WithFields(map[string]interface{}{"dryrun": dryrun, "command": "update_repository_remove_team"}).Debugf("organization: %s, repositoryname: %s, teamslug: %s", orgname, reponame, teamslug)
	if dryrun {
		return nil
	}
	if err := e.gateway.RemoveTeamRepository(ctx, orgname, teamslug, reponame); err != nil {
		return newRemoteIOError("remove team repository", orgname+"/"+teamslug+"/"+reponame, err)
	}
	e.record(ctx, logsCollector, orgname, teamslug, "update_repository_remove_team", reponame, "")
	return nil
}
