package engine

import (
	"context"

	"github.com/goliac-project/teamperms/internal/config"
	"github.com/goliac-project/teamperms/internal/entity"
	"github.com/goliac-project/teamperms/internal/observability"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

/*
 * ReconciliationRunner walks the organizations, then the teams, in the
 * configuration order, one at a time. For each team the membership is
 * reconciled first, then the repository permissions.
 */
type ReconciliationRunner struct {
	gateway     RemoteGateway
	membership  *MembershipReconciliator
	permissions *PermissionReconciliator
	feedback    observability.RemoteLoadFeedback
}

func NewReconciliationRunner(gateway RemoteGateway, executor ReconciliatorExecutor) *ReconciliationRunner {
	return &ReconciliationRunner{
		gateway:     gateway,
		membership:  NewMembershipReconciliator(executor, NewUserResolver(gateway)),
		permissions: NewPermissionReconciliator(executor),
	}
}

// SetRemoteLoadFeedback is used to get feedback while loading teams and repositories
func (r *ReconciliationRunner) SetRemoteLoadFeedback(feedback observability.RemoteLoadFeedback) {
	r.feedback = feedback
}

// Run returns the first fatal error. Missing teams and users are only reported as events.
func (r *ReconciliationRunner) Run(ctx context.Context, logsCollector *observability.LogCollection, dryrun bool, configuration *entity.Configuration) error {
	for _, org := range configuration.Organizations {
		if err := r.reconcileOrganization(ctx, logsCollector, dryrun, org); err != nil {
			return err
		}
	}
	return nil
}

func (r *ReconciliationRunner) reconcileOrganization(ctx context.Context, logsCollector *observability.LogCollection, dryrun bool, org *entity.OrganizationConfiguration) error {
	var childSpan trace.Span
	if config.Config.OpenTelemetryEnabled {
		ctx, childSpan = otel.Tracer("teamperms").Start(ctx, "reconcileOrganization")
		defer childSpan.End()
		childSpan.SetAttributes(
			attribute.String("organization", org.Name),
			attribute.Bool("dryrun", dryrun),
		)
	}
	logsCollector.AddInfo(map[string]any{"organization": org.Name, "dryrun": dryrun}, "reconciling organization %s (%d teams)", org.Name, len(org.Teams))

	cache := NewOrganizationCache(r.gateway, org.Name, r.feedback)

	for _, teamConfig := range org.Teams {
		team, found, err := cache.Team(ctx, teamConfig.Name)
		if err != nil {
			return err
		}
		if !found {
			logsCollector.AddEvent(observability.Event{
				Level:        logrus.ErrorLevel,
				Organization: org.Name,
				Team:         teamConfig.Name,
				Kind:         "team",
				Entity:       teamConfig.Name,
				Action:       "skip",
				Result:       observability.ResultNotFound,
			})
			continue
		}
		logsCollector.AddDebug(map[string]any{"organization": org.Name, "team": teamConfig.Name}, "reconciling team %s", teamConfig.Name)

		if teamConfig.Membership != nil {
			if err := r.membership.Reconcile(ctx, logsCollector, dryrun, org.Name, team, teamConfig.Membership); err != nil {
				return err
			}
		} else {
			logsCollector.AddEvent(observability.Event{
				Level:        logrus.WarnLevel,
				Organization: org.Name,
				Team:         team.Name,
				Kind:         "membership",
				Entity:       team.Name,
				Action:       "skip",
				Result:       observability.ResultSkipped,
			})
		}

		if err := r.permissions.Reconcile(ctx, logsCollector, dryrun, cache, team, teamConfig); err != nil {
			return err
		}
	}
	return nil
}
