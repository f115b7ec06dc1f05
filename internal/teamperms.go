package internal

import (
	"context"
	"fmt"

	"github.com/go-git/go-billy/v5"
	"github.com/goliac-project/teamperms/internal/audit"
	"github.com/goliac-project/teamperms/internal/config"
	"github.com/goliac-project/teamperms/internal/engine"
	"github.com/goliac-project/teamperms/internal/entity"
	"github.com/goliac-project/teamperms/internal/github"
	"github.com/goliac-project/teamperms/internal/notification"
	"github.com/goliac-project/teamperms/internal/observability"
	"github.com/sirupsen/logrus"
)

/*
 * Teamperms is the main interface of the application.
 * It is used to load and validate a configuration file and apply it to github.
 */
type Teamperms interface {
	// will run and apply the reconciliation (or only log it in dryrun)
	Apply(ctx context.Context, logsCollector *observability.LogCollection, fs billy.Filesystem, dryrun bool, repositoryUrl, branch, filename string) error

	// used to get feedback while teams and repositories are loaded
	SetRemoteObservability(feedback observability.RemoteLoadFeedback)
}

type TeampermsImpl struct {
	credentials         github.Credentials
	newClient           func(github.Credentials) (github.GitHubClient, error)
	githubClient        github.GitHubClient
	gateway             engine.RemoteGateway
	auditSink           audit.AuditSink
	notificationService notification.NotificationService
	feedback            observability.RemoteLoadFeedback
}

/*
 * NewTeampermsImpl keeps the Github credentials: the client is only built
 * once the configuration is known to be valid.
 * The audit trail and the Slack summary are enabled by the environment.
 */
func NewTeampermsImpl(credentials github.Credentials) *TeampermsImpl {
	auditSink := audit.NewNullAuditSink()
	if config.Config.AuditDynamoDBTable != "" {
		auditSink = audit.NewDynamoDBAuditSink(config.Config.AuditDynamoDBTable)
	}

	notificationService := notification.NewNullNotificationService()
	if config.Config.SlackToken != "" && config.Config.SlackChannel != "" {
		notificationService = notification.NewSlackNotificationService(config.Config.SlackToken, config.Config.SlackChannel)
	}

	return &TeampermsImpl{
		credentials: credentials,
		newClient: func(c github.Credentials) (github.GitHubClient, error) {
			return github.NewGitHubClientImpl(c)
		},
		auditSink:           auditSink,
		notificationService: notificationService,
	}
}

func NewTeampermsImplWithClient(githubClient github.GitHubClient, auditSink audit.AuditSink, notificationService notification.NotificationService) *TeampermsImpl {
	return &TeampermsImpl{
		githubClient:        githubClient,
		gateway:             engine.NewRemoteGatewayImpl(githubClient),
		auditSink:           auditSink,
		notificationService: notificationService,
	}
}

// connect builds the Github client on first use
func (t *TeampermsImpl) connect() error {
	if t.githubClient != nil {
		return nil
	}
	githubClient, err := t.newClient(t.credentials)
	if err != nil {
		return err
	}
	t.githubClient = githubClient
	t.gateway = engine.NewRemoteGatewayImpl(githubClient)
	return nil
}

func (t *TeampermsImpl) SetRemoteObservability(feedback observability.RemoteLoadFeedback) {
	t.feedback = feedback
}

/*
 * Apply loads and validates the configuration (from fs, or from a clone
 * of repositoryUrl if set), checks the credentials, and reconciles every
 * organization.
 * A local configuration is validated before any call to Github.
 */
func (t *TeampermsImpl) Apply(ctx context.Context, logsCollector *observability.LogCollection, fs billy.Filesystem, dryrun bool, repositoryUrl, branch, filename string) error {
	configuration, err := t.loadConfiguration(ctx, fs, repositoryUrl, branch, filename)
	if err != nil {
		return err
	}
	if err := t.connect(); err != nil {
		return err
	}

	caller, err := t.githubClient.AuthenticatedLogin(ctx)
	if err != nil {
		return err
	}
	logsCollector.AddInfo(map[string]any{"caller": caller, "dryrun": dryrun}, "authenticated as %s", caller)

	runner := engine.NewReconciliationRunner(t.gateway, engine.NewGatewayExecutor(t.gateway, t.auditSink, caller))
	if t.feedback != nil {
		runner.SetRemoteLoadFeedback(t.feedback)
	}
	err = runner.Run(ctx, logsCollector, dryrun, configuration)

	if !dryrun {
		t.notify(ctx, logsCollector, caller, configuration, err)
	}
	return err
}

func (t *TeampermsImpl) loadConfiguration(ctx context.Context, fs billy.Filesystem, repositoryUrl, branch, filename string) (*entity.Configuration, error) {
	if repositoryUrl == "" {
		return engine.LoadConfiguration(fs, filename)
	}

	// cloning needs the Github credentials
	if err := t.connect(); err != nil {
		return nil, err
	}
	username, password, err := t.githubClient.GitCredentials(ctx)
	if err != nil {
		return nil, err
	}
	clonefs, err := engine.CloneConfigurationRepository(ctx, repositoryUrl, branch, username, password)
	if err != nil {
		return nil, err
	}
	return engine.LoadConfiguration(clonefs, filename)
}

// notify sends the summary of an apply run. A failure is only a warning.
func (t *TeampermsImpl) notify(ctx context.Context, logsCollector *observability.LogCollection, caller string, configuration *entity.Configuration, runErr error) {
	organizations := make([]string, 0, len(configuration.Organizations))
	for _, org := range configuration.Organizations {
		organizations = append(organizations, org.Name)
	}
	nbErrors := len(logsCollector.EventsByLevel(logrus.ErrorLevel))
	if runErr != nil {
		nbErrors++
	}
	message := notification.FormatSummary(caller, organizations, logsCollector.Summary(), len(logsCollector.EventsByLevel(logrus.WarnLevel))+len(logsCollector.Warns), nbErrors)
	if err := t.notificationService.SendNotification(ctx, message); err != nil {
		logsCollector.AddWarn(fmt.Errorf("unable to send the run summary: %v", err))
	}
}
