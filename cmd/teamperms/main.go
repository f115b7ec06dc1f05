package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/goliac-project/teamperms/internal"
	"github.com/goliac-project/teamperms/internal/config"
	"github.com/goliac-project/teamperms/internal/github"
	"github.com/goliac-project/teamperms/internal/observability"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var repositoryParameter string
var branchParameter string
var noProgressbar bool
var tokenParameter string
var userParameter string
var passwordParameter string
var githubParameter string

type ProgressBar struct {
	bar *progressbar.ProgressBar
}

func CreateProgressBar() *ProgressBar {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("fetching github"),
		progressbar.OptionSetWidth(36),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(os.Stderr, "\n")
		}),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetRenderBlankState(true),
	)
	return &ProgressBar{bar: bar}
}

func (p *ProgressBar) LoadingAsset(entity string, nb int) {
	if p.bar == nil {
		return
	}
	p.bar.Add(nb)
}

func (p *ProgressBar) Finish() {
	if p.bar == nil {
		return
	}
	p.bar.Finish()
}

// credentials: the command line flags win over the environment
func credentials() github.Credentials {
	c := github.Credentials{
		Server:            config.Config.GithubServer,
		Token:             config.Config.GithubToken,
		User:              config.Config.GithubUser,
		Password:          config.Config.GithubPassword,
		AppID:             config.Config.GithubAppID,
		AppPrivateKeyFile: config.Config.GithubAppPrivateKeyFile,
		AppOrganization:   config.Config.GithubAppOrganization,
	}
	if githubParameter != "" {
		c.Server = githubParameter
	}
	if tokenParameter != "" {
		c.Token = tokenParameter
	}
	if userParameter != "" {
		c.User = userParameter
	}
	if passwordParameter != "" {
		c.Password = passwordParameter
	}
	return c
}

// configFile returns the file to load, absolute when read from the local filesystem
func configFile(args []string, repository string) string {
	filename := config.Config.ConfigFile
	if len(args) > 0 {
		filename = args[0]
	}
	if repository != "" {
		return filename
	}
	if abs, err := filepath.Abs(filename); err == nil {
		return abs
	}
	return filename
}

func flushLogsCollector(logsCollector *observability.LogCollection) {
	for _, info := range logsCollector.Logs {
		logrus.WithFields(info.Fields).Logf(info.LogLevel, info.Format, info.Args...)
	}
	for _, e := range logsCollector.Events {
		logrus.WithFields(e.Fields()).Log(e.Level, e.String())
	}
	if logsCollector.HasWarns() {
		logrus.Warnf("Warnings:")
		for _, err := range logsCollector.Warns {
			logrus.Warnf("- %s", err)
		}
	}
	if logsCollector.HasErrors() {
		logrus.Errorf("Errors:")
		for _, err := range logsCollector.Errors {
			logrus.Errorf("- %s", err)
		}
	}
}

func run(cmd *cobra.Command, args []string, dryrun bool) {
	repo := repositoryParameter
	branch := branchParameter
	if repo == "" {
		repo = config.Config.ConfigGitRepository
	}
	if branch == "" {
		branch = config.Config.ConfigGitBranch
	}

	teamperms := internal.NewTeampermsImpl(credentials())

	var bar *ProgressBar
	if !noProgressbar {
		bar = CreateProgressBar()
		teamperms.SetRemoteObservability(bar)
	}

	stats := config.Statistics{}
	ctx := context.WithValue(context.Background(), config.ContextKeyStatistics, &stats)
	var span trace.Span
	if config.Config.OpenTelemetryEnabled {
		tracer := otel.Tracer("teamperms")
		ctx, span = tracer.Start(ctx, cmd.Name())
	}

	startTime := time.Now()
	logsCollector := observability.NewLogCollection()
	err := teamperms.Apply(ctx, logsCollector, osfs.New("/"), dryrun, repo, branch, configFile(args, repo))
	if bar != nil {
		bar.Finish()
	}
	if span != nil {
		span.End()
		config.ShutdownTraceProvider()
	}

	flushLogsCollector(logsCollector)
	for _, line := range logsCollector.Summary() {
		logrus.Info(line)
	}
	logrus.WithFields(map[string]any{
		"duration":        time.Since(startTime).String(),
		"githubApiCalls":  stats.GithubApiCalls,
		"githubThrottled": stats.GithubThrottled,
	}).Debugf("%s statistics", cmd.Name())

	if err != nil {
		var aerr *github.AuthenticationError
		if errors.As(err, &aerr) {
			logrus.Errorf("authentication failed: %s", err)
		} else {
			logrus.Errorf("failed to %s: %s", cmd.Name(), err)
		}
		os.Exit(1)
	}
}

// addRunFlags registers the flags shared by plan and apply
func addRunFlags(c *cobra.Command) {
	c.Flags().StringVarP(&repositoryParameter, "repository", "r", "", "repository (default env variable TEAMPERMS_CONFIG_GIT_REPOSITORY)")
	c.Flags().StringVarP(&branchParameter, "branch", "b", "", "branch (default env variable TEAMPERMS_CONFIG_GIT_BRANCH)")
	c.Flags().BoolVarP(&noProgressbar, "noprogressbar", "n", false, "don't display a progress bar")
	c.Flags().StringVarP(&tokenParameter, "token", "t", "", "Github personal access token (default env variable TEAMPERMS_GITHUB_TOKEN)")
	c.Flags().StringVarP(&userParameter, "user", "u", "", "Github user (default env variable TEAMPERMS_GITHUB_USER)")
	c.Flags().StringVarP(&passwordParameter, "password", "p", "", "Github password, requires --user (default env variable TEAMPERMS_GITHUB_PASSWORD)")
	c.Flags().StringVar(&githubParameter, "github", "", "Github API endpoint (default env variable TEAMPERMS_GITHUB_SERVER)")
}

func main() {
	verifyCmd := &cobra.Command{
		Use:   "verify [config-file]",
		Short: "Verify the validity of the configuration file",
		Long: `Verify the validity of the configuration file (YAML, or TOML for a .toml file).
No Github call is made.
config-file defaults to the TEAMPERMS_CONFIG_FILE env variable (github.yaml)`,
		Args: cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			logsCollector := observability.NewLogCollection()
			configuration := internal.NewTeampermsLightImpl().Validate(osfs.New("/"), configFile(args, ""), logsCollector)
			flushLogsCollector(logsCollector)
			if configuration == nil {
				os.Exit(1)
			}
		},
	}

	planCmd := &cobra.Command{
		Use:   "plan [config-file] [--repository https_config_repository_url] [--branch branch]",
		Short: "Show the changes that apply would send to Github",
		Long: `Load the configuration file and compute the changes against the Github organizations,
without sending any of them.
repository: a remote repository in the form https://github.com/... holding the configuration file
repository can be passed by parameter or by defining TEAMPERMS_CONFIG_GIT_REPOSITORY env variable
branch can be passed by parameter or by defining TEAMPERMS_CONFIG_GIT_BRANCH env variable`,
		Args: cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if config.Config.LogrusLevel == "debug" || config.Config.LogrusLevel == "info" {
				fmt.Println("Please wait, it can take several minutes to load everything. ☕")
			}
			run(cmd, args, true)
		},
	}

	applyCmd := &cobra.Command{
		Use:   "apply [config-file] [--repository https_config_repository_url] [--branch branch]",
		Short: "Apply the team memberships and repository permissions to Github",
		Long: `Apply the team memberships and repository permissions of the configuration file
to the Github organizations.
repository: a remote repository in the form https://github.com/... holding the configuration file
repository can be passed by parameter or by defining TEAMPERMS_CONFIG_GIT_REPOSITORY env variable
branch can be passed by parameter or by defining TEAMPERMS_CONFIG_GIT_BRANCH env variable`,
		Args: cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			run(cmd, args, false)
		},
	}

	for _, c := range []*cobra.Command{planCmd, applyCmd} {
		addRunFlags(c)
	}

	versioncmd := &cobra.Command{
		Use:   "version",
		Short: "Return the version of the teamperms CLI",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(config.BuildVersion)
		},
	}

	rootCmd := &cobra.Command{
		Use:   "teamperms",
		Short: "A CLI to manage Github team memberships and repository permissions",
		Long: `teamperms reads a declarative configuration file (organizations, teams,
members, repository permissions) and reconciles it with Github.`,
	}

	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(versioncmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
