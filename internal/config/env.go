package config

// Config is the whole configuration of the app
var Config = struct {

	// LogrusLevel sets the logrus logging level
	LogrusLevel string `env:"TEAMPERMS_LOGRUS_LEVEL" envDefault:"info"`
	// LogrusFormat sets the logrus logging formatter
	// Possible values: text, json
	LogrusFormat string `env:"TEAMPERMS_LOGRUS_FORMAT" envDefault:"text"`

	// GithubServer is the Github API endpoint (change it for Github Enterprise)
	GithubServer   string `env:"TEAMPERMS_GITHUB_SERVER" envDefault:"https://api.github.com"`
	GithubToken    string `env:"TEAMPERMS_GITHUB_TOKEN" envDefault:""`
	GithubUser     string `env:"TEAMPERMS_GITHUB_USER" envDefault:""`
	GithubPassword string `env:"TEAMPERMS_GITHUB_PASSWORD" envDefault:""`

	// if no token nor password is given, a Github App is used
	GithubAppOrganization   string `env:"TEAMPERMS_GITHUB_APP_ORGANIZATION" envDefault:""`
	GithubAppID             int64  `env:"TEAMPERMS_GITHUB_APP_ID" envDefault:"0"`
	GithubAppPrivateKeyFile string `env:"TEAMPERMS_GITHUB_APP_PRIVATE_KEY_FILE" envDefault:"github-app-private-key.pem"`

	// ConfigFile is the declared state, YAML or TOML
	ConfigFile string `env:"TEAMPERMS_CONFIG_FILE" envDefault:"github.yaml"`
	// ConfigGitRepository, if set, is cloned and ConfigFile is read from it
	ConfigGitRepository string `env:"TEAMPERMS_CONFIG_GIT_REPOSITORY" envDefault:""`
	ConfigGitBranch     string `env:"TEAMPERMS_CONFIG_GIT_BRANCH" envDefault:"main"`

	OpenTelemetryEnabled      bool   `env:"TEAMPERMS_OPENTELEMETRY_ENABLED" envDefault:"false"`
	OpenTelemetryGrpcEndpoint string `env:"TEAMPERMS_OPENTELEMETRY_GRPC_ENDPOINT" envDefault:"localhost:4317"`
	// by default only mutations are traced
	OpenTelemetryTraceAll bool `env:"TEAMPERMS_OPENTELEMETRY_TRACE_ALL" envDefault:"false"`

	// AuditDynamoDBTable, if set, records every applied mutation
	AuditDynamoDBTable string `env:"TEAMPERMS_AUDIT_DYNAMODB_TABLE" envDefault:""`

	SlackToken   string `env:"TEAMPERMS_SLACK_TOKEN" envDefault:""`
	SlackChannel string `env:"TEAMPERMS_SLACK_CHANNEL" envDefault:""`
}{}

// BuildVersion is set at build time
// go build -ldflags "-X github.com/goliac-project/teamperms/internal/config.BuildVersion=v1.2.3"
var BuildVersion = "dev"
