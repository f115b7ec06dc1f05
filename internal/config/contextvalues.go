package config

type contextKey string

const (
	// ContextKeyStatistics is the key used to store the run Statistics in the context.
	ContextKeyStatistics contextKey = "githubStatistics"
)

type Statistics struct {
	GithubApiCalls  int
	GithubThrottled int
}
