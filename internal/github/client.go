package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliac-project/teamperms/internal/config"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"
)

type GitHubClient interface {
	CallRestAPI(ctx context.Context, endpoint, parameters, method string, body map[string]interface{}) ([]byte, error)
	// AuthenticatedLogin checks the credentials against Github
	AuthenticatedLogin(ctx context.Context) (string, error)
	// GitCredentials returns the basic auth to use to clone a repository over https
	GitCredentials(ctx context.Context) (string, string, error)
}

/*
 * Credentials used to connect to Github. By order of precedence:
 * - Token (optionally with the User owning it)
 * - User and Password (basic authentication)
 * - a Github App (AppID, AppPrivateKeyFile, AppOrganization)
 */
type Credentials struct {
	Server            string
	Token             string
	User              string
	Password          string
	AppID             int64
	AppPrivateKeyFile string
	AppOrganization   string
}

type GitHubClientImpl struct {
	gitHubServer    string
	appID           int64
	installationID  int64
	appSlug         string
	privateKey      []byte
	patToken        string // if not "" we use the personal access token
	user            string
	password        string // if not "" we use basic authentication
	accessToken     string
	httpClient      *http.Client
	tokenExpiration time.Time
	mu              sync.Mutex
}

// AuthorizedTransport adds the basic authentication or the Github App
// installation token to every request
type AuthorizedTransport struct {
	client *GitHubClientImpl
}

func (t *AuthorizedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())

	if t.client.password != "" {
		req.SetBasicAuth(t.client.user, t.client.password)
		return http.DefaultTransport.RoundTrip(req)
	}

	t.client.mu.Lock()
	// Refresh the access token if necessary
	if t.client.accessToken == "" || time.Until(t.client.tokenExpiration) < 5*time.Minute {
		token, err := t.client.CreateJWT()
		if err != nil {
			t.client.mu.Unlock()
			return nil, err
		}

		accessToken, expiresAt, err := t.client.getAccessTokenForInstallation(req.Context(), token)
		if err != nil {
			t.client.mu.Unlock()
			return nil, err
		}
		t.client.accessToken = accessToken
		t.client.tokenExpiration = expiresAt
	}
	t.client.mu.Unlock()

	req.Header.Set("Authorization", "Bearer "+t.client.accessToken)

	return http.DefaultTransport.RoundTrip(req)
}

/**
 * NewGitHubClientImpl
 * @param {Credentials} credentials
 * @return {GitHubClient} client
 * @return {error} error (an *AuthenticationError if the credentials are not usable)
 *
 * Example:
 * client, err := NewGitHubClientImpl(Credentials{
 * 	Server: "https://api.github.com",
 * 	Token:  os.Getenv("GITHUB_TOKEN"),
 * })
 */
func NewGitHubClientImpl(credentials Credentials) (*GitHubClientImpl, error) {
	client := &GitHubClientImpl{
		gitHubServer: strings.TrimSuffix(credentials.Server, "/"),
		appID:        credentials.AppID,
		patToken:     credentials.Token,
		user:         credentials.User,
	}

	switch {
	case credentials.Token != "":
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: credentials.Token})
		client.httpClient = &http.Client{Transport: &oauth2.Transport{Source: ts}}
		return client, nil

	case credentials.Password != "":
		if credentials.User == "" {
			return nil, &AuthenticationError{Reason: "cannot supply password without username"}
		}
		client.password = credentials.Password
		client.httpClient = &http.Client{Transport: &AuthorizedTransport{client: client}}
		return client, nil

	case credentials.AppID != 0:
		privateKey, err := os.ReadFile(credentials.AppPrivateKeyFile)
		if err != nil {
			return nil, &AuthenticationError{Reason: "unable to read the Github App private key", Err: err}
		}
		client.privateKey = privateKey

		// create JWT
		token, err := client.CreateJWT()
		if err != nil {
			return nil, &AuthenticationError{Reason: "unable to create the Github App JWT", Err: err}
		}

		// retrieve all installations for the authenticated app
		installations, err := client.getInstallations(token)
		if err != nil {
			return nil, &AuthenticationError{Reason: "unable to list the Github App installations", Err: err}
		}

		// find the installation ID for the given organization
		for _, installation := range installations {
			logrus.Debugf("Found installation %s with id %d for organization: %s", installation.AppSlug, installation.ID, installation.Account.Login)
			if strings.EqualFold(installation.Account.Login, credentials.AppOrganization) && installation.AppId == credentials.AppID {
				client.installationID = installation.ID
				client.appSlug = installation.AppSlug
				break
			}
		}

		if client.installationID == 0 {
			return nil, &AuthenticationError{Reason: fmt.Sprintf("installation not found for organization: %s", credentials.AppOrganization)}
		}
		client.httpClient = &http.Client{Transport: &AuthorizedTransport{client: client}}
		return client, nil
	}

	return nil, &AuthenticationError{Reason: "no credentials: a token, a user and password, or a Github App is required"}
}

// waitRateLimit helps dealing with rate limits
// cf https://docs.github.com/en/rest/guides/best-practices-for-integrators?apiVersion=2022-11-28#dealing-with-rate-limits
func waitRateLimit(resetTimeStr string) error {
	if resetTimeStr == "" {
		return fmt.Errorf("X-RateLimit-Reset header not found")
	}

	logrus.Infof("Rate limit exceeded, waiting for %s", resetTimeStr)

	// Parse the reset time.
	resetTimeUnix, err := strconv.ParseInt(resetTimeStr, 10, 64)
	if err != nil {
		return fmt.Errorf("failed to parse X-RateLimit-Reset header: %w", err)
	}

	resetTime := time.Unix(resetTimeUnix, 0)

	// Wait until the reset time.
	time.Sleep(time.Until(resetTime))

	return nil
}

// isRateLimited returns true for the primary (429, or 403 with no
// remaining calls) and the secondary (Retry-After) rate limits
func isRateLimited(resp *http.Response) bool {
	if resp.StatusCode == http.StatusTooManyRequests {
		return true
	}
	if resp.StatusCode == http.StatusForbidden {
		return resp.Header.Get("X-RateLimit-Remaining") == "0" || resp.Header.Get("Retry-After") != ""
	}
	return false
}

func waitSecondaryRateLimit(retryAfterStr string) error {
	retryAfter, err := strconv.Atoi(retryAfterStr)
	if err != nil {
		return fmt.Errorf("error parsing Retry-After header: %w", err)
	}
	if retryAfter > 30 {
		retryAfter = retryAfter / 2 // ok we shouldn't be too aggressive
	}
	logrus.Debugf("2nd rate limit reached, waiting for %d seconds", retryAfter)
	time.Sleep(time.Duration(retryAfter) * time.Second)
	return nil
}

/*
 * CallRestAPI
 * @param {string} endpoint
 * @param {string} parameters (query string)
 * @param {string} method
 * @param {map[string]interface{}} body
 *
 * Example:
 * body := map[string]interface{}{
 *	"permission": "push",
 * }
 * responseBody, err := client.CallRestAPI(ctx, "/orgs/my-org/teams/my-team/repos/my-org/my-repo", "", "PUT", body)
 *
 * A non 2xx answer is returned as an *HttpError (along with the body),
 * except 401 which is an *AuthenticationError.
 */
func (client *GitHubClientImpl) CallRestAPI(ctx context.Context, endpoint, parameters, method string, body map[string]interface{}) ([]byte, error) {
	var childSpan trace.Span
	if config.Config.OpenTelemetryEnabled {
		if method != "GET" || config.Config.OpenTelemetryTraceAll {
			// get back the tracer from the context
			ctx, childSpan = otel.Tracer("teamperms").Start(ctx, fmt.Sprintf("CallRestAPI %s", endpoint))
			defer childSpan.End()

			childSpan.SetAttributes(
				attribute.String("method", method),
				attribute.String("endpoint", endpoint),
				attribute.String("parameters", parameters),
			)
		}
	}
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			if childSpan != nil {
				childSpan.SetStatus(codes.Error, err.Error())
			}
			return nil, err
		}
		if childSpan != nil {
			childSpan.SetAttributes(attribute.String("body", string(jsonBody)))
		}
		bodyReader = bytes.NewBuffer(jsonBody)
	}
	urlpath, err := url.JoinPath(client.gitHubServer, endpoint)
	if err != nil {
		if childSpan != nil {
			childSpan.SetStatus(codes.Error, err.Error())
		}
		return nil, err
	}

	stats := ctx.Value(config.ContextKeyStatistics)
	if stats != nil {
		runStats := stats.(*config.Statistics)
		runStats.GithubApiCalls++
	}

	if parameters != "" {
		urlpath = urlpath + "?" + parameters
	}

	req, err := http.NewRequestWithContext(ctx, method, urlpath, bodyReader)
	if err != nil {
		if childSpan != nil {
			childSpan.SetStatus(codes.Error, fmt.Sprintf("error preparing the http request: %s", err.Error()))
		}
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.httpClient.Do(req)
	if err != nil {
		if childSpan != nil {
			childSpan.SetStatus(codes.Error, err.Error())
		}
		return nil, err
	}
	defer resp.Body.Close()

	if isRateLimited(resp) {
		if stats != nil {
			runStats := stats.(*config.Statistics)
			runStats.GithubThrottled++
		}

		if resp.Header.Get("Retry-After") != "" {
			err = waitSecondaryRateLimit(resp.Header.Get("Retry-After"))
		} else {
			// We're being rate limited. Get the reset time from the headers.
			err = waitRateLimit(resp.Header.Get("X-RateLimit-Reset"))
		}
		if err != nil {
			if childSpan != nil {
				childSpan.SetStatus(codes.Error, fmt.Sprintf("waitRateLimit: %s", err.Error()))
			}
			return nil, err
		}

		// Retry the request.
		return client.CallRestAPI(ctx, endpoint, parameters, method, body)
	}

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		if childSpan != nil {
			childSpan.SetStatus(codes.Error, err.Error())
		}
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if childSpan != nil {
			childSpan.SetStatus(codes.Error, fmt.Sprintf("unexpected status: %s", resp.Status))
		}
		if resp.StatusCode == http.StatusUnauthorized {
			return responseBody, &AuthenticationError{Reason: fmt.Sprintf("%s %s", method, endpoint), Err: &HttpError{StatusCode: resp.StatusCode, Status: resp.Status, Body: responseBody}}
		}
		return responseBody, &HttpError{StatusCode: resp.StatusCode, Status: resp.Status, Body: responseBody}
	}

	return responseBody, nil
}

func (client *GitHubClientImpl) CreateJWT() (string, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM(client.privateKey)
	if err != nil {
		return "", err
	}

	// create a JWT
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"iat": int32(time.Now().Add(-1 * time.Minute).Unix()),
		"exp": int32(time.Now().Add(10 * time.Minute).Unix()),
		"iss": client.appID,
	})

	// sign the JWT with the app's private key
	signedToken, err := token.SignedString(key)
	if err != nil {
		return "", err
	}

	return signedToken, nil
}

type AccessTokenResponse struct {
	Token string `json:"token"`
}

func (client *GitHubClientImpl) getAccessTokenForInstallation(ctx context.Context, jwt string) (string, time.Time, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", fmt.Sprintf("%s/app/installations/%d/access_tokens", client.gitHubServer, client.installationID), nil)
	if err != nil {
		return "", time.Now(), err
	}

	req.Header.Add("Authorization", "Bearer "+jwt)
	req.Header.Add("Accept", "application/vnd.github+json")

	stats := ctx.Value(config.ContextKeyStatistics)
	if stats != nil {
		runStats := stats.(*config.Statistics)
		runStats.GithubApiCalls++
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", time.Now(), err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return "", time.Now(), &AuthenticationError{Reason: "unable to get an installation access token", Err: fmt.Errorf("unexpected status: %s", resp.Status)}
	}

	var accessTokenResponse AccessTokenResponse
	err = json.NewDecoder(resp.Body).Decode(&accessTokenResponse)
	if err != nil {
		return "", time.Now(), err
	}

	return accessTokenResponse.Token, time.Now().Add(1 * time.Hour), nil
}

/*
 * GitCredentials
 * It is used to clone a private repository over https
 *
 * Example:
 * username, password, err := client.GitCredentials(ctx)
 * repo, err := git.Clone(memory.NewStorage(), memfs.New(), &git.CloneOptions{
 *	URL: "https://github.com/owner/repo.git",
 *	Auth: &http.BasicAuth{
 *		Username: username,
 *		Password: password,
 *	},
 * })
 */
func (client *GitHubClientImpl) GitCredentials(ctx context.Context) (string, string, error) {
	if client.patToken != "" {
		return "x-access-token", client.patToken, nil
	}
	if client.password != "" {
		return client.user, client.password, nil
	}

	client.mu.Lock()
	defer client.mu.Unlock()

	if client.accessToken != "" && client.tokenExpiration.After(time.Now()) {
		return "x-access-token", client.accessToken, nil
	}

	jwt, err := client.CreateJWT()
	if err != nil {
		return "", "", err
	}

	accessToken, expiration, err := client.getAccessTokenForInstallation(ctx, jwt)
	if err != nil {
		return "", "", err
	}

	client.accessToken = accessToken
	client.tokenExpiration = expiration

	logrus.Debugf("GitCredentials(): client.tokenExpiration: %v", client.tokenExpiration)

	return "x-access-token", accessToken, nil
}
