package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	gogithub "github.com/google/go-github/v55/github"
)

/*
 * AuthenticatedLogin returns the login behind the credentials.
 * For a Github App, the installation lookup already validated the
 * credentials and the app slug is returned.
 * If a user was given along with a token, it must match the token owner.
 */
func (client *GitHubClientImpl) AuthenticatedLogin(ctx context.Context) (string, error) {
	if client.installationID != 0 {
		return client.appSlug + "[bot]", nil
	}

	gh := gogithub.NewClient(client.httpClient)
	baseURL, err := url.Parse(client.gitHubServer + "/")
	if err != nil {
		return "", err
	}
	gh.BaseURL = baseURL

	user, resp, err := gh.Users.Get(ctx, "")
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return "", &AuthenticationError{Reason: "invalid credentials", Err: err}
		}
		return "", err
	}

	login := user.GetLogin()
	if client.patToken != "" && client.user != "" && !strings.EqualFold(client.user, login) {
		return "", &AuthenticationError{Reason: fmt.Sprintf("the token belongs to %s, not to %s", login, client.user)}
	}
	return login, nil
}
