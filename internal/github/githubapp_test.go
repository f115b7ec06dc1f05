package github

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func writePrivateKey(t *testing.T) string {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	assert.Nil(t, err)
	pemBytes := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	filename := filepath.Join(t.TempDir(), "github-app-private-key.pem")
	err = os.WriteFile(filename, pemBytes, 0600)
	assert.Nil(t, err)
	return filename
}

func TestGetInstallations(t *testing.T) {
	t.Run("happy path", func(t *testing.T) {
		httpTest := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				t.Fatalf("expected GET request, got %s", r.Method)
			}
			if r.URL.Path != "/app/installations" {
				t.Fatalf("expected /app/installations, got %s", r.URL.Path)
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`[{"id":123, "account": {"login": "testuser"}}]`))
		}))
		defer httpTest.Close()
		client := &GitHubClientImpl{
			gitHubServer: httpTest.URL,
		}

		installations, err := client.getInstallations("testjwt")
		assert.Nil(t, err)
		assert.Equal(t, 1, len(installations))
		assert.Equal(t, int64(123), installations[0].ID)
	})

	t.Run("not happy path: refused jwt", func(t *testing.T) {
		httpTest := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message": "A JSON web token could not be decoded"}`))
		}))
		defer httpTest.Close()
		client := &GitHubClientImpl{
			gitHubServer: httpTest.URL,
		}

		_, err := client.getInstallations("testjwt")
		assert.NotNil(t, err)
	})
}

func TestGithubAppClient(t *testing.T) {
	newServer := func() *httptest.Server {
		return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			switch r.URL.Path {
			case "/app/installations":
				w.WriteHeader(http.StatusOK)
				w.Write([]byte(`[{"id":1, "app_id": 42, "app_slug": "other", "account": {"login": "other-org"}},{"id":7, "app_id": 42, "app_slug": "teamperms", "account": {"login": "Acme"}}]`))
			case "/app/installations/7/access_tokens":
				w.WriteHeader(http.StatusCreated)
				w.Write([]byte(`{"token": "installation-token"}`))
			case "/orgs/acme/teams":
				assert.Equal(t, "Bearer installation-token", r.Header.Get("Authorization"))
				w.WriteHeader(http.StatusOK)
				w.Write([]byte(`[]`))
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		}))
	}

	t.Run("happy path: installation found", func(t *testing.T) {
		server := newServer()
		defer server.Close()

		client, err := NewGitHubClientImpl(Credentials{
			Server:            server.URL,
			AppID:             42,
			AppPrivateKeyFile: writePrivateKey(t),
			AppOrganization:   "acme",
		})
		assert.Nil(t, err)
		assert.Equal(t, int64(7), client.installationID)

		_, err = client.CallRestAPI(context.TODO(), "/orgs/acme/teams", "", "GET", nil)
		assert.Nil(t, err)

		login, err := client.AuthenticatedLogin(context.TODO())
		assert.Nil(t, err)
		assert.Equal(t, "teamperms[bot]", login)

		username, password, err := client.GitCredentials(context.TODO())
		assert.Nil(t, err)
		assert.Equal(t, "x-access-token", username)
		assert.Equal(t, "installation-token", password)
	})

	t.Run("not happy path: no installation for the organization", func(t *testing.T) {
		server := newServer()
		defer server.Close()

		_, err := NewGitHubClientImpl(Credentials{
			Server:            server.URL,
			AppID:             42,
			AppPrivateKeyFile: writePrivateKey(t),
			AppOrganization:   "unknown-org",
		})
		var aerr *AuthenticationError
		assert.True(t, errors.As(err, &aerr))
	})

	t.Run("not happy path: missing private key", func(t *testing.T) {
		_, err := NewGitHubClientImpl(Credentials{
			Server:            "https://api.github.com",
			AppID:             42,
			AppPrivateKeyFile: filepath.Join(t.TempDir(), "missing.pem"),
			AppOrganization:   "acme",
		})
		var aerr *AuthenticationError
		assert.True(t, errors.As(err, &aerr))
	})
}
