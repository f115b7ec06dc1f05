package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/goliac-project/teamperms/internal/entity"
	"github.com/sirupsen/logrus"
)

/*
 * CloneConfigurationRepository clones one branch of the repository that
 * holds the configuration file, in memory.
 * Over https, username/password are sent as basic auth (for a token the
 * username is x-access-token).
 */
func CloneConfigurationRepository(ctx context.Context, repositoryUrl, branch, username, password string) (billy.Filesystem, error) {
	var auth transport.AuthMethod
	if strings.HasPrefix(repositoryUrl, "https://") {
		auth = &http.BasicAuth{
			Username: username, // This can be anything except an empty string
			Password: password,
		}
	} else if strings.HasPrefix(repositoryUrl, "git@") || strings.HasPrefix(repositoryUrl, "ssh://") {
		// ssh clone not supported yet
		return nil, fmt.Errorf("not supported: %s", repositoryUrl)
	}

	logrus.Debugf("cloning %s (branch %s)", repositoryUrl, branch)
	fs := memfs.New()
	_, err := git.CloneContext(ctx, memory.NewStorage(), fs, &git.CloneOptions{
		URL:           repositoryUrl,
		Auth:          auth,
		ReferenceName: plumbing.NewBranchReferenceName(branch),
		SingleBranch:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to clone %s (branch %s): %w", repositoryUrl, branch, err)
	}
	return fs, nil
}

// LoadConfiguration reads (and validates) the configuration file from fs
func LoadConfiguration(fs billy.Filesystem, filename string) (*entity.Configuration, error) {
	return entity.ReadConfiguration(fs, filename)
}
