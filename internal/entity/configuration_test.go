package entity

import (
	"errors"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/goliac-project/teamperms/internal/utils"
	"github.com/stretchr/testify/assert"
)

const fixtureYAML = `
organizations:
  zeta-org:
    teams:
      web-team:
        permission: read
        exclusions:
          - infra
        unknown-field: ignored
      backend:
        membership:
          members:
            - bob
            - alice
            - bob
          admins:
            - bob
          banned:
            - bob
        repositories:
          - api
          - ghost
        overrides:
          api: ADMIN
  alpha-org:
    teams:
      ops: {}
`

func TestReadConfiguration(t *testing.T) {
	t.Run("happy path: yaml keeps the declaration order", func(t *testing.T) {
		fs := memfs.New()
		err := utils.WriteFile(fs, "github.yaml", []byte(fixtureYAML), 0644)
		assert.Nil(t, err)

		configuration, err := ReadConfiguration(fs, "github.yaml")
		assert.Nil(t, err)
		assert.Equal(t, 2, len(configuration.Organizations))
		assert.Equal(t, "zeta-org", configuration.Organizations[0].Name)
		assert.Equal(t, "alpha-org", configuration.Organizations[1].Name)

		zeta := configuration.Organizations[0]
		assert.Equal(t, 2, len(zeta.Teams))
		assert.Equal(t, "web-team", zeta.Teams[0].Name)
		assert.Equal(t, "backend", zeta.Teams[1].Name)

		web := zeta.Team("web-team")
		assert.NotNil(t, web)
		assert.Equal(t, PermissionRead, web.DefaultPermission())
		assert.Equal(t, []string{"infra"}, web.Exclusions)
		assert.Equal(t, []string{}, web.Repositories)
		assert.Nil(t, web.Membership)

		backend := zeta.Team("backend")
		assert.Equal(t, PermissionNone, backend.DefaultPermission())
		assert.Equal(t, []string{"api", "ghost"}, backend.Repositories)
		assert.Equal(t, map[string]Permission{"api": PermissionAdmin}, backend.Overrides)
		assert.Equal(t, []string{"alice", "bob"}, backend.Membership.Members)
		assert.Equal(t, []string{"bob"}, backend.Membership.Admins)
		assert.Equal(t, []string{"bob"}, backend.Membership.Banned)

		ops := configuration.Organizations[1].Team("ops")
		assert.NotNil(t, ops)
		assert.Nil(t, ops.Permission)
		assert.Equal(t, 0, len(ops.Overrides))
	})

	t.Run("happy path: toml", func(t *testing.T) {
		fs := memfs.New()
		err := utils.WriteFile(fs, "github.toml", []byte(`
[organizations.zeta-org.teams.web-team]
permission = "WRITE"
exclusions = ["infra"]

[organizations.zeta-org.teams.backend]
repositories = ["api"]

[organizations.zeta-org.teams.backend.overrides]
api = "admin"

[organizations.zeta-org.teams.backend.membership]
members = ["alice"]

[organizations.alpha-org.teams.ops]
`), 0644)
		assert.Nil(t, err)

		configuration, err := ReadConfiguration(fs, "github.toml")
		assert.Nil(t, err)
		assert.Equal(t, 2, len(configuration.Organizations))
		assert.Equal(t, "zeta-org", configuration.Organizations[0].Name)
		assert.Equal(t, "alpha-org", configuration.Organizations[1].Name)
		assert.Equal(t, "web-team", configuration.Organizations[0].Teams[0].Name)
		assert.Equal(t, "backend", configuration.Organizations[0].Teams[1].Name)

		backend := configuration.Organizations[0].Team("backend")
		assert.Equal(t, PermissionAdmin, backend.Overrides["api"])
		assert.Equal(t, []string{"alice"}, backend.Membership.Members)
		assert.Equal(t, []string{}, backend.Membership.Banned)
		assert.Equal(t, PermissionWrite, configuration.Organizations[0].Team("web-team").DefaultPermission())
	})

	t.Run("not happy path: missing file", func(t *testing.T) {
		fs := memfs.New()
		_, err := ReadConfiguration(fs, "github.yaml")
		assert.NotNil(t, err)

		var cerr *ConfigurationError
		assert.True(t, errors.As(err, &cerr))
		assert.Equal(t, "github.yaml", cerr.Filename)
	})

	t.Run("not happy path: invalid yaml", func(t *testing.T) {
		fs := memfs.New()
		err := utils.WriteFile(fs, "github.yaml", []byte("organizations: [\n"), 0644)
		assert.Nil(t, err)

		_, err = ReadConfiguration(fs, "github.yaml")
		var cerr *ConfigurationError
		assert.True(t, errors.As(err, &cerr))
		assert.NotNil(t, cerr.Err)
	})

	t.Run("not happy path: all violations are reported", func(t *testing.T) {
		fs := memfs.New()
		err := utils.WriteFile(fs, "github.yaml", []byte(`
organizations:
  acme:
    teams:
      backend:
        permission: triage
        overrides:
          api: owner
        membership:
          members:
            - ""
  empty-org: {}
`), 0644)
		assert.Nil(t, err)

		_, err = ReadConfiguration(fs, "github.yaml")
		var cerr *ConfigurationError
		assert.True(t, errors.As(err, &cerr))
		assert.Equal(t, 4, len(cerr.Violations))
		assert.Equal(t, "organizations.acme.teams.backend.permission", cerr.Violations[0].Field)
		assert.Equal(t, "organizations.acme.teams.backend.overrides.api", cerr.Violations[1].Field)
		assert.Equal(t, "organizations.acme.teams.backend.membership.members", cerr.Violations[2].Field)
		assert.Equal(t, "organizations.empty-org.teams", cerr.Violations[3].Field)
		assert.Contains(t, cerr.Error(), "4 fields with validation failures")
	})

	t.Run("not happy path: no organization", func(t *testing.T) {
		_, err := ParseYAMLConfiguration([]byte("something: else\n"))
		var cerr *ConfigurationError
		assert.True(t, errors.As(err, &cerr))
		assert.Equal(t, 1, len(cerr.Violations))
		assert.Contains(t, cerr.Error(), "1 field with validation failures")
	})
}
