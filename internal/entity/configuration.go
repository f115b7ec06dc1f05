package entity

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/goliac-project/teamperms/internal/utils"
)

/*
 * Configuration is the declared state: for each organization, the teams
 * to reconcile. Organizations and teams keep the order of the file.
 */
type Configuration struct {
	Organizations []*OrganizationConfiguration
}

type OrganizationConfiguration struct {
	Name  string
	Teams []*TeamConfiguration
}

type TeamConfiguration struct {
	Name       string
	Membership *MembershipConfiguration // nil means membership is not managed
	Permission *Permission              // default permission, nil means NONE
	// Repositories is the explicit candidate set (sorted). Empty means
	// every repository available in the organization.
	Repositories []string
	Exclusions   []string
	Overrides    map[string]Permission
}

// MembershipConfiguration lists logins, each list is sorted and without duplicates
type MembershipConfiguration struct {
	Members []string
	Admins  []string
	Banned  []string
}

// DefaultPermission returns the configured default permission or NONE
func (t *TeamConfiguration) DefaultPermission() Permission {
	if t.Permission == nil {
		return PermissionNone
	}
	return *t.Permission
}

// Team returns the configuration of a team of this organization
func (o *OrganizationConfiguration) Team(name string) *TeamConfiguration {
	for _, t := range o.Teams {
		if t.Name == name {
			return t
		}
	}
	return nil
}

/*
 * ReadConfiguration loads and validates the configuration file.
 * The format is picked from the file extension (.toml, else YAML).
 * Any problem is returned as a *ConfigurationError.
 */
func ReadConfiguration(fs billy.Filesystem, filename string) (*Configuration, error) {
	exists, err := utils.Exists(fs, filename)
	if err != nil {
		return nil, &ConfigurationError{Filename: filename, Err: err}
	}
	if !exists {
		return nil, &ConfigurationError{Filename: filename, Err: fmt.Errorf("file does not exist")}
	}

	content, err := utils.ReadFile(fs, filename)
	if err != nil {
		return nil, &ConfigurationError{Filename: filename, Err: err}
	}

	var configuration *Configuration
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".toml":
		configuration, err = ParseTOMLConfiguration(content)
	default:
		configuration, err = ParseYAMLConfiguration(content)
	}
	if err != nil {
		if cerr, ok := err.(*ConfigurationError); ok {
			cerr.Filename = filename
			return nil, cerr
		}
		return nil, &ConfigurationError{Filename: filename, Err: err}
	}
	return configuration, nil
}

/*
 * Intermediate representation shared by the YAML and TOML decoders.
 * Values are kept as raw strings, so that every problem can be reported
 * at once by build().
 */
type organizationDocument struct {
	Teams orderedMap[teamDocument] `yaml:"teams"`
}

type teamDocument struct {
	Membership   *membershipDocument `yaml:"membership" toml:"membership"`
	Permission   *string             `yaml:"permission" toml:"permission"`
	Repositories []string            `yaml:"repositories" toml:"repositories"`
	Exclusions   []string            `yaml:"exclusions" toml:"exclusions"`
	Overrides    map[string]string   `yaml:"overrides" toml:"overrides"`
}

type membershipDocument struct {
	Members []string `yaml:"members" toml:"members"`
	Admins  []string `yaml:"admins" toml:"admins"`
	Banned  []string `yaml:"banned" toml:"banned"`
}

// orderedMap keeps the declaration order of a mapping.
// A nil values map means the mapping was absent (or null).
type orderedMap[T any] struct {
	keys   []string
	values map[string]*T
}

func (m *orderedMap[T]) set(key string, value *T) {
	if m.values == nil {
		m.values = make(map[string]*T)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

func build(organizations orderedMap[organizationDocument]) (*Configuration, error) {
	cerr := &ConfigurationError{}
	configuration := &Configuration{}

	if len(organizations.keys) == 0 {
		cerr.add("organizations", "must not be empty")
	}

	for _, orgname := range organizations.keys {
		orgpath := "organizations." + orgname
		if strings.TrimSpace(orgname) == "" {
			cerr.add("organizations", "organization name must not be blank")
			continue
		}
		org := &OrganizationConfiguration{Name: orgname}
		doc := organizations.values[orgname]
		if doc == nil || doc.Teams.values == nil {
			cerr.add(orgpath+".teams", "must not be null")
			continue
		}
		for _, teamname := range doc.Teams.keys {
			teampath := orgpath + ".teams." + teamname
			if strings.TrimSpace(teamname) == "" {
				cerr.add(orgpath+".teams", "team name must not be blank")
				continue
			}
			team := buildTeam(teamname, teampath, doc.Teams.values[teamname], cerr)
			org.Teams = append(org.Teams, team)
		}
		configuration.Organizations = append(configuration.Organizations, org)
	}

	if len(cerr.Violations) > 0 {
		return nil, cerr
	}
	return configuration, nil
}

func buildTeam(name, path string, doc *teamDocument, cerr *ConfigurationError) *TeamConfiguration {
	team := &TeamConfiguration{
		Name:         name,
		Repositories: []string{},
		Exclusions:   []string{},
		Overrides:    map[string]Permission{},
	}
	if doc == nil {
		return team
	}

	if doc.Permission != nil {
		p, err := ParsePermission(*doc.Permission)
		if err != nil {
			cerr.add(path+".permission", err.Error())
		} else {
			team.Permission = &p
		}
	}

	if utils.HasBlank(doc.Repositories) {
		cerr.add(path+".repositories", "must not contain blank repository names")
	}
	team.Repositories = utils.SortedSet(doc.Repositories)

	if utils.HasBlank(doc.Exclusions) {
		cerr.add(path+".exclusions", "must not contain blank repository names")
	}
	team.Exclusions = utils.SortedSet(doc.Exclusions)

	for _, reponame := range utils.SortedKeys(doc.Overrides) {
		p, err := ParsePermission(doc.Overrides[reponame])
		if err != nil {
			cerr.add(path+".overrides."+reponame, err.Error())
			continue
		}
		team.Overrides[reponame] = p
	}

	if doc.Membership != nil {
		for _, field := range []struct {
			name   string
			logins []string
		}{
			{"members", doc.Membership.Members},
			{"admins", doc.Membership.Admins},
			{"banned", doc.Membership.Banned},
		} {
			if utils.HasBlank(field.logins) {
				cerr.add(path+".membership."+field.name, "must not contain blank logins")
			}
		}
		team.Membership = &MembershipConfiguration{
			Members: utils.SortedSet(doc.Membership.Members),
			Admins:  utils.SortedSet(doc.Membership.Admins),
			Banned:  utils.SortedSet(doc.Membership.Banned),
		}
	}

	return team
}
