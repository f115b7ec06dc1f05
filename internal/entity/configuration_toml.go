package entity

import (
	"github.com/BurntSushi/toml"
)

type tomlConfiguration struct {
	Organizations map[string]*tomlOrganization `toml:"organizations"`
}

type tomlOrganization struct {
	Teams map[string]*teamDocument `toml:"teams"`
}

/*
 * ParseTOMLConfiguration reads the TOML flavour of the configuration:
 *
 *	[organizations.acme.teams.backend]
 *	permission = "READ"
 *	exclusions = ["infra"]
 *
 * TOML tables are unordered maps once decoded, so the declaration order
 * is rebuilt from the decoder metadata.
 */
func ParseTOMLConfiguration(content []byte) (*Configuration, error) {
	var doc tomlConfiguration
	md, err := toml.Decode(string(content), &doc)
	if err != nil {
		return nil, &ConfigurationError{Err: err}
	}

	orgOrder := []string{}
	teamOrder := map[string][]string{}
	seenOrg := map[string]bool{}
	seenTeam := map[string]bool{}
	for _, key := range md.Keys() {
		if len(key) < 2 || key[0] != "organizations" {
			continue
		}
		if !seenOrg[key[1]] {
			seenOrg[key[1]] = true
			orgOrder = append(orgOrder, key[1])
		}
		if len(key) >= 4 && key[2] == "teams" {
			id := key[1] + "\x00" + key[3]
			if !seenTeam[id] {
				seenTeam[id] = true
				teamOrder[key[1]] = append(teamOrder[key[1]], key[3])
			}
		}
	}

	organizations := orderedMap[organizationDocument]{}
	for _, orgname := range orgOrder {
		org, ok := doc.Organizations[orgname]
		if !ok {
			continue
		}
		orgdoc := &organizationDocument{}
		if org != nil && org.Teams != nil {
			orgdoc.Teams.values = map[string]*teamDocument{}
			for _, teamname := range teamOrder[orgname] {
				if team, ok := org.Teams[teamname]; ok {
					orgdoc.Teams.set(teamname, team)
				}
			}
		}
		organizations.set(orgname, orgdoc)
	}

	return build(organizations)
}
