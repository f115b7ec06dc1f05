package internal

import (
	"github.com/go-git/go-billy/v5"
	"github.com/goliac-project/teamperms/internal/engine"
	"github.com/goliac-project/teamperms/internal/entity"
	"github.com/goliac-project/teamperms/internal/observability"
)

// TeampermsLight only validates a configuration file, without any Github access
type TeampermsLight interface {
	Validate(fs billy.Filesystem, filename string, logsCollector *observability.LogCollection) *entity.Configuration
}

type TeampermsLightImpl struct {
}

func NewTeampermsLightImpl() TeampermsLight {
	return &TeampermsLightImpl{}
}

// Validate returns nil (and fills logsCollector.Errors) if the configuration is invalid
func (t *TeampermsLightImpl) Validate(fs billy.Filesystem, filename string, logsCollector *observability.LogCollection) *entity.Configuration {
	configuration, err := engine.LoadConfiguration(fs, filename)
	if err != nil {
		logsCollector.AddError(err)
		return nil
	}

	nbTeams := 0
	for _, org := range configuration.Organizations {
		nbTeams += len(org.Teams)
	}
	logsCollector.AddInfo(map[string]any{"file": filename}, "%d organization(s), %d team(s)", len(configuration.Organizations), nbTeams)
	return configuration
}
