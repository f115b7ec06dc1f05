package config

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestSetupLogrus(t *testing.T) {
	defer SetupLogrus("info", "text")

	t.Run("happy path: json debug", func(t *testing.T) {
		err := SetupLogrus("debug", "json")
		assert.Nil(t, err)
		assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())
		_, ok := logrus.StandardLogger().Formatter.(*logrus.JSONFormatter)
		assert.True(t, ok)
	})

	t.Run("not happy path: unknown level", func(t *testing.T) {
		err := SetupLogrus("verbose", "text")
		assert.NotNil(t, err)
	})

	t.Run("not happy path: unknown format", func(t *testing.T) {
		err := SetupLogrus("info", "xml")
		assert.NotNil(t, err)
	})
}

func TestDefaults(t *testing.T) {
	t.Run("happy path: default values", func(t *testing.T) {
		assert.Equal(t, "https://api.github.com", Config.GithubServer)
		assert.Equal(t, "github.yaml", Config.ConfigFile)
		assert.Equal(t, "main", Config.ConfigGitBranch)
	})
}
