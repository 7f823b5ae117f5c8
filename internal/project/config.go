package project

import (
	"github.com/roach88/reposync/internal/repository"
	"github.com/roach88/reposync/internal/translate"
)

// Config is a decoded project configuration.
type Config struct {
	Name         string                            `json:"name"`
	Repositories map[string]repository.Config      `json:"repositories"`
	Editors      map[string]translate.EditorConfig `json:"editors"`
	Translators  []TranslatorConfig                `json:"translators"`
	Migrations   []MigrationConfig                 `json:"migrations"`
}

// TranslatorConfig configures the translator between two project spaces.
type TranslatorConfig struct {
	FromProjectSpace string       `json:"from_project_space"`
	ToProjectSpace   string       `json:"to_project_space"`
	Steps            []StepConfig `json:"steps"`
}

// StepConfig is one named editor invocation inside a translator.
type StepConfig struct {
	Name   string                 `json:"name"`
	Editor translate.EditorConfig `json:"editor"`
}

// MigrationConfig pairs the repository content is migrated from with the one
// it is migrated to.
type MigrationConfig struct {
	Name           string `json:"name"`
	FromRepository string `json:"from_repository"`
	ToRepository   string `json:"to_repository"`
}
