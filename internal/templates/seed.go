package templates

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Templates []seedTemplate `yaml:"templates"`
}

type seedTemplate struct {
	ID          string   `yaml:"id"`
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Script      string   `yaml:"script"`
	Duration    float64  `yaml:"duration"`
	Tags        []string `yaml:"tags"`
}

// SeedFromFile loads a YAML template catalog into the repo. Missing files
// are not an error; dev environments simply start with an empty catalog.
func SeedFromFile(ctx context.Context, repo Repo, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read template seed: %w", err)
	}

	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return 0, fmt.Errorf("parse template seed: %w", err)
	}

	count := 0
	for _, entry := range file.Templates {
		if entry.ID == "" || entry.Script == "" {
			continue
		}
		if _, err := repo.GetByID(ctx, entry.ID); err == nil {
			continue
		}
		template := Template{
			ID:          entry.ID,
			Title:       entry.Title,
			Description: entry.Description,
			Script:      entry.Script,
			Duration:    entry.Duration,
			Tags:        entry.Tags,
			CreatedAt:   time.Now().UTC(),
		}
		if err := repo.Create(ctx, template); err != nil {
			return count, fmt.Errorf("seed template %s: %w", entry.ID, err)
		}
		count++
	}
	return count, nil
}
