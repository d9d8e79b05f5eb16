package main

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fairyhunter13/ai-interviewer/internal/domain"
)

type vacancyYAML struct {
	Vacancies []struct {
		Title                string `yaml:"title"`
		Description          string `yaml:"description"`
		Requirements         string `yaml:"requirements"`
		TechnicalWeight      int    `yaml:"technical_weight"`
		CommunicationWeight  int    `yaml:"communication_weight"`
		ProblemSolvingWeight int    `yaml:"problem_solving_weight"`
	} `yaml:"vacancies"`
}

// seedVacancies loads vacancies from a YAML file into an empty vacancies
// table. A non-empty table is left untouched, so seeding is idempotent across
// restarts.
func seedVacancies(ctx domain.Context, repo domain.VacancyRepository, path string) error {
	existing, err := repo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("seed vacancies: %w", err)
	}
	if len(existing) > 0 {
		slog.Info("vacancies already present, skipping seed", slog.Int("count", len(existing)))
		return nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("seed vacancies: %w", err)
	}
	var doc vacancyYAML
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return fmt.Errorf("seed vacancies: yaml parse: %w", err)
	}
	for _, v := range doc.Vacancies {
		if v.Title == "" {
			continue
		}
		id, err := repo.Create(ctx, domain.Vacancy{
			Title:                v.Title,
			Description:          v.Description,
			Requirements:         v.Requirements,
			Active:               true,
			TechnicalWeight:      v.TechnicalWeight,
			CommunicationWeight:  v.CommunicationWeight,
			ProblemSolvingWeight: v.ProblemSolvingWeight,
		})
		if err != nil {
			return fmt.Errorf("seed vacancies: %w", err)
		}
		slog.Info("vacancy seeded", slog.String("id", id), slog.String("title", v.Title))
	}
	return nil
}
