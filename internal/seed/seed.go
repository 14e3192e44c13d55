// Package seed loads commodities and their first template versions from YAML.
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"insproduce-backend/internal/database"
	"insproduce-backend/internal/logger"
	"insproduce-backend/internal/models"
	"insproduce-backend/internal/services"
)

//go:embed default.yaml
var defaultSeed []byte

type File struct {
	Commodities []Commodity `yaml:"commodities"`
}

type Commodity struct {
	Code     string    `yaml:"code"`
	Name     string    `yaml:"name"`
	Active   *bool     `yaml:"active"`
	Template *Template `yaml:"template"`
}

type Template struct {
	Name   string  `yaml:"name"`
	Fields []Field `yaml:"fields"`
}

type Field struct {
	Key      string   `yaml:"key"`
	Label    string   `yaml:"label"`
	Type     string   `yaml:"type"`
	Required bool     `yaml:"required"`
	Unit     string   `yaml:"unit"`
	Min      *float64 `yaml:"min"`
	Max      *float64 `yaml:"max"`
	Options  []string `yaml:"options"`
	Order    int      `yaml:"order"`
}

type Result struct {
	Commodities int
	Templates   int
}

// Load reads path, or the embedded default when path is empty.
func Load(path string) (*File, error) {
	data := defaultSeed
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read seed file: %w", err)
		}
		data = b
	}
	return Parse(data)
}

func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	for i, c := range f.Commodities {
		if services.NormalizeCode(c.Code) == "" || c.Name == "" {
			return nil, fmt.Errorf("seed commodity %d: code and name are required", i)
		}
	}
	return &f, nil
}

// Apply upserts every commodity and publishes its template only when the
// commodity has no active one yet, so running it twice changes nothing.
func Apply(ctx context.Context, repo *database.TemplateRepo, f *File, log *logger.Logger) (Result, error) {
	var res Result
	for _, sc := range f.Commodities {
		active := true
		if sc.Active != nil {
			active = *sc.Active
		}
		c, err := repo.UpsertCommodity(ctx, models.Commodity{Code: sc.Code, Name: sc.Name, Active: active})
		if err != nil {
			return res, err
		}
		res.Commodities++

		if sc.Template == nil {
			continue
		}
		if _, err := repo.ActiveTemplate(ctx, c.ID); err == nil {
			log.Debug("active template present, skipping", "commodity", c.Code)
			continue
		} else if !errors.Is(err, database.ErrNotFound) {
			return res, err
		}

		fields, skipped := services.BuildFields(sc.Template.inputs())
		if skipped > 0 {
			log.Warn("seed fields skipped", "commodity", c.Code, "skipped", skipped)
		}
		t, err := repo.PublishTemplate(ctx, c.ID, sc.Template.Name, fields)
		if err != nil {
			return res, err
		}
		res.Templates++
		log.Info("seeded template", "commodity", c.Code, "template_id", t.ID, "version", t.Version, "fields", len(fields))
	}
	return res, nil
}

func (t *Template) inputs() []models.FieldInput {
	out := make([]models.FieldInput, 0, len(t.Fields))
	for _, f := range t.Fields {
		in := models.FieldInput{
			Key:        f.Key,
			Label:      f.Label,
			FieldType:  f.Type,
			Required:   f.Required,
			MinValue:   f.Min,
			MaxValue:   f.Max,
			OrderIndex: f.Order,
		}
		if f.Unit != "" {
			unit := f.Unit
			in.Unit = &unit
		}
		if len(f.Options) > 0 {
			in.Options = f.Options
		}
		out = append(out, in)
	}
	return out
}
