package seed

import (
	_ "embed"
	"fmt"

	"cinelog/internal/models"
	"cinelog/internal/validation"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// CatalogMovie is one entry of the embedded demo catalog.
type CatalogMovie struct {
	Title       string   `yaml:"title"`
	TitleEn     string   `yaml:"titleEn"`
	Director    string   `yaml:"director"`
	Actors      []string `yaml:"actors"`
	Genres      []string `yaml:"genres"`
	ReleaseDate string   `yaml:"releaseDate"`
	Runtime     int      `yaml:"runtime"`
	Description string   `yaml:"description"`
	PosterURL   string   `yaml:"posterUrl"`
}

// LoadCatalog parses the embedded movie catalog.
func LoadCatalog() ([]CatalogMovie, error) {
	return parseCatalog(catalogYAML)
}

func parseCatalog(raw []byte) ([]CatalogMovie, error) {
	var doc struct {
		Movies []CatalogMovie `yaml:"movies"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	seen := make(map[string]struct{}, len(doc.Movies))
	for i, m := range doc.Movies {
		if m.Title == "" {
			return nil, fmt.Errorf("catalog entry %d has no title", i)
		}
		if _, dup := seen[m.Title]; dup {
			return nil, fmt.Errorf("catalog title %q is duplicated", m.Title)
		}
		seen[m.Title] = struct{}{}
	}
	return doc.Movies, nil
}

// Model converts the entry into a movie row.
func (m CatalogMovie) Model() (*models.Movie, error) {
	movie := &models.Movie{
		Title:       m.Title,
		TitleEn:     m.TitleEn,
		Description: m.Description,
		PosterURL:   m.PosterURL,
		Director:    m.Director,
		Actors:      models.ActorList(validation.CleanList(m.Actors)),
		Genres:      validation.CleanList(m.Genres),
	}
	if m.ReleaseDate != "" {
		date, err := validation.ParseReleaseDate(m.ReleaseDate)
		if err != nil {
			return nil, fmt.Errorf("catalog %q: %w", m.Title, err)
		}
		movie.ReleaseDate = date
	}
	if m.Runtime > 0 {
		runtime := m.Runtime
		movie.Runtime = &runtime
	}
	if movie.PosterURL == "" {
		movie.PosterURL = fmt.Sprintf("https://picsum.photos/seed/%s/400/600", slug(m.Title))
	}
	return movie, nil
}
