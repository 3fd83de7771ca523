// Package importer loads legacy country dumps into Postgres. The legacy
// system exported one BSON document per country. Only baseline facts are
// trusted from the dump; derived state is recomputed from the baseline on
// the first pass after import.
package importer

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/statecraft/ixsim/simcore/database/models"
	"github.com/statecraft/ixsim/simcore/database/repositories"
	"go.mongodb.org/mongo-driver/bson"
)

// legacyCountry mirrors the legacy export's document shape.
type legacyCountry struct {
	Name                 string   `bson:"name"`
	Slug                 string   `bson:"slug"`
	BaselinePopulation   float64  `bson:"baselinePopulation"`
	BaselineGdpPerCapita float64  `bson:"baselineGdpPerCapita"`
	BaselineDate         float64  `bson:"baselineDate"`
	MaxGdpGrowthRate     float64  `bson:"maxGdpGrowthRate"`
	GdpGrowthRate        float64  `bson:"gdpGrowthRate"`
	PopulationGrowthRate float64  `bson:"populationGrowthRate"`
	LandArea             *float64 `bson:"landArea"`
}

type Importer struct {
	countries repositories.CountryRepository
	tiers     interface {
		Classify(population, gdpPerCapita float64) (string, string)
	}
}

func New(countries repositories.CountryRepository, tiers interface {
	Classify(population, gdpPerCapita float64) (string, string)
}) *Importer {
	return &Importer{countries: countries, tiers: tiers}
}

// ImportFile reads a legacy .bson dump and creates any country not already
// present. Existing countries are skipped, never overwritten: re-running an
// import is safe.
func (im *Importer) ImportFile(ctx context.Context, path string) (created, skipped int, err error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to open dump: %w", err)
	}
	defer file.Close()

	start := time.Now()
	reader := bufio.NewReader(file)
	for {
		doc, err := readDocument(reader)
		if err == io.EOF {
			break
		}
		if err != nil {
			return created, skipped, err
		}

		var lc legacyCountry
		if err := bson.Unmarshal(doc, &lc); err != nil {
			return created, skipped, fmt.Errorf("failed to decode country document: %w", err)
		}
		if lc.Name == "" || lc.BaselinePopulation <= 0 {
			skipped++
			continue
		}

		country := im.convert(lc)
		if _, err := im.countries.GetByID(ctx, country.ID); err == nil {
			skipped++
			continue
		} else if !errors.Is(err, repositories.ErrCountryNotFound) {
			return created, skipped, err
		}

		if err := im.countries.Create(ctx, country); err != nil {
			return created, skipped, fmt.Errorf("failed to create %s: %w", country.ID, err)
		}
		created++
	}

	slog.Info("Legacy import completed",
		slog.String("type", "sys"),
		slog.String("file", path),
		slog.Int("created", created),
		slog.Int("skipped", skipped),
		slog.Duration("took", time.Since(start)))
	return created, skipped, nil
}

// convert seeds current state from the baseline; the engine's first pass
// advances it to present-day synthetic time.
func (im *Importer) convert(lc legacyCountry) *models.Country {
	id := lc.Slug
	if id == "" {
		id = slugify(lc.Name)
	}

	c := &models.Country{
		ID:                   id,
		Name:                 lc.Name,
		BaselinePopulation:   lc.BaselinePopulation,
		BaselineGdpPerCapita: lc.BaselineGdpPerCapita,
		BaselineDate:         lc.BaselineDate,
		MaxGdpGrowthRate:     lc.MaxGdpGrowthRate,
		GdpGrowthRate:        lc.GdpGrowthRate,
		PopulationGrowthRate: lc.PopulationGrowthRate,
		LandArea:             lc.LandArea,
		LocalGrowthFactor:    1.0,

		CurrentPopulation:   lc.BaselinePopulation,
		CurrentGdpPerCapita: lc.BaselineGdpPerCapita,
		CurrentTotalGdp:     lc.BaselinePopulation * lc.BaselineGdpPerCapita,
		LastCalculated:      lc.BaselineDate,
	}
	if lc.LandArea != nil && *lc.LandArea > 0 {
		pd := c.CurrentPopulation / *lc.LandArea
		gd := c.CurrentTotalGdp / *lc.LandArea
		c.PopulationDensity, c.GdpDensity = &pd, &gd
	}
	c.EconomicTier, c.PopulationTier = im.tiers.Classify(c.CurrentPopulation, c.CurrentGdpPerCapita)
	return c
}

// readDocument reads one length-prefixed BSON document.
func readDocument(reader *bufio.Reader) ([]byte, error) {
	lengthBytes := make([]byte, 4)
	if _, err := io.ReadFull(reader, lengthBytes); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to read document length: %w", err)
	}

	length := int32(binary.LittleEndian.Uint32(lengthBytes))
	if length <= 4 {
		return nil, fmt.Errorf("invalid document length: %d", length)
	}

	docBytes := make([]byte, length-4)
	if _, err := io.ReadFull(reader, docBytes); err != nil {
		return nil, fmt.Errorf("failed to read document bytes: %w", err)
	}

	return append(lengthBytes, docBytes...), nil
}

func slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.ReplaceAll(slug, " ", "-")
	return slug
}
