package importer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/statecraft/ixsim/simcore/database/models"
	"github.com/statecraft/ixsim/simcore/database/repositories"
	"github.com/statecraft/ixsim/simcore/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"go.mongodb.org/mongo-driver/bson"
)

type memCountryRepo struct {
	countries map[string]*models.Country
}

func newMemCountryRepo() *memCountryRepo {
	return &memCountryRepo{countries: make(map[string]*models.Country)}
}

func (r *memCountryRepo) GetByID(_ context.Context, id string) (*models.Country, error) {
	c, ok := r.countries[id]
	if !ok {
		return nil, repositories.ErrCountryNotFound
	}
	return c, nil
}

func (r *memCountryRepo) GetAll(context.Context) ([]*models.Country, error) {
	out := make([]*models.Country, 0, len(r.countries))
	for _, c := range r.countries {
		out = append(out, c)
	}
	return out, nil
}

func (r *memCountryRepo) GetAllIDs(context.Context) ([]string, error) {
	ids := make([]string, 0, len(r.countries))
	for id := range r.countries {
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *memCountryRepo) Create(_ context.Context, country *models.Country) error {
	r.countries[country.ID] = country
	return nil
}

func (r *memCountryRepo) UpdateSnapshotTx(context.Context, bun.Tx, *models.Country) error {
	return nil
}

func (r *memCountryRepo) Count(context.Context) (int, error) {
	return len(r.countries), nil
}

type tierClassifier struct{ cfg engine.TierConfig }

func (t tierClassifier) Classify(population, gdpPerCapita float64) (string, string) {
	return t.cfg.Classify(population, gdpPerCapita)
}

func writeDump(t *testing.T, docs ...interface{}) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "countries.bson")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	for _, doc := range docs {
		raw, err := bson.Marshal(doc)
		require.NoError(t, err)
		_, err = f.Write(raw)
		require.NoError(t, err)
	}
	return path
}

func TestImportFile(t *testing.T) {
	landArea := 250_000.0
	path := writeDump(t,
		bson.M{
			"name":                 "Valoria",
			"slug":                 "valoria",
			"baselinePopulation":   1_000_000.0,
			"baselineGdpPerCapita": 25_000.0,
			"maxGdpGrowthRate":     0.05,
			"gdpGrowthRate":        0.03,
			"populationGrowthRate": 0.01,
			"landArea":             landArea,
		},
		bson.M{
			"name":                 "Novara Reach",
			"baselinePopulation":   40_000_000.0,
			"baselineGdpPerCapita": 8_000.0,
		},
		bson.M{
			// No name, dropped as invalid.
			"baselinePopulation": 500.0,
		},
	)

	repo := newMemCountryRepo()
	im := New(repo, tierClassifier{cfg: engine.DefaultTierConfig()})

	created, skipped, err := im.ImportFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 2, created)
	assert.Equal(t, 1, skipped)

	valoria, err := repo.GetByID(context.Background(), "valoria")
	require.NoError(t, err)
	assert.Equal(t, "Valoria", valoria.Name)
	assert.Equal(t, 1_000_000.0, valoria.CurrentPopulation)
	assert.Equal(t, 25_000_000_000.0, valoria.CurrentTotalGdp)
	assert.Equal(t, 1.0, valoria.LocalGrowthFactor)
	require.NotNil(t, valoria.PopulationDensity)
	assert.InDelta(t, 4.0, *valoria.PopulationDensity, 1e-9)
	assert.Equal(t, "Healthy", valoria.EconomicTier)
	assert.Equal(t, "Small", valoria.PopulationTier)

	// Missing slug falls back to a slug derived from the name; no land
	// area means densities stay unknown.
	novara, err := repo.GetByID(context.Background(), "novara-reach")
	require.NoError(t, err)
	assert.Nil(t, novara.PopulationDensity)
	assert.Nil(t, novara.GdpDensity)
	assert.Equal(t, "Medium", novara.PopulationTier)
}

func TestImportFileIdempotent(t *testing.T) {
	path := writeDump(t, bson.M{
		"name":                 "Valoria",
		"slug":                 "valoria",
		"baselinePopulation":   1_000_000.0,
		"baselineGdpPerCapita": 25_000.0,
	})

	repo := newMemCountryRepo()
	im := New(repo, tierClassifier{cfg: engine.DefaultTierConfig()})

	created, skipped, err := im.ImportFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, created)
	assert.Equal(t, 0, skipped)

	created, skipped, err = im.ImportFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 0, created)
	assert.Equal(t, 1, skipped)
}

func TestImportFileMissing(t *testing.T) {
	im := New(newMemCountryRepo(), tierClassifier{cfg: engine.DefaultTierConfig()})
	_, _, err := im.ImportFile(context.Background(), filepath.Join(t.TempDir(), "nope.bson"))
	require.Error(t, err)
}
