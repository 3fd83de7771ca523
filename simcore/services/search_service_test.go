package services

import (
	"context"
	"testing"

	"github.com/statecraft/ixsim/simcore/database/models"
	"github.com/statecraft/ixsim/simcore/database/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

type staticCountryRepo struct {
	countries []*models.Country
	calls     int
}

func (r *staticCountryRepo) GetAll(context.Context) ([]*models.Country, error) {
	r.calls++
	return r.countries, nil
}

func (r *staticCountryRepo) GetByID(_ context.Context, id string) (*models.Country, error) {
	for _, c := range r.countries {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, repositories.ErrCountryNotFound
}

func (r *staticCountryRepo) GetAllIDs(context.Context) ([]string, error) {
	ids := make([]string, 0, len(r.countries))
	for _, c := range r.countries {
		ids = append(ids, c.ID)
	}
	return ids, nil
}

func (r *staticCountryRepo) Create(_ context.Context, c *models.Country) error {
	r.countries = append(r.countries, c)
	return nil
}

func (r *staticCountryRepo) UpdateSnapshotTx(context.Context, bun.Tx, *models.Country) error {
	return nil
}

func (r *staticCountryRepo) Count(context.Context) (int, error) {
	return len(r.countries), nil
}

func searchFixture() *staticCountryRepo {
	return &staticCountryRepo{countries: []*models.Country{
		{ID: "valoria", Name: "Valoria"},
		{ID: "novara-reach", Name: "Novara Reach"},
		{ID: "vel-tarim", Name: "Vel Tarim"},
	}}
}

func TestSearchExactMatchShortCircuits(t *testing.T) {
	s := NewSearchService(searchFixture())

	matches, err := s.Search(context.Background(), "Valoria", 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "valoria", matches[0].CountryID)

	// Exact id hits too, case-insensitively.
	matches, err = s.Search(context.Background(), "NOVARA-REACH", 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "novara-reach", matches[0].CountryID)
}

func TestSearchFuzzyRanking(t *testing.T) {
	s := NewSearchService(searchFixture())

	matches, err := s.Search(context.Background(), "valr", 10)
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.Equal(t, "valoria", matches[0].CountryID)
}

func TestSearchEmptyQuery(t *testing.T) {
	s := NewSearchService(searchFixture())

	matches, err := s.Search(context.Background(), "   ", 10)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestSearchLimit(t *testing.T) {
	s := NewSearchService(searchFixture())

	matches, err := s.Search(context.Background(), "a", 1)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(matches), 1)
}

func TestSearchIndexCachedWithinTTL(t *testing.T) {
	repo := searchFixture()
	s := NewSearchService(repo)

	_, err := s.Search(context.Background(), "valoria", 10)
	require.NoError(t, err)
	_, err = s.Search(context.Background(), "novara", 10)
	require.NoError(t, err)

	assert.Equal(t, 1, repo.calls)
}
