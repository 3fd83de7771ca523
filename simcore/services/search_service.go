package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sahilm/fuzzy"
	"github.com/statecraft/ixsim/simcore/database/repositories"
)

const searchIndexTTL = 5 * time.Minute

// CountrySearchItems implements fuzzy.Source for country searching
type CountrySearchItems []CountrySearchItem

// CountrySearchItem represents a single searchable country
type CountrySearchItem struct {
	ID   string
	Name string
}

func (items CountrySearchItems) Len() int {
	return len(items)
}

func (items CountrySearchItems) String(i int) string {
	return items[i].Name
}

// SearchService resolves country names for the administrative surface's
// lookups via fuzzy matching over an in-memory index refreshed from the
// repository.
type SearchService struct {
	countries repositories.CountryRepository

	mu        sync.RWMutex
	index     CountrySearchItems
	refreshed time.Time
}

func NewSearchService(countries repositories.CountryRepository) *SearchService {
	return &SearchService{countries: countries}
}

// Match is one ranked search result.
type Match struct {
	CountryID string
	Name      string
	Score     int
}

// Search returns countries ranked by fuzzy relevance to the query. An exact
// id or name hit short-circuits at the top.
func (s *SearchService) Search(ctx context.Context, query string, limit int) ([]Match, error) {
	if err := s.refreshIndex(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	normalized := strings.ToLower(query)
	for _, item := range s.index {
		if item.ID == normalized || strings.EqualFold(item.Name, query) {
			return []Match{{CountryID: item.ID, Name: item.Name, Score: len(item.Name)}}, nil
		}
	}

	matches := fuzzy.FindFrom(normalized, s.index)
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	results := make([]Match, 0, len(matches))
	for _, m := range matches {
		item := s.index[m.Index]
		results = append(results, Match{CountryID: item.ID, Name: item.Name, Score: m.Score})
	}
	return results, nil
}

func (s *SearchService) refreshIndex(ctx context.Context) error {
	s.mu.RLock()
	fresh := time.Since(s.refreshed) < searchIndexTTL && s.index != nil
	s.mu.RUnlock()
	if fresh {
		return nil
	}

	countries, err := s.countries.GetAll(ctx)
	if err != nil {
		return err
	}

	index := make(CountrySearchItems, 0, len(countries))
	for _, c := range countries {
		index = append(index, CountrySearchItem{ID: c.ID, Name: c.Name})
	}

	s.mu.Lock()
	s.index = index
	s.refreshed = time.Now()
	s.mu.Unlock()
	return nil
}
