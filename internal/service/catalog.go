package service

import (
	"context"
	"encoding/json"

	"saggita/internal/models"
)

type locationLister interface {
	locationReader
	ListActive(ctx context.Context) ([]models.Location, error)
}

// CatalogService builds the public offer page: locations, groups with live
// availability, weekly slots and price plans. The rendered catalog is cached
// briefly; capacity decisions never read the cache.
type CatalogService struct {
	locations locationLister
	groups    groupReader
	plans     planReader
	cache     CatalogCache
}

func NewCatalogService(locations locationLister, groups groupReader, plans planReader, cache CatalogCache) *CatalogService {
	return &CatalogService{
		locations: locations,
		groups:    groups,
		plans:     plans,
		cache:     cache,
	}
}

func (s *CatalogService) Catalog(ctx context.Context) (*models.CatalogResponse, error) {
	log := logFrom(ctx)

	if s.cache != nil {
		if raw, err := s.cache.GetCatalogRaw(ctx); err == nil {
			var cached models.CatalogResponse
			if err := json.Unmarshal(raw, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	locations, err := s.locations.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	groups, err := s.groups.ListWithOccupancy(ctx, true)
	if err != nil {
		return nil, err
	}
	schedules, err := s.groups.ListActiveSchedules(ctx)
	if err != nil {
		return nil, err
	}
	plans, err := s.plans.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	byGroup := make(map[int64][]models.Schedule)
	for _, sc := range schedules {
		byGroup[sc.GroupID] = append(byGroup[sc.GroupID], sc)
	}

	byLocation := make(map[int64][]models.CatalogGroup)
	for _, g := range groups {
		cg := models.CatalogGroup{
			Group:      g.Group,
			Registered: g.Registered,
			Schedules:  byGroup[g.ID],
		}
		if g.MaxCapacity != nil {
			available := *g.MaxCapacity - g.Registered
			if available < 0 {
				available = 0
			}
			cg.Available = &available
		}
		if g.LocationID != nil {
			byLocation[*g.LocationID] = append(byLocation[*g.LocationID], cg)
		}
	}

	response := &models.CatalogResponse{
		Locations: make([]models.CatalogLocation, 0, len(locations)),
		Plans:     plans,
	}
	for _, loc := range locations {
		response.Locations = append(response.Locations, models.CatalogLocation{
			Location: loc,
			Groups:   byLocation[loc.ID],
		})
	}

	if s.cache != nil {
		if err := s.cache.SetCatalog(ctx, response); err != nil {
			log.Warn("Failed to cache catalog", "error", err)
		}
	}

	return response, nil
}

// Invalidate drops the cached catalog after an administrative change
func (s *CatalogService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateCatalog(ctx); err != nil {
		logFrom(ctx).Warn("Failed to invalidate catalog cache", "error", err)
	}
}
