package service

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/vibast-solutions/ms-go-mailings/app/entity"
	"github.com/vibast-solutions/ms-go-mailings/app/repository"
)

const (
	indexCacheKey = "index"
	indexArticles = 3
)

// StatsService serves the landing page figures. Results are cached for the
// configured TTL, so counts may lag behind writes by up to that long.
type StatsService struct {
	stats *repository.StatsRepository
	cache *gocache.Cache
}

// NewStatsService builds the stats service with an in-process cache.
func NewStatsService(stats *repository.StatsRepository, ttl time.Duration) *StatsService {
	return &StatsService{
		stats: stats,
		cache: gocache.New(ttl, 2*ttl),
	}
}

// Index returns the landing page statistics.
func (s *StatsService) Index(ctx context.Context) (entity.IndexStats, error) {
	if cached, ok := s.cache.Get(indexCacheKey); ok {
		return cached.(entity.IndexStats), nil
	}

	total, active, err := s.stats.MailingCounts(ctx)
	if err != nil {
		return entity.IndexStats{}, fmt.Errorf("count mailings: %w", err)
	}
	clients, err := s.stats.UniqueClientEmails(ctx)
	if err != nil {
		return entity.IndexStats{}, fmt.Errorf("count clients: %w", err)
	}
	articles, err := s.stats.RecentArticles(ctx, indexArticles)
	if err != nil {
		return entity.IndexStats{}, fmt.Errorf("load articles: %w", err)
	}

	out := entity.IndexStats{
		TotalMailings:  total,
		ActiveMailings: active,
		UniqueClients:  clients,
		Articles:       articles,
	}
	s.cache.SetDefault(indexCacheKey, out)
	return out, nil
}
