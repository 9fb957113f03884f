// Package stats derives the per-user todo statistics and caches them.
package stats

import (
	"context"
	"math"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"todo-api/internal/models"
	"todo-api/pkg/logger"
)

// Source runs the aggregate queries.
type Source interface {
	TodoCounts(ctx context.Context, userID string, now, todayStart, weekStart time.Time) (models.TodoCounts, error)
	CategoryCounts(ctx context.Context, userID string) (map[string]models.CategoryStats, error)
}

// Cache stores computed stats per user. Implementations treat failures as misses.
//
// Get also returns the user's current generation. Set stamps the entry with the
// generation read before computing, and Get only returns entries stamped with the
// current one; Invalidate moves the generation on.
type Cache interface {
	Get(ctx context.Context, userID string) (s *models.Stats, gen int64, ok bool)
	Set(ctx context.Context, userID string, gen int64, s *models.Stats)
	Invalidate(ctx context.Context, userID string)
}

// Aggregator computes stats, serving repeated requests from the cache.
type Aggregator struct {
	source Source
	cache  Cache
	loc    *time.Location
	now    func() time.Time
	group  singleflight.Group

	mu    sync.Mutex
	local map[string]uint64 // per-user invalidations seen by this process
}

// NewAggregator returns an Aggregator; cache may be nil.
func NewAggregator(src Source, cache Cache, loc *time.Location) *Aggregator {
	if loc == nil {
		loc = time.UTC
	}
	return &Aggregator{source: src, cache: cache, loc: loc, now: time.Now, local: map[string]uint64{}}
}

// Windows returns local midnight of today and Monday 00:00 of the current week.
func Windows(now time.Time, loc *time.Location) (todayStart, weekStart time.Time) {
	n := now.In(loc)
	todayStart = time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, loc)
	offset := (int(todayStart.Weekday()) + 6) % 7
	weekStart = todayStart.AddDate(0, 0, -offset)
	return todayStart, weekStart
}

// CompletionRate is completed/total as a percentage rounded to two decimals, 0 for no todos.
func CompletionRate(completed, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(completed)/float64(total)*100*100) / 100
}

// Get returns the caller's stats, computing them at most once at a time per user.
// A request that arrives after Invalidate never joins a computation started before it.
func (a *Aggregator) Get(ctx context.Context, userID string) (*models.Stats, error) {
	var gen int64
	if a.cache != nil {
		s, g, ok := a.cache.Get(ctx, userID)
		if ok {
			return s, nil
		}
		gen = g
	}
	key := userID + "@" + strconv.FormatUint(a.localGen(userID), 10)
	v, err, shared := a.group.Do(key, func() (interface{}, error) {
		s, err := a.Compute(context.WithoutCancel(ctx), userID)
		if err != nil {
			return nil, err
		}
		if a.cache != nil {
			a.cache.Set(ctx, userID, gen, s)
		}
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		logger.Debug(ctx, "Stats computation shared", "user_id", userID)
	}
	return v.(*models.Stats), nil
}

// Compute runs the aggregate queries without touching the cache.
func (a *Aggregator) Compute(ctx context.Context, userID string) (*models.Stats, error) {
	now := a.now()
	todayStart, weekStart := Windows(now, a.loc)

	counts, err := a.source.TodoCounts(ctx, userID, now, todayStart, weekStart)
	if err != nil {
		return nil, err
	}
	cats, err := a.source.CategoryCounts(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cats == nil {
		cats = map[string]models.CategoryStats{}
	}
	return &models.Stats{
		TotalTodos:      counts.Total,
		CompletedTodos:  counts.Completed,
		PendingTodos:    counts.Total - counts.Completed,
		CompletionRate:  CompletionRate(counts.Completed, counts.Total),
		OverdueTodos:    counts.Overdue,
		TodayCompleted:  counts.TodayCompleted,
		WeekCompleted:   counts.WeekCompleted,
		CategoriesStats: cats,
	}, nil
}

// Invalidate drops the caller's cached stats.
func (a *Aggregator) Invalidate(ctx context.Context, userID string) {
	a.mu.Lock()
	a.local[userID]++
	a.mu.Unlock()
	if a.cache != nil {
		a.cache.Invalidate(ctx, userID)
	}
}

func (a *Aggregator) localGen(userID string) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.local[userID]
}
