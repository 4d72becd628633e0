package service

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/tutorlane/tutorhub-api/internal/models"
	appErrors "github.com/tutorlane/tutorhub-api/pkg/errors"
)

type moduleCatalogRepository interface {
	ListActive(ctx context.Context) ([]models.LearningModule, error)
}

type orderingCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// ModuleOrderingService produces a per-student ordering of the learning
// module catalog. The order is deterministic for a given student so repeated
// visits see a stable hub layout, and it is cached with a long TTL since the
// catalog rarely changes.
type ModuleOrderingService struct {
	modules moduleCatalogRepository
	cache   orderingCache
	logger  *zap.Logger
	ttl     time.Duration
	enabled bool
}

// NewModuleOrderingService constructs the service. ttl falls back to 24h.
func NewModuleOrderingService(modules moduleCatalogRepository, cache orderingCache, logger *zap.Logger, ttl time.Duration, enabled bool) *ModuleOrderingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &ModuleOrderingService{modules: modules, cache: cache, logger: logger, ttl: ttl, enabled: enabled}
}

// OrderForStudent returns the active module catalog ordered for one student.
// When personalization is disabled the catalog order (position, then title)
// is returned unchanged.
func (s *ModuleOrderingService) OrderForStudent(ctx context.Context, studentID string) ([]models.LearningModule, error) {
	cacheKey := fmt.Sprintf("module_order:%s", studentID)
	if s.cache != nil && s.enabled {
		var cached []models.LearningModule
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("module order cache read failed", zap.String("student_id", studentID), zap.Error(err))
		}
	}

	catalog, err := s.modules.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load module catalog")
	}

	ordered := make([]models.LearningModule, len(catalog))
	copy(ordered, catalog)
	if s.enabled {
		sort.SliceStable(ordered, func(i, j int) bool {
			return moduleRank(studentID, ordered[i].Slug) < moduleRank(studentID, ordered[j].Slug)
		})
	} else {
		sort.SliceStable(ordered, func(i, j int) bool {
			if ordered[i].Position != ordered[j].Position {
				return ordered[i].Position < ordered[j].Position
			}
			return ordered[i].Title < ordered[j].Title
		})
	}

	if s.cache != nil && s.enabled {
		if err := s.cache.Set(ctx, cacheKey, ordered, s.ttl); err != nil {
			s.logger.Warn("module order cache write failed", zap.String("student_id", studentID), zap.Error(err))
		}
	}
	return ordered, nil
}

// moduleRank hashes the student and module identity together so each student
// gets their own stable shuffle of the catalog.
func moduleRank(studentID, slug string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(studentID))
	h.Write([]byte{0})
	h.Write([]byte(slug))
	return h.Sum64()
}
