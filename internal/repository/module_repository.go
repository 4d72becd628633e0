package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/tutorlane/tutorhub-api/internal/models"
)

// ModuleRepository provides read access to learning-hub modules.
type ModuleRepository struct {
	db *sqlx.DB
}

// NewModuleRepository creates a new module repository.
func NewModuleRepository(db *sqlx.DB) *ModuleRepository {
	return &ModuleRepository{db: db}
}

// ListActive returns active modules in their default position order.
func (r *ModuleRepository) ListActive(ctx context.Context) ([]models.LearningModule, error) {
	const query = `SELECT id, slug, title, subject, position, active, created_at, updated_at FROM learning_modules WHERE active = TRUE ORDER BY position ASC, slug ASC`
	var modules []models.LearningModule
	if err := r.db.SelectContext(ctx, &modules, query); err != nil {
		return nil, fmt.Errorf("list active modules: %w", err)
	}
	return modules, nil
}
