package services

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/cipelem/pengaduan-server/internal/lifecycle"
	"github.com/cipelem/pengaduan-server/internal/models"
	"github.com/cipelem/pengaduan-server/internal/store"
	"go.uber.org/zap"
)

// CategoryService manages the complaint taxonomy
type CategoryService struct {
	store  store.CategoryStore
	logger *zap.SugaredLogger
}

// NewCategoryService creates a new category service
func NewCategoryService(st store.CategoryStore, logger *zap.SugaredLogger) *CategoryService {
	return &CategoryService{store: st, logger: logger}
}

// CategoryInput is the request body for creating or editing a category.
// IsActive is only honored on update.
type CategoryInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
	Icon        string `json:"icon" validate:"max=50"`
	Color       string `json:"color" validate:"max=50"`
	IsActive    *bool  `json:"is_active,omitempty"`
}

// List returns every category, active or not
func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, storeErr("list categories", "categories", "", err)
	}
	return categories, nil
}

// Create adds a category. Admin only.
func (s *CategoryService) Create(ctx context.Context, actor models.Actor, in CategoryInput) (*models.Category, error) {
	if err := lifecycle.RequireAdmin(actor, "create categories"); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := lifecycle.CheckStruct(in); err != nil {
		return nil, err
	}

	c := &models.Category{
		Name:        in.Name,
		Slug:        models.Slugify(in.Name),
		Description: in.Description,
		Icon:        in.Icon,
		Color:       in.Color,
		IsActive:    true,
	}
	if err := s.store.InsertCategory(ctx, c); err != nil {
		if errors.Is(err, store.ErrDuplicateSlug) {
			return nil, &lifecycle.ValidationError{Field: "name", Message: "a category with slug " + c.Slug + " already exists"}
		}
		return nil, storeErr("insert category", "category", c.Slug, err)
	}

	s.logger.Infow("Category created", "id", c.ID, "slug", c.Slug, "by", actor.Email)
	return c, nil
}

// Update edits a category and re-derives its slug. Admin only.
func (s *CategoryService) Update(ctx context.Context, actor models.Actor, id int64, in CategoryInput) (*models.Category, error) {
	if err := lifecycle.RequireAdmin(actor, "edit categories"); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := lifecycle.CheckStruct(in); err != nil {
		return nil, err
	}

	c, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return nil, storeErr("get category", "category", strconv.FormatInt(id, 10), err)
	}
	c.Name = in.Name
	c.Slug = models.Slugify(in.Name)
	c.Description = in.Description
	c.Icon = in.Icon
	c.Color = in.Color
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}

	if err := s.store.UpdateCategory(ctx, c); err != nil {
		if errors.Is(err, store.ErrDuplicateSlug) {
			return nil, &lifecycle.ValidationError{Field: "name", Message: "a category with slug " + c.Slug + " already exists"}
		}
		return nil, storeErr("update category", "category", strconv.FormatInt(id, 10), err)
	}

	s.logger.Infow("Category updated", "id", c.ID, "slug", c.Slug, "active", c.IsActive, "by", actor.Email)
	return c, nil
}

// Deactivate stops a category from accepting new complaints. Admin only.
func (s *CategoryService) Deactivate(ctx context.Context, actor models.Actor, id int64) (*models.Category, error) {
	if err := lifecycle.RequireAdmin(actor, "deactivate categories"); err != nil {
		return nil, err
	}
	c, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return nil, storeErr("get category", "category", strconv.FormatInt(id, 10), err)
	}
	c.IsActive = false
	if err := s.store.UpdateCategory(ctx, c); err != nil {
		return nil, storeErr("update category", "category", strconv.FormatInt(id, 10), err)
	}
	s.logger.Infow("Category deactivated", "id", c.ID, "by", actor.Email)
	return c, nil
}

// Delete removes a category no complaint references. Admin only.
// A referenced category must be deactivated instead.
func (s *CategoryService) Delete(ctx context.Context, actor models.Actor, id int64) error {
	if err := lifecycle.RequireAdmin(actor, "delete categories"); err != nil {
		return err
	}
	err := s.store.DeleteCategory(ctx, id)
	if errors.Is(err, store.ErrCategoryInUse) {
		return &lifecycle.ValidationError{Field: "id", Message: "category is referenced by complaints, deactivate it instead"}
	}
	if err != nil {
		return storeErr("delete category", "category", strconv.FormatInt(id, 10), err)
	}
	s.logger.Infow("Category deleted", "id", id, "by", actor.Email)
	return nil
}
