package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"alugserv/internal/apperr"
	"alugserv/internal/domain"
	applog "alugserv/internal/log"
	"alugserv/internal/repos"
	"alugserv/internal/slug"
	"alugserv/internal/validate"
)

// slugAttempts bounds the retry-with-suffix loop on slug conflicts.
const slugAttempts = 5

// FileRemover deletes stored uploads by their public path.
type FileRemover interface {
	Delete(publicPath string) error
}

type fileRefs interface {
	FileInUse(ctx context.Context, publicPath string) (bool, error)
}

type categoryFields struct {
	Name string `json:"name" validate:"required"`
}

type CategoryInput struct {
	Name        Opt[string]
	Slug        Opt[string]
	Description Opt[string]
	Image       Opt[*string]
	Icon        Opt[string]
	// ParentID 0 detaches the category from its parent.
	ParentID  Opt[int64]
	SortOrder Opt[int]
	Status    Opt[string]
}

type CategoryService struct {
	Cats     *repos.CategoryRepo
	Files    FileRemover
	Activity *ActivityService
	Now      func() time.Time
}

func NewCategoryService(cats *repos.CategoryRepo, files FileRemover, activity *ActivityService) *CategoryService {
	return &CategoryService{Cats: cats, Files: files, Activity: activity, Now: time.Now}
}

var errCategoryNotFound = apperr.NotFound("Category not found")

func (s *CategoryService) List(ctx context.Context, f repos.CategoryFilter) ([]domain.Category, error) {
	out, err := s.Cats.List(ctx, f)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

func (s *CategoryService) Get(ctx context.Context, id int64) (domain.Category, error) {
	c, err := s.Cats.ByID(ctx, id)
	return c, lookupErr(err, errCategoryNotFound)
}

// GetBySlug only resolves active categories.
func (s *CategoryService) GetBySlug(ctx context.Context, sl string) (domain.Category, error) {
	c, err := s.Cats.BySlug(ctx, sl, true)
	return c, lookupErr(err, errCategoryNotFound)
}

func (s *CategoryService) Create(ctx context.Context, in CategoryInput, a Actor) (id int64, err error) {
	defer func() {
		if err != nil {
			s.discard(ctx, in.Image.V)
		}
	}()

	name := validate.Clean(in.Name.V)
	if err := validate.Struct(categoryFields{Name: name}); err != nil {
		return 0, err
	}
	c := domain.Category{
		Name:        name,
		Description: in.Description.V,
		Image:       in.Image.V,
		Icon:        validate.Clean(in.Icon.V),
		SortOrder:   in.SortOrder.V,
		Status:      in.Status.Or(domain.StatusActive),
	}
	if !validate.OneOf(c.Status, domain.StatusActive, domain.StatusInactive) {
		return 0, apperr.Validation("status must be active or inactive")
	}
	if in.ParentID.Set && in.ParentID.V > 0 {
		if err := s.checkParent(ctx, in.ParentID.V); err != nil {
			return 0, err
		}
		c.ParentID = idPtr(in.ParentID.V)
	}

	base := slug.Make(name)
	if in.Slug.Set && strings.TrimSpace(in.Slug.V) != "" {
		base = slug.Make(in.Slug.V)
	}
	id, err = withSlug(base, s.clock(), func(sl string) (int64, error) {
		c.Slug = sl
		return s.Cats.Insert(ctx, c)
	})
	if err != nil {
		return 0, err
	}
	s.Activity.Record(ctx, a, "create", EntityCategory, idPtr(id), "Category created: "+name)
	return id, nil
}

func (s *CategoryService) Update(ctx context.Context, id int64, in CategoryInput, a Actor) (err error) {
	defer func() {
		if err != nil {
			s.discard(ctx, in.Image.V)
		}
	}()

	cur, err := s.Cats.ByID(ctx, id)
	if err != nil {
		return lookupErr(err, errCategoryNotFound)
	}
	next := cur
	if in.Name.Set {
		next.Name = validate.Clean(in.Name.V)
	}
	if err := validate.Struct(categoryFields{Name: next.Name}); err != nil {
		return err
	}
	next.Description = in.Description.Or(cur.Description)
	next.Icon = validate.Clean(in.Icon.Or(cur.Icon))
	next.SortOrder = in.SortOrder.Or(cur.SortOrder)
	next.Status = in.Status.Or(cur.Status)
	if !validate.OneOf(next.Status, domain.StatusActive, domain.StatusInactive) {
		return apperr.Validation("status must be active or inactive")
	}
	if in.ParentID.Set {
		switch p := in.ParentID.V; {
		case p <= 0:
			next.ParentID = nil
		case p == id:
			return apperr.Validation("a category cannot be its own parent")
		default:
			if err := s.checkParent(ctx, p); err != nil {
				return err
			}
			next.ParentID = idPtr(p)
		}
	}
	if in.Image.Set {
		next.Image = in.Image.V
	}

	base := cur.Slug
	if in.Slug.Set && strings.TrimSpace(in.Slug.V) != "" && in.Slug.V != cur.Slug {
		base = slug.Make(in.Slug.V)
	}
	_, err = withSlug(base, s.clock(), func(sl string) (int64, error) {
		next.Slug = sl
		return id, s.Cats.Update(ctx, next)
	})
	if err != nil {
		return err
	}
	if in.Image.Set && cur.Image != nil && (next.Image == nil || *next.Image != *cur.Image) {
		s.discard(ctx, cur.Image)
	}
	s.Activity.Record(ctx, a, "update", EntityCategory, idPtr(id), "Category updated: "+next.Name)
	return nil
}

// Delete refuses while any equipment still references the category.
func (s *CategoryService) Delete(ctx context.Context, id int64, a Actor) error {
	cur, err := s.Cats.ByID(ctx, id)
	if err != nil {
		return lookupErr(err, errCategoryNotFound)
	}
	n, err := s.Cats.CountEquipments(ctx, id)
	if err != nil {
		return apperr.Internal(err)
	}
	if n > 0 {
		return apperr.Validation("Cannot delete: %d equipment(s) in this category", n)
	}
	if err := s.Cats.Delete(ctx, id); err != nil {
		return apperr.Internal(err)
	}
	s.discard(ctx, cur.Image)
	s.Activity.Record(ctx, a, "delete", EntityCategory, idPtr(id), "Category deleted: "+cur.Name)
	return nil
}

func (s *CategoryService) checkParent(ctx context.Context, id int64) error {
	ok, err := s.Cats.Exists(ctx, id)
	if err != nil {
		return apperr.Internal(err)
	}
	if !ok {
		return apperr.Validation("parent category not found")
	}
	return nil
}

func (s *CategoryService) clock() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *CategoryService) discard(ctx context.Context, path *string) {
	removeFile(ctx, s.Files, s.Cats, path)
}

// removeFile deletes the stored file at path once no row references it.
// Paths are client input, so one record may list another's upload.
func removeFile(ctx context.Context, files FileRemover, refs fileRefs, path *string) {
	if files == nil || path == nil || *path == "" {
		return
	}
	used, err := refs.FileInUse(ctx, *path)
	if err != nil {
		applog.L().Warn("upload.delete.fail", zap.String("path", *path), zap.Error(err))
		return
	}
	if used {
		return
	}
	if err := files.Delete(*path); err != nil {
		applog.L().Warn("upload.delete.fail", zap.String("path", *path), zap.Error(err))
	}
}

// withSlug runs write with base, then suffixed candidates, while the slug
// unique key rejects it.
func withSlug(base string, now time.Time, write func(slug string) (int64, error)) (int64, error) {
	for attempt := 0; attempt < slugAttempts; attempt++ {
		id, err := write(slug.Candidate(base, attempt, now))
		if err == nil {
			return id, nil
		}
		if !repos.IsDuplicate(err, "slug") {
			return 0, apperr.Internal(err)
		}
	}
	return 0, apperr.Validation("slug %q is already in use", base)
}

// lookupErr maps a repository lookup error to notFound or 500.
func lookupErr(err, notFound error) error {
	switch {
	case err == nil:
		return nil
	case repos.IsNotFound(err):
		return notFound
	default:
		return apperr.Internal(fmt.Errorf("lookup: %w", err))
	}
}
