package services

import (
	"context"
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

var (
	PriceTypes    = []string{"hourly", domain.PriceDaily, "weekly", "monthly"}
	StockStatuses = []string{domain.StockAvailable, domain.StockUnavailable, "rented", "maintenance"}
)

type equipmentFields struct {
	Name       string `json:"name" validate:"required"`
	CategoryID int64  `json:"category_id" validate:"required,gt=0"`
}

type EquipmentInput struct {
	Name             Opt[string]
	Slug             Opt[string]
	Description      Opt[string]
	ShortDescription Opt[string]
	CategoryID       Opt[int64]
	Image            Opt[*string]
	Gallery          Opt[domain.Gallery]
	Price            Opt[*float64]
	PriceType        Opt[string]
	SKU              Opt[string]
	Brand            Opt[string]
	Model            Opt[string]
	Specs            Opt[domain.Specs]
	StockStatus      Opt[string]
	Featured         Opt[bool]
	SortOrder        Opt[int]
	Status           Opt[string]
}

// EquipmentQuery is one catalog read. At most one of ID, Slug, Category and
// Search is honoured, in that order of precedence.
type EquipmentQuery struct {
	ID       int64
	Slug     string
	Category string
	Search   string

	Status   string
	Featured *bool
	// Authenticated callers see every status unless Status is set.
	Authenticated bool
	Page          repos.Page
}

// EquipmentResult carries either one equipment or a page of them.
type EquipmentResult struct {
	Equipment  *domain.Equipment
	Equipments []domain.Equipment
	// Category is set for category listings; nil when the slug is unknown.
	Category    *domain.Category
	CategoryReq bool
	SearchTerm  string
	Pagination  repos.Pagination
}

type EquipmentService struct {
	Equipments *repos.EquipmentRepo
	Cats       *repos.CategoryRepo
	Files      FileRemover
	Activity   *ActivityService
	Now        func() time.Time
}

func NewEquipmentService(eqs *repos.EquipmentRepo, cats *repos.CategoryRepo, files FileRemover, activity *ActivityService) *EquipmentService {
	return &EquipmentService{Equipments: eqs, Cats: cats, Files: files, Activity: activity, Now: time.Now}
}

var (
	errEquipmentNotFound = apperr.NotFound("Equipment not found")
	errCategoryMissing   = apperr.Validation("Category not found")
)

// Find dispatches q to get-by-id, get-by-slug, by-category, search or list.
func (s *EquipmentService) Find(ctx context.Context, q EquipmentQuery) (EquipmentResult, error) {
	switch {
	case q.ID > 0:
		e, err := s.Get(ctx, q.ID)
		return EquipmentResult{Equipment: &e}, err
	case q.Slug != "":
		e, err := s.GetBySlug(ctx, q.Slug)
		return EquipmentResult{Equipment: &e}, err
	case q.Category != "":
		return s.ByCategory(ctx, q.Category, q.Page)
	case strings.TrimSpace(q.Search) != "":
		return s.Search(ctx, q.Search, q.Page)
	default:
		return s.List(ctx, q)
	}
}

func (s *EquipmentService) List(ctx context.Context, q EquipmentQuery) (EquipmentResult, error) {
	f := repos.EquipmentFilter{Status: q.Status, Featured: q.Featured}
	if f.Status == "" && !q.Authenticated {
		f.Status = domain.StatusActive
	}
	items, pg, err := s.Equipments.Page(ctx, f, q.Page)
	if err != nil {
		return EquipmentResult{}, apperr.Internal(err)
	}
	return EquipmentResult{Equipments: items, Pagination: pg}, nil
}

// ByCategory lists active equipments of an active category. An unknown slug
// is an empty result, not an error.
func (s *EquipmentService) ByCategory(ctx context.Context, categorySlug string, p repos.Page) (EquipmentResult, error) {
	c, err := s.Cats.BySlug(ctx, categorySlug, true)
	if err != nil {
		if repos.IsNotFound(err) {
			return EquipmentResult{
				Equipments:  []domain.Equipment{},
				CategoryReq: true,
				Pagination:  repos.Pagination{Page: 1, PerPage: p.PerPage},
			}, nil
		}
		return EquipmentResult{}, apperr.Internal(err)
	}
	f := repos.EquipmentFilter{Status: domain.StatusActive, CategoryID: &c.ID}
	items, pg, err := s.Equipments.Page(ctx, f, p)
	if err != nil {
		return EquipmentResult{}, apperr.Internal(err)
	}
	return EquipmentResult{Equipments: items, Category: &c, CategoryReq: true, Pagination: pg}, nil
}

func (s *EquipmentService) Search(ctx context.Context, term string, p repos.Page) (EquipmentResult, error) {
	term = validate.Clean(term)
	f := repos.EquipmentFilter{Status: domain.StatusActive, Search: term}
	items, pg, err := s.Equipments.Page(ctx, f, p)
	if err != nil {
		return EquipmentResult{}, apperr.Internal(err)
	}
	return EquipmentResult{Equipments: items, SearchTerm: term, Pagination: pg}, nil
}

// Get returns the equipment whatever its status and counts a view. The
// returned record shows the count before this view.
func (s *EquipmentService) Get(ctx context.Context, id int64) (domain.Equipment, error) {
	e, err := s.Equipments.ByID(ctx, id)
	if err != nil {
		return e, lookupErr(err, errEquipmentNotFound)
	}
	s.countView(ctx, e.ID)
	return e, nil
}

// GetBySlug resolves active equipments only and counts a view.
func (s *EquipmentService) GetBySlug(ctx context.Context, sl string) (domain.Equipment, error) {
	e, err := s.Equipments.BySlug(ctx, sl, true)
	if err != nil {
		return e, lookupErr(err, errEquipmentNotFound)
	}
	s.countView(ctx, e.ID)
	return e, nil
}

func (s *EquipmentService) countView(ctx context.Context, id int64) {
	if err := s.Equipments.IncrementViews(ctx, id); err != nil {
		applog.L().Warn("equipment.views.fail", zap.Int64("equipment_id", id), zap.Error(err))
	}
}

func (s *EquipmentService) Create(ctx context.Context, in EquipmentInput, a Actor) (id int64, err error) {
	defer func() {
		if err != nil {
			removeFile(ctx, s.Files, s.Equipments, in.Image.V)
		}
	}()

	name := validate.Clean(in.Name.V)
	if err := validate.Struct(equipmentFields{Name: name, CategoryID: in.CategoryID.V}); err != nil {
		return 0, err
	}
	if err := s.checkCategory(ctx, in.CategoryID.V); err != nil {
		return 0, err
	}
	e := domain.Equipment{
		Name:             name,
		Description:      in.Description.V,
		ShortDescription: validate.Clean(in.ShortDescription.V),
		CategoryID:       in.CategoryID.V,
		Image:            in.Image.V,
		Gallery:          in.Gallery.Or(domain.Gallery{}),
		Price:            in.Price.V,
		PriceType:        in.PriceType.Or(domain.PriceDaily),
		SKU:              validate.Clean(in.SKU.V),
		Brand:            validate.Clean(in.Brand.V),
		Model:            validate.Clean(in.Model.V),
		Specs:            in.Specs.Or(domain.Specs{}),
		StockStatus:      in.StockStatus.Or(domain.StockAvailable),
		Featured:         in.Featured.V,
		SortOrder:        in.SortOrder.V,
		Status:           in.Status.Or(domain.StatusActive),
	}
	if err := checkEnums(e); err != nil {
		return 0, err
	}

	base := slug.Make(name)
	if in.Slug.Set && strings.TrimSpace(in.Slug.V) != "" {
		base = slug.Make(in.Slug.V)
	}
	id, err = withSlug(base, s.clock(), func(sl string) (int64, error) {
		e.Slug = sl
		return s.Equipments.Insert(ctx, e)
	})
	if err != nil {
		return 0, err
	}
	s.Activity.Record(ctx, a, "create", EntityEquipment, idPtr(id), "Equipment created: "+name)
	return id, nil
}

// Update applies the set fields of in; gallery and specs are replaced as a
// whole when supplied.
func (s *EquipmentService) Update(ctx context.Context, id int64, in EquipmentInput, a Actor) (err error) {
	defer func() {
		if err != nil {
			removeFile(ctx, s.Files, s.Equipments, in.Image.V)
		}
	}()

	cur, err := s.Equipments.ByID(ctx, id)
	if err != nil {
		return lookupErr(err, errEquipmentNotFound)
	}
	next := cur
	if in.Name.Set {
		next.Name = validate.Clean(in.Name.V)
	}
	if err := validate.Struct(equipmentFields{Name: next.Name, CategoryID: in.CategoryID.Or(cur.CategoryID)}); err != nil {
		return err
	}
	if in.CategoryID.Set && in.CategoryID.V != cur.CategoryID {
		if err := s.checkCategory(ctx, in.CategoryID.V); err != nil {
			return err
		}
		next.CategoryID = in.CategoryID.V
	}
	next.Description = in.Description.Or(cur.Description)
	if in.ShortDescription.Set {
		next.ShortDescription = validate.Clean(in.ShortDescription.V)
	}
	if in.Image.Set {
		next.Image = in.Image.V
	}
	next.Gallery = in.Gallery.Or(cur.Gallery)
	next.Price = in.Price.Or(cur.Price)
	next.PriceType = in.PriceType.Or(cur.PriceType)
	if in.SKU.Set {
		next.SKU = validate.Clean(in.SKU.V)
	}
	if in.Brand.Set {
		next.Brand = validate.Clean(in.Brand.V)
	}
	if in.Model.Set {
		next.Model = validate.Clean(in.Model.V)
	}
	next.Specs = in.Specs.Or(cur.Specs)
	next.StockStatus = in.StockStatus.Or(cur.StockStatus)
	next.Featured = in.Featured.Or(cur.Featured)
	next.SortOrder = in.SortOrder.Or(cur.SortOrder)
	next.Status = in.Status.Or(cur.Status)
	if err := checkEnums(next); err != nil {
		return err
	}

	base := cur.Slug
	if in.Slug.Set && strings.TrimSpace(in.Slug.V) != "" && in.Slug.V != cur.Slug {
		base = slug.Make(in.Slug.V)
	}
	_, err = withSlug(base, s.clock(), func(sl string) (int64, error) {
		next.Slug = sl
		return id, s.Equipments.Update(ctx, next)
	})
	if err != nil {
		return err
	}
	if in.Image.Set && cur.Image != nil && (next.Image == nil || *next.Image != *cur.Image) {
		removeFile(ctx, s.Files, s.Equipments, cur.Image)
	}
	s.Activity.Record(ctx, a, "update", EntityEquipment, idPtr(id), "Equipment updated: "+next.Name)
	return nil
}

// Delete removes the equipment and its stored image files.
func (s *EquipmentService) Delete(ctx context.Context, id int64, a Actor) error {
	cur, err := s.Equipments.ByID(ctx, id)
	if err != nil {
		return lookupErr(err, errEquipmentNotFound)
	}
	if err := s.Equipments.Delete(ctx, id); err != nil {
		return apperr.Internal(err)
	}
	for _, f := range cur.Files() {
		removeFile(ctx, s.Files, s.Equipments, &f)
	}
	s.Activity.Record(ctx, a, "delete", EntityEquipment, idPtr(id), "Equipment deleted: "+cur.Name)
	return nil
}

func (s *EquipmentService) checkCategory(ctx context.Context, id int64) error {
	ok, err := s.Cats.Exists(ctx, id)
	if err != nil {
		return apperr.Internal(err)
	}
	if !ok {
		return errCategoryMissing
	}
	return nil
}

func (s *EquipmentService) clock() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func checkEnums(e domain.Equipment) error {
	switch {
	case !validate.OneOf(e.Status, domain.StatusActive, domain.StatusInactive):
		return apperr.Validation("status must be active or inactive")
	case !validate.OneOf(e.PriceType, PriceTypes...):
		return apperr.Validation("price_type must be one of %s", strings.Join(PriceTypes, ", "))
	case !validate.OneOf(e.StockStatus, StockStatuses...):
		return apperr.Validation("stock_status must be one of %s", strings.Join(StockStatuses, ", "))
	case e.Price != nil && *e.Price < 0:
		return apperr.Validation("price cannot be negative")
	}
	return nil
}
