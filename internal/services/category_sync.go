package services

import (
	"context"
	"fmt"
	"strings"

	"alugserv/internal/apperr"
	"alugserv/internal/domain"
	"alugserv/internal/repos"
	"alugserv/internal/slug"
)

// Keyword maps a term found in an equipment's name or description to the
// slug of the category it belongs to.
type Keyword struct {
	Term     string
	Category string
}

// DefaultKeywords is checked in order; the first hit whose category exists wins.
var DefaultKeywords = []Keyword{
	{"andaime", "andaimes"}, {"andaimes", "andaimes"}, {"torre", "andaimes"},
	{"plataforma", "andaimes"}, {"scaffolding", "andaimes"},

	{"betoneira", "betoneiras"}, {"misturador", "betoneiras"}, {"concreto", "betoneiras"},

	{"compactador", "compactadores"}, {"compactadora", "compactadores"}, {"sapo", "compactadores"},
	{"placa vibratória", "compactadores"}, {"rolo compactador", "compactadores"},

	{"gerador", "geradores"}, {"geradores", "geradores"}, {"grupo gerador", "geradores"},
	{"energia", "geradores"},

	{"martelete", "marteletes"}, {"rompedor", "marteletes"}, {"demolição", "marteletes"},
	{"demolidor", "marteletes"}, {"martelo", "marteletes"},

	{"serra", "serras"}, {"cortadora", "serras"}, {"corte", "serras"}, {"disco", "serras"},

	{"bomba", "bombas"}, {"submersível", "bombas"}, {"água", "bombas"}, {"esgotamento", "bombas"},

	{"elevador", "elevadores"}, {"guincho", "elevadores"}, {"talha", "elevadores"},

	{"vibrador", "vibradores"}, {"mangote", "vibradores"},

	{"escoramento", "escoramento"}, {"escora", "escoramento"},

	{"container", "containers"}, {"contêiner", "containers"},

	{"epi", "seguranca"}, {"capacete", "seguranca"}, {"cinto", "seguranca"}, {"trava queda", "seguranca"},

	{"furadeira", "ferramentas"}, {"lixadeira", "ferramentas"}, {"esmerilhadeira", "ferramentas"},
	{"parafusadeira", "ferramentas"},

	{"compressor", "compressores"}, {"ar comprimido", "compressores"},
}

type SyncSummary struct {
	Total          int `json:"total"`
	Updated        int `json:"updated"`
	AlreadyCorrect int `json:"already_correct"`
	NoMatch        int `json:"no_match"`
}

type SyncDetail struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Status        string `json:"status"`
	Matched       string `json:"keyword_matched,omitempty"`
	OldCategoryID int64  `json:"old_category_id"`
	NewCategoryID int64  `json:"new_category_id,omitempty"`
	NewCategory   string `json:"new_category_slug,omitempty"`
}

type SyncReport struct {
	Summary SyncSummary  `json:"summary"`
	Details []SyncDetail `json:"details"`
}

// CategorySync reassigns equipments to categories by keyword.
type CategorySync struct {
	Equipments *repos.EquipmentRepo
	Cats       *repos.CategoryRepo
	Activity   *ActivityService
	Keywords   []Keyword
}

func NewCategorySync(eqs *repos.EquipmentRepo, cats *repos.CategoryRepo, activity *ActivityService) *CategorySync {
	return &CategorySync{Equipments: eqs, Cats: cats, Activity: activity, Keywords: DefaultKeywords}
}

func (s *CategorySync) Run(ctx context.Context, a Actor) (SyncReport, error) {
	cats, err := s.Cats.List(ctx, repos.CategoryFilter{Status: domain.StatusActive})
	if err != nil {
		return SyncReport{}, apperr.Internal(err)
	}
	bySlug := make(map[string]domain.Category, len(cats))
	for _, c := range cats {
		bySlug[c.Slug] = c
	}
	eqs, err := s.Equipments.All(ctx, repos.EquipmentFilter{})
	if err != nil {
		return SyncReport{}, apperr.Internal(err)
	}

	rep := SyncReport{Summary: SyncSummary{Total: len(eqs)}, Details: []SyncDetail{}}
	for _, e := range eqs {
		cat, matched, ok := s.match(slug.Fold(e.Name+" "+e.Description), cats, bySlug)
		switch {
		case !ok:
			rep.Summary.NoMatch++
			rep.Details = append(rep.Details, SyncDetail{ID: e.ID, Name: e.Name, Status: "no_match", OldCategoryID: e.CategoryID})
		case cat.ID == e.CategoryID:
			rep.Summary.AlreadyCorrect++
		default:
			if err := s.Equipments.SetCategory(ctx, e.ID, cat.ID); err != nil {
				return rep, apperr.Internal(err)
			}
			rep.Summary.Updated++
			rep.Details = append(rep.Details, SyncDetail{
				ID: e.ID, Name: e.Name, Status: "updated", Matched: matched,
				OldCategoryID: e.CategoryID, NewCategoryID: cat.ID, NewCategory: cat.Slug,
			})
		}
	}
	s.Activity.Record(ctx, a, "sync_categories", EntityEquipment, nil,
		fmt.Sprintf("Category sync: %d updated, %d unchanged, %d unmatched",
			rep.Summary.Updated, rep.Summary.AlreadyCorrect, rep.Summary.NoMatch))
	return rep, nil
}

// match tries keywords first, then the category names themselves.
func (s *CategorySync) match(text string, cats []domain.Category, bySlug map[string]domain.Category) (domain.Category, string, bool) {
	for _, kw := range s.Keywords {
		if !strings.Contains(text, slug.Fold(kw.Term)) {
			continue
		}
		if c, ok := bySlug[kw.Category]; ok {
			return c, kw.Term, true
		}
	}
	for _, c := range cats {
		if name := slug.Fold(c.Name); name != "" && strings.Contains(text, name) {
			return c, c.Name, true
		}
	}
	return domain.Category{}, "", false
}
