package handlers

import (
	"github.com/jmoiron/sqlx"

	"alugserv/internal/config"
	"alugserv/internal/repos"
	"alugserv/internal/services"
	"alugserv/internal/storage"
	"alugserv/internal/woocommerce"
)

type Deps struct {
	Auth  *services.AuthService
	Users *services.UserService

	AuthHandler      *AuthHandler
	CategoryHandler  *CategoryHandler
	EquipmentHandler *EquipmentHandler
	UserHandler      *UserHandler
	AdminHandler     *AdminHandler
	// LegacyHandler is nil unless a WooCommerce store is configured.
	LegacyHandler *LegacyHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config) *Deps {
	userRepo := repos.NewUserRepo(db)
	sessRepo := repos.NewSessionRepo(db)
	catRepo := repos.NewCategoryRepo(db)
	eqRepo := repos.NewEquipmentRepo(db)
	actRepo := repos.NewActivityRepo(db)

	uploads := storage.NewLocal(cfg.UploadDir, cfg.UploadURL, cfg.UploadMaxBytes)

	activity := services.NewActivityService(actRepo)
	authSvc := services.NewAuthService(userRepo, sessRepo, activity, cfg.SessionTTL)
	catSvc := services.NewCategoryService(catRepo, uploads, activity)
	eqSvc := services.NewEquipmentService(eqRepo, catRepo, uploads, activity)
	userSvc := services.NewUserService(userRepo, activity)

	d := &Deps{
		Auth:             authSvc,
		Users:            userSvc,
		AuthHandler:      &AuthHandler{Auth: authSvc},
		CategoryHandler:  &CategoryHandler{Cats: catSvc, Auth: authSvc, Uploads: uploads},
		EquipmentHandler: &EquipmentHandler{Equipments: eqSvc, Auth: authSvc, Uploads: uploads, PerPage: cfg.ItemsPerPage},
		UserHandler:      &UserHandler{Users: userSvc},
		AdminHandler: &AdminHandler{
			Dashboard: &services.DashboardService{Equipments: eqRepo, Cats: catRepo},
			Sync:      services.NewCategorySync(eqRepo, catRepo, activity),
		},
	}
	if cfg.WooCommerce.Enabled() {
		d.LegacyHandler = &LegacyHandler{Woo: woocommerce.New(cfg.WooCommerce), PerPage: cfg.ItemsPerPage}
	}
	return d
}
