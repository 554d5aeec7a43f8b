package services

import (
	"context"

	"alugserv/internal/apperr"
	"alugserv/internal/domain"
	"alugserv/internal/repos"
)

const recentEquipments = 5

type RecentEquipment struct {
	ID        int64   `json:"id"`
	Title     string  `json:"title"`
	Category  *string `json:"category"`
	Status    string  `json:"status"`
	CreatedAt string  `json:"created_at"`
}

type Dashboard struct {
	TotalEquipments     int               `json:"totalEquipments"`
	AvailableEquipments int               `json:"availableEquipments"`
	TotalCategories     int               `json:"totalCategories"`
	TotalContacts       int               `json:"totalContacts"`
	RecentEquipments    []RecentEquipment `json:"recentEquipments"`
}

type DashboardService struct {
	Equipments *repos.EquipmentRepo
	Cats       *repos.CategoryRepo
}

func (s *DashboardService) Summary(ctx context.Context) (Dashboard, error) {
	var d Dashboard
	var err error
	if d.TotalEquipments, err = s.Equipments.Count(ctx, ""); err != nil {
		return d, apperr.Internal(err)
	}
	if d.AvailableEquipments, err = s.Equipments.Count(ctx, domain.StatusActive); err != nil {
		return d, apperr.Internal(err)
	}
	if d.TotalCategories, err = s.Cats.Count(ctx); err != nil {
		return d, apperr.Internal(err)
	}
	recent, err := s.Equipments.Recent(ctx, recentEquipments)
	if err != nil {
		return d, apperr.Internal(err)
	}
	d.RecentEquipments = make([]RecentEquipment, 0, len(recent))
	for _, e := range recent {
		d.RecentEquipments = append(d.RecentEquipments, RecentEquipment{
			ID: e.ID, Title: e.Name, Category: e.CategoryName, Status: e.Status, CreatedAt: e.CreatedAt,
		})
	}
	return d, nil
}
