package services

import (
	"context"
	"unicode/utf8"

	"go.uber.org/zap"

	"alugserv/internal/domain"
	applog "alugserv/internal/log"
	"alugserv/internal/repos"
)

// Actor identifies who performed a mutation.
type Actor struct {
	UserID    *int64
	IP        string
	UserAgent string
}

// WithUser returns a copy of a attributed to id.
func (a Actor) WithUser(id int64) Actor {
	a.UserID = &id
	return a
}

const (
	EntityAuth      = "auth"
	EntityCategory  = "category"
	EntityEquipment = "equipment"
	EntityUser      = "user"
)

// ActivityService writes the audit trail. Failures are logged and dropped.
type ActivityService struct {
	Repo *repos.ActivityRepo
}

func NewActivityService(r *repos.ActivityRepo) *ActivityService { return &ActivityService{Repo: r} }

func (s *ActivityService) Record(ctx context.Context, a Actor, action, entity string, entityID *int64, desc string) {
	if s == nil || s.Repo == nil {
		return
	}
	err := s.Repo.Insert(ctx, domain.ActivityLog{
		UserID:      a.UserID,
		Action:      action,
		EntityType:  entity,
		EntityID:    entityID,
		Description: desc,
		IP:          a.IP,
		UserAgent:   truncate(a.UserAgent, 255),
	})
	if err != nil {
		applog.L().Warn("activity.record.fail",
			zap.String("action", action),
			zap.String("entity_type", entity),
			zap.Error(err))
	}
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func idPtr(id int64) *int64 { return &id }
