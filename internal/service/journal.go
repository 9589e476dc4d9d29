package service

import (
	"context"
	"log/slog"

	"github.com/bigkaa/accessadmin/internal/domain/model"
	"github.com/bigkaa/accessadmin/internal/domain/rbac"
	"github.com/bigkaa/accessadmin/internal/repository"
)

// Journal — журнал полных замен прав пользователя.
// Ошибка записи только логируется: источник истины — backend, замена уже выполнена.
type Journal struct {
	repo   repository.PermissionChangeRepository
	logger *slog.Logger
}

// NewJournal создаёт журнал. repo == nil — журнал выключен.
func NewJournal(repo repository.PermissionChangeRepository, logger *slog.Logger) *Journal {
	return &Journal{
		repo:   repo,
		logger: logger.With(slog.String("component", "permission_journal")),
	}
}

// Record записывает итоговый набор прав после замены.
func (j *Journal) Record(ctx context.Context, actor, reason, roleName string, userID int, perms []model.Permission) {
	if j == nil || j.repo == nil {
		return
	}

	entries := make(map[string]model.PermissionType, len(perms))
	for _, p := range perms {
		entries[rbac.CanonicalCode(p.ModuleCode)] = p.PermissionType
	}

	change := &model.PermissionChange{
		UserID:   userID,
		Actor:    actor,
		Reason:   reason,
		RoleName: roleName,
		Entries:  entries,
	}
	if err := j.repo.Insert(ctx, change); err != nil {
		j.logger.Warn("Не удалось записать изменение прав в журнал",
			slog.Int("user_id", userID),
			slog.String("reason", reason),
			slog.String("error", err.Error()),
		)
		return
	}

	j.logger.Debug("Изменение прав записано в журнал",
		slog.String("id", change.ID),
		slog.Int("user_id", userID),
		slog.String("reason", reason),
	)
}

// History возвращает последние изменения прав пользователя (новые первыми).
func (j *Journal) History(ctx context.Context, userID, limit int) ([]*model.PermissionChange, error) {
	if j == nil || j.repo == nil {
		return nil, nil
	}
	return j.repo.ListByUser(ctx, userID, limit)
}

// Enabled — журнал подключён к хранилищу.
func (j *Journal) Enabled() bool {
	return j != nil && j.repo != nil
}
