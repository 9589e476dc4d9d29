package service

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/bigkaa/accessadmin/internal/domain/model"
	"github.com/bigkaa/accessadmin/internal/domain/rbac"
)

// PermissionService — матрица прав пользователя: просмотр, сохранение, карта доступа сессии.
type PermissionService struct {
	loader   *Loader
	registry *ModuleRegistry
	journal  *Journal
	cache    AccessCache
	logger   *slog.Logger
}

// NewPermissionService создаёт сервис прав.
func NewPermissionService(
	loader *Loader,
	registry *ModuleRegistry,
	journal *Journal,
	cache AccessCache,
	logger *slog.Logger,
) *PermissionService {
	return &PermissionService{
		loader:   loader,
		registry: registry,
		journal:  journal,
		cache:    cache,
		logger:   logger.With(slog.String("component", "permission_service")),
	}
}

// View загружает права пользователя и модули и сводит их в эффективное представление.
func (s *PermissionService) View(ctx context.Context, userID int) (*rbac.AccessView, error) {
	stored, modules, err := s.fetch(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.reconcile(userID, stored, modules), nil
}

// fetch параллельно загружает строки прав и модули.
func (s *PermissionService) fetch(ctx context.Context, userID int) ([]model.Permission, []model.Module, error) {
	var (
		stored  []model.Permission
		modules []model.Module
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stored, err = s.loader.Permissions(gctx, userID)
		if err != nil {
			return backendErr(fmt.Sprintf("права пользователя %d", userID), err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		modules, err = s.registry.Modules(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return stored, modules, nil
}

func (s *PermissionService) reconcile(userID int, stored []model.Permission, modules []model.Module) *rbac.AccessView {
	view := rbac.Reconcile(userID, stored, modules)

	if len(view.Duplicates) > 0 {
		s.logger.Warn("Дублирующиеся строки прав, используется последняя",
			slog.Int("user_id", userID),
			slog.Any("modules", view.Duplicates),
		)
	}
	if len(view.Orphans) > 0 {
		s.logger.Debug("Строки прав без активного модуля",
			slog.Int("user_id", userID),
			slog.Any("modules", view.Orphans),
		)
	}
	return view
}

// Save применяет изменения матрицы и заменяет набор прав пользователя целиком.
// edits — изменения по коду модуля; коды вне представления и неизвестные уровни отклоняются.
// Возвращает представление после сохранения.
func (s *PermissionService) Save(ctx context.Context, actor string, userID int, edits map[string]rbac.Effective) (*rbac.AccessView, error) {
	stored, modules, err := s.fetch(ctx, userID)
	if err != nil {
		return nil, err
	}
	view := s.reconcile(userID, stored, modules)

	for code, e := range edits {
		if _, ok := view.Lookup(code); !ok {
			return nil, validationErr("модуль %q не активен или не существует", code)
		}
		if !e.Type.IsValid() {
			return nil, validationErr("недопустимый уровень %q для модуля %q", e.Type, code)
		}
	}

	perms := rbac.BuildReplacement(view, edits)
	if err := s.loader.Backend().ReplaceUserPermissions(ctx, userID, perms); err != nil {
		return nil, backendErr(fmt.Sprintf("сохранение прав пользователя %d", userID), err)
	}

	s.cache.Invalidate(ctx, userID)
	s.journal.Record(ctx, actor, model.ChangeReasonSave, "", userID, perms)

	s.logger.Info("Права пользователя сохранены",
		slog.Int("user_id", userID),
		slog.String("actor", actor),
		slog.Int("modules", len(perms)),
	)

	return rbac.Reconcile(userID, perms, modules), nil
}

// SessionAccess возвращает карту «канонический код → уровень» для навигации пользователя.
// Источник — GET /Permissions/users/{id}/modules через кэш, сведённый с активными модулями реестра.
func (s *PermissionService) SessionAccess(ctx context.Context, userID int) (map[string]rbac.AccessLevel, error) {
	raw, ok := s.cache.Get(ctx, userID)
	if !ok {
		var err error
		raw, err = s.loader.ModuleAccess(ctx, userID)
		if err != nil {
			return nil, backendErr(fmt.Sprintf("карта доступа пользователя %d", userID), err)
		}
		s.cache.Set(ctx, userID, raw)
	}

	// Неактивные модули в навигацию не попадают; без реестра доступа нет
	active, err := s.registry.Active(ctx)
	if err != nil {
		return nil, fmt.Errorf("карта доступа пользователя %d: %w", userID, err)
	}
	activeCodes := make(map[string]struct{}, len(active))
	for _, m := range active {
		activeCodes[rbac.CanonicalCode(m.Code)] = struct{}{}
	}

	levels := make(map[string]rbac.AccessLevel, len(raw))
	for code, pt := range raw {
		key := rbac.CanonicalCode(code)
		if _, ok := activeCodes[key]; !ok {
			continue
		}
		levels[key] = rbac.LevelOf(pt)
	}
	return levels, nil
}

// ForgetSession сбрасывает карту доступа пользователя из кэша (выход из сессии).
func (s *PermissionService) ForgetSession(ctx context.Context, userID int) {
	s.cache.Invalidate(ctx, userID)
}

// History возвращает последние изменения прав пользователя.
func (s *PermissionService) History(ctx context.Context, userID, limit int) ([]*model.PermissionChange, error) {
	changes, err := s.journal.History(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("журнал изменений прав пользователя %d: %w", userID, err)
	}
	return changes, nil
}

// HistoryEnabled — ведётся ли журнал изменений прав.
func (s *PermissionService) HistoryEnabled() bool {
	return s.journal.Enabled()
}
