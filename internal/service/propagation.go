package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/errgroup"

	"github.com/bigkaa/accessadmin/internal/domain/model"
	"github.com/bigkaa/accessadmin/internal/domain/rbac"
)

// rolePropagationsTotal — исходы распространения прав после смены роли.
var rolePropagationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "aa_role_propagations_total",
	Help: "Распространение прав после смены роли по исходу (ok, fetch_failed, write_failed).",
}, []string{"result"})

// PropagationResult — итог распространения прав.
type PropagationResult struct {
	UserID   int
	RoleName string
	// Propagated — набор прав записан в backend
	Propagated bool
	// Permissions — записанный набор (пустой, если Propagated == false)
	Permissions []model.Permission
}

// Propagator пересчитывает права пользователя при смене роли
// и заменяет набор одним запросом. Повторов нет.
type Propagator struct {
	loader   *Loader
	registry *ModuleRegistry
	journal  *Journal
	cache    AccessCache
	logger   *slog.Logger
}

// NewPropagator создаёт Propagator.
func NewPropagator(loader *Loader, registry *ModuleRegistry, journal *Journal, cache AccessCache, logger *slog.Logger) *Propagator {
	return &Propagator{
		loader:   loader,
		registry: registry,
		journal:  journal,
		cache:    cache,
		logger:   logger.With(slog.String("component", "role_propagation")),
	}
}

// OnRoleChange применяет правило распространения для новой роли пользователя.
// Если не удалось загрузить права или модули, запись не выполняется и
// возвращается ErrPropagationAborted.
func (p *Propagator) OnRoleChange(ctx context.Context, actor string, userID int, roleName string) (*PropagationResult, error) {
	result := &PropagationResult{UserID: userID, RoleName: roleName}

	var (
		existing []model.Permission
		modules  []model.Module
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		existing, err = p.loader.Permissions(gctx, userID)
		if err != nil {
			return backendErr("текущие права", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		modules, err = p.registry.Modules(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		rolePropagationsTotal.WithLabelValues("fetch_failed").Inc()
		p.logger.Warn("Распространение прав прервано: не удалось загрузить данные",
			slog.Int("user_id", userID),
			slog.String("role", roleName),
			slog.String("error", err.Error()),
		)
		return result, fmt.Errorf("%w: пользователь %d: %w", ErrPropagationAborted, userID, err)
	}

	perms := rbac.PropagateRoleChange(userID, existing, modules, roleName)
	if err := p.loader.Backend().ReplaceUserPermissions(ctx, userID, perms); err != nil {
		rolePropagationsTotal.WithLabelValues("write_failed").Inc()
		p.logger.Warn("Распространение прав прервано: backend отклонил замену",
			slog.Int("user_id", userID),
			slog.String("role", roleName),
			slog.String("error", err.Error()),
		)
		return result, fmt.Errorf("%w: %w", ErrPropagationAborted, backendErr(fmt.Sprintf("замена прав пользователя %d", userID), err))
	}

	rolePropagationsTotal.WithLabelValues("ok").Inc()
	p.cache.Invalidate(ctx, userID)
	p.journal.Record(ctx, actor, model.ChangeReasonRoleChange, roleName, userID, perms)

	p.logger.Info("Права распространены после смены роли",
		slog.Int("user_id", userID),
		slog.String("role", roleName),
		slog.Bool("administrator", rbac.IsAdministratorRole(roleName)),
		slog.Int("modules", len(perms)),
	)

	result.Propagated = true
	result.Permissions = perms
	return result, nil
}
