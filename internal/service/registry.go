package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/bigkaa/accessadmin/internal/domain/model"
	"github.com/bigkaa/accessadmin/internal/domain/rbac"
)

// ModuleRegistry — снимок списка модулей backend.
// Загружается при первом обращении и живёт до явного Reload.
type ModuleRegistry struct {
	loader *Loader
	logger *slog.Logger

	mu       sync.RWMutex
	snapshot []model.Module
	loadedAt time.Time
}

// NewModuleRegistry создаёт реестр модулей.
func NewModuleRegistry(loader *Loader, logger *slog.Logger) *ModuleRegistry {
	return &ModuleRegistry{
		loader: loader,
		logger: logger.With(slog.String("component", "module_registry")),
	}
}

// Modules возвращает все модули (активные и нет) в порядке backend.
func (r *ModuleRegistry) Modules(ctx context.Context) ([]model.Module, error) {
	r.mu.RLock()
	snap := r.snapshot
	r.mu.RUnlock()

	if snap != nil {
		return cloneModules(snap), nil
	}
	return r.Reload(ctx)
}

// Reload заново загружает список модулей и заменяет снимок.
func (r *ModuleRegistry) Reload(ctx context.Context) ([]model.Module, error) {
	modules, err := r.loader.Modules(ctx)
	if err != nil {
		return nil, backendErr("загрузка модулей", err)
	}
	if modules == nil {
		modules = []model.Module{}
	}

	r.mu.Lock()
	r.snapshot = modules
	r.loadedAt = time.Now()
	r.mu.Unlock()

	r.logger.Info("Реестр модулей загружен",
		slog.Int("modules", len(modules)),
		slog.Int("active", countActive(modules)),
	)
	return cloneModules(modules), nil
}

// Active возвращает только активные модули, порядок сохраняется.
func (r *ModuleRegistry) Active(ctx context.Context) ([]model.Module, error) {
	modules, err := r.Modules(ctx)
	if err != nil {
		return nil, err
	}
	active := modules[:0]
	for _, m := range modules {
		if m.IsActive {
			active = append(active, m)
		}
	}
	return active, nil
}

// Lookup ищет модуль по коду без учёта регистра.
func (r *ModuleRegistry) Lookup(ctx context.Context, code string) (model.Module, error) {
	modules, err := r.Modules(ctx)
	if err != nil {
		return model.Module{}, err
	}
	key := rbac.CanonicalCode(code)
	for _, m := range modules {
		if rbac.CanonicalCode(m.Code) == key {
			return m, nil
		}
	}
	return model.Module{}, ErrNotFound
}

// LoadedAt — время последней загрузки снимка (нулевое, если не загружался).
func (r *ModuleRegistry) LoadedAt() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loadedAt
}

func countActive(modules []model.Module) int {
	n := 0
	for _, m := range modules {
		if m.IsActive {
			n++
		}
	}
	return n
}
