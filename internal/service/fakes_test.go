package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/bigkaa/accessadmin/internal/backend"
	"github.com/bigkaa/accessadmin/internal/domain/model"
)

// --- Fake backend ---

// fakeBackend — in-memory реализация Backend для unit-тестов.
// Ошибки *Err возвращаются соответствующими методами, если заданы.
type fakeBackend struct {
	mu sync.Mutex

	modules []model.Module
	users   []model.User
	roles   []model.Role
	perms   map[int][]model.Permission
	access  map[int]map[string]model.PermissionType

	modulesErr error
	rolesErr   error
	permsErr   error
	replaceErr error
	accessErr  error
	updateErr  error

	// replaced — тела вызовов ReplaceUserPermissions по пользователю
	replaced map[int][][]model.Permission

	modulesCalls atomic.Int32
	accessCalls  atomic.Int32
	deletedUsers []int
	deletedRoles []int

	// modulesGate блокирует ListModules до закрытия (для проверки объединения запросов)
	modulesGate chan struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		perms:    make(map[int][]model.Permission),
		access:   make(map[int]map[string]model.PermissionType),
		replaced: make(map[int][][]model.Permission),
	}
}

func (f *fakeBackend) ListModules(ctx context.Context) ([]model.Module, error) {
	f.modulesCalls.Add(1)
	if f.modulesGate != nil {
		select {
		case <-f.modulesGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.modulesErr != nil {
		return nil, f.modulesErr
	}
	return slices.Clone(f.modules), nil
}

func (f *fakeBackend) ListUsers(_ context.Context) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.users), nil
}

func (f *fakeBackend) CreateUser(_ context.Context, input model.UserInput) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := 100 + len(f.users)
	u := model.User{
		ID:        id,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		RoleID:    input.RoleID,
		IsActive:  input.IsActive,
	}
	f.users = append(f.users, u)
	return &u, nil
}

func (f *fakeBackend) UpdateUser(_ context.Context, id int, input model.UserInput) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	for i := range f.users {
		if f.users[i].ID == id {
			f.users[i].FirstName = input.FirstName
			f.users[i].LastName = input.LastName
			f.users[i].Email = input.Email
			f.users[i].RoleID = input.RoleID
			f.users[i].RoleName = ""
			f.users[i].IsActive = input.IsActive
			// backend отвечает без data
			return &model.User{}, nil
		}
	}
	return nil, &backend.APIError{Status: http.StatusNotFound, Message: "user not found"}
}

func (f *fakeBackend) DeleteUser(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedUsers = append(f.deletedUsers, id)
	return nil
}

func (f *fakeBackend) ListRoles(_ context.Context) ([]model.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rolesErr != nil {
		return nil, f.rolesErr
	}
	return slices.Clone(f.roles), nil
}

func (f *fakeBackend) CreateRole(_ context.Context, input model.RoleInput) (*model.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := model.Role{ID: 10 + len(f.roles), Name: input.Name, Description: input.Description}
	f.roles = append(f.roles, r)
	return &r, nil
}

func (f *fakeBackend) UpdateRole(_ context.Context, id int, input model.RoleInput) (*model.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.roles {
		if f.roles[i].ID == id {
			f.roles[i].Name = input.Name
			f.roles[i].Description = input.Description
			r := f.roles[i]
			return &r, nil
		}
	}
	return nil, &backend.APIError{Status: http.StatusNotFound, Message: "role not found"}
}

func (f *fakeBackend) DeleteRole(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedRoles = append(f.deletedRoles, id)
	return nil
}

func (f *fakeBackend) UserPermissions(_ context.Context, userID int) ([]model.Permission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.permsErr != nil {
		return nil, f.permsErr
	}
	return slices.Clone(f.perms[userID]), nil
}

func (f *fakeBackend) ReplaceUserPermissions(_ context.Context, userID int, perms []model.Permission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.replaceErr != nil {
		return f.replaceErr
	}
	f.replaced[userID] = append(f.replaced[userID], slices.Clone(perms))
	f.perms[userID] = slices.Clone(perms)
	return nil
}

func (f *fakeBackend) UserModuleAccess(_ context.Context, userID int) (map[string]model.PermissionType, error) {
	f.accessCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.accessErr != nil {
		return nil, f.accessErr
	}
	return f.access[userID], nil
}

func (f *fakeBackend) replaceCount(userID int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.replaced[userID])
}

func (f *fakeBackend) lastReplace(userID int) []model.Permission {
	f.mu.Lock()
	defer f.mu.Unlock()
	calls := f.replaced[userID]
	if len(calls) == 0 {
		return nil
	}
	return calls[len(calls)-1]
}

// --- Fake journal repository ---

// fakeChangeRepo — in-memory PermissionChangeRepository.
type fakeChangeRepo struct {
	mu        sync.Mutex
	changes   []*model.PermissionChange
	insertErr error
}

func (r *fakeChangeRepo) Insert(_ context.Context, change *model.PermissionChange) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return r.insertErr
	}
	if change.ID == "" {
		change.ID = fmt.Sprintf("change-%d", len(r.changes)+1)
	}
	r.changes = append(r.changes, change)
	return nil
}

func (r *fakeChangeRepo) ListByUser(_ context.Context, userID, limit int) ([]*model.PermissionChange, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*model.PermissionChange
	for i := len(r.changes) - 1; i >= 0; i-- {
		if r.changes[i].UserID == userID {
			result = append(result, r.changes[i])
			if len(result) == limit {
				break
			}
		}
	}
	return result, nil
}

func (r *fakeChangeRepo) GetByID(_ context.Context, id string) (*model.PermissionChange, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.changes {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, fmt.Errorf("change %s not found", id)
}

func (r *fakeChangeRepo) all() []*model.PermissionChange {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.changes)
}

// --- Общая сборка ---

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testModules — home, tasks, reports (неактивен), users (админский).
func testModules() []model.Module {
	return []model.Module{
		{ID: 1, Code: "home", Name: "Inicio", IsActive: true},
		{ID: 2, Code: "Tasks", Name: "Tareas", IsActive: true},
		{ID: 3, Code: "reports", Name: "Reportes", IsActive: false},
		{ID: 4, Code: "users", Name: "Usuarios", IsActive: true},
	}
}

func testRoles() []model.Role {
	return []model.Role{
		{ID: 1, Name: "Administrador", IsSystemRole: true},
		{ID: 2, Name: "Sin asignar", IsSystemRole: true},
		{ID: 3, Name: "Operador"},
	}
}

// testEnv — сервисы поверх общего fakeBackend.
type testEnv struct {
	backend    *fakeBackend
	repo       *fakeChangeRepo
	cache      *LRUAccessCache
	registry   *ModuleRegistry
	perms      *PermissionService
	propagator *Propagator
	directory  *Directory
}

func newTestEnv() *testEnv {
	fb := newFakeBackend()
	fb.modules = testModules()
	fb.roles = testRoles()

	logger := discardLogger()
	loader := NewLoader(fb)
	repo := &fakeChangeRepo{}
	journal := NewJournal(repo, logger)
	cache := NewLRUAccessCache(100, 0)
	registry := NewModuleRegistry(loader, logger)
	propagator := NewPropagator(loader, registry, journal, cache, logger)

	return &testEnv{
		backend:    fb,
		repo:       repo,
		cache:      cache,
		registry:   registry,
		perms:      NewPermissionService(loader, registry, journal, cache, logger),
		propagator: propagator,
		directory:  NewDirectory(loader, propagator, logger),
	}
}

// permTypes — карта «код → уровень» для проверок.
func permTypes(perms []model.Permission) map[string]model.PermissionType {
	m := make(map[string]model.PermissionType, len(perms))
	for _, p := range perms {
		m[p.ModuleCode] = p.PermissionType
	}
	return m
}
