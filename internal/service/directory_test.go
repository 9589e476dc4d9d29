package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/bigkaa/accessadmin/internal/backend"
	"github.com/bigkaa/accessadmin/internal/domain/model"
	"github.com/bigkaa/accessadmin/internal/domain/rbac"
)

// seedUsers — администратор (1), оператор (7), пользователь без роли (8).
func seedUsers(env *testEnv) {
	env.backend.users = []model.User{
		{ID: 1, FirstName: "Ana", LastName: "Root", Email: "root@example.com", RoleID: 1, RoleName: "Administrador", IsActive: true},
		{ID: 7, FirstName: "Luis", LastName: "Pérez", Email: "luis@example.com", RoleID: 3, IsActive: true},
		{ID: 8, FirstName: "Eva", LastName: "Soto", Email: "eva@corp.example.org", RoleID: 0, IsActive: false},
	}
}

// TestDirectory_ListUsers проверяет дополнение имени роли из списка ролей.
func TestDirectory_ListUsers(t *testing.T) {
	env := newTestEnv()
	seedUsers(env)

	users, err := env.directory.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers ошибка: %v", err)
	}
	if len(users) != 3 {
		t.Fatalf("len = %d, ожидалось 3", len(users))
	}
	if users[1].RoleName != "Operador" {
		t.Errorf("RoleName = %q, ожидался Operador", users[1].RoleName)
	}
	if users[2].RoleName != "" {
		t.Errorf("RoleName = %q, ожидалось пустое (без роли)", users[2].RoleName)
	}
}

// TestDirectory_GetUser_NotFound проверяет ErrNotFound для неизвестного id.
func TestDirectory_GetUser_NotFound(t *testing.T) {
	env := newTestEnv()
	seedUsers(env)

	if _, err := env.directory.GetUser(context.Background(), 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("ошибка = %v, ожидалась ErrNotFound", err)
	}
}

// TestDirectory_SearchUsersByEmail проверяет поиск по подстроке без учёта регистра.
func TestDirectory_SearchUsersByEmail(t *testing.T) {
	env := newTestEnv()
	seedUsers(env)
	ctx := context.Background()

	tests := []struct {
		query string
		limit int
		want  int
	}{
		{"EXAMPLE", 10, 3},
		{"example.com", 10, 2},
		{"example", 1, 1},
		{"  luis ", 10, 1},
		{"", 10, 0},
		{"nobody", 10, 0},
	}
	for _, tt := range tests {
		got, err := env.directory.SearchUsersByEmail(ctx, tt.query, tt.limit)
		if err != nil {
			t.Fatalf("SearchUsersByEmail(%q) ошибка: %v", tt.query, err)
		}
		if len(got) != tt.want {
			t.Errorf("SearchUsersByEmail(%q, %d) = %d, ожидалось %d", tt.query, tt.limit, len(got), tt.want)
		}
	}
}

// TestDirectory_CreateUser_Validation проверяет проверку полей до обращения к backend.
func TestDirectory_CreateUser_Validation(t *testing.T) {
	valid := model.UserInput{FirstName: "Ana", LastName: "Gil", Email: "ana@example.com", Password: "secret-123", IsActive: true}

	tests := []struct {
		name   string
		mutate func(in *model.UserInput)
	}{
		{"без имени", func(in *model.UserInput) { in.FirstName = "  " }},
		{"без фамилии", func(in *model.UserInput) { in.LastName = "" }},
		{"плохой email", func(in *model.UserInput) { in.Email = "not-an-email" }},
		{"короткий пароль", func(in *model.UserInput) { in.Password = "short" }},
		{"отрицательная роль", func(in *model.UserInput) { in.RoleID = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			in := valid
			tt.mutate(&in)

			_, err := env.directory.CreateUser(context.Background(), "root@example.com", in)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("ошибка = %v, ожидалась ErrValidation", err)
			}
			if len(env.backend.users) != 0 {
				t.Error("backend не должен вызываться при ошибке валидации")
			}
		})
	}
}

// TestDirectory_CreateUser_WithRole проверяет создание с ролью и распространение прав.
func TestDirectory_CreateUser_WithRole(t *testing.T) {
	env := newTestEnv()

	change, err := env.directory.CreateUser(context.Background(), "root@example.com", model.UserInput{
		FirstName: " Ana ",
		LastName:  "Gil",
		Email:     " Ana@Example.com ",
		Password:  "secret-123",
		RoleID:    1,
		IsActive:  true,
	})
	if err != nil {
		t.Fatalf("CreateUser ошибка: %v", err)
	}
	if change.User.Email != "ana@example.com" {
		t.Errorf("Email = %q, ожидался нормализованный", change.User.Email)
	}
	if change.User.RoleName != "Administrador" {
		t.Errorf("RoleName = %q, ожидался Administrador", change.User.RoleName)
	}
	if change.PropagationErr != nil {
		t.Fatalf("PropagationErr = %v", change.PropagationErr)
	}
	if change.Propagation == nil || !change.Propagation.Propagated {
		t.Fatalf("Propagation = %+v, ожидалось Propagated=true", change.Propagation)
	}
	for _, p := range env.backend.lastReplace(change.User.ID) {
		if p.PermissionType != model.PermissionWrite {
			t.Errorf("%s = %v, ожидался Write", p.ModuleCode, p.PermissionType)
		}
	}
}

// TestDirectory_CreateUser_UnknownRole проверяет ErrNotFound для несуществующей роли.
func TestDirectory_CreateUser_UnknownRole(t *testing.T) {
	env := newTestEnv()

	_, err := env.directory.CreateUser(context.Background(), "root@example.com", model.UserInput{
		FirstName: "Ana", LastName: "Gil", Email: "ana@example.com", Password: "secret-123", RoleID: 99,
	})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("ошибка = %v, ожидалась ErrNotFound", err)
	}
}

// TestDirectory_DeactivateAdministrator проверяет запрет деактивации администратора.
func TestDirectory_DeactivateAdministrator(t *testing.T) {
	env := newTestEnv()
	seedUsers(env)

	_, err := env.directory.SetUserActive(context.Background(), "root@example.com", 1, false)
	var pv *rbac.PolicyViolation
	if !errors.As(err, &pv) {
		t.Fatalf("ошибка = %v, ожидалась *rbac.PolicyViolation", err)
	}
	if pv.Action != rbac.ActionDeactivateUser {
		t.Errorf("Action = %q", pv.Action)
	}
	if !IsPolicyViolation(err) {
		t.Error("IsPolicyViolation = false")
	}
	if !env.backend.users[0].IsActive {
		t.Error("администратор не должен быть деактивирован в backend")
	}
}

// TestDirectory_SetUserActive проверяет деактивацию обычного пользователя без распространения.
func TestDirectory_SetUserActive(t *testing.T) {
	env := newTestEnv()
	seedUsers(env)

	user, err := env.directory.SetUserActive(context.Background(), "root@example.com", 7, false)
	if err != nil {
		t.Fatalf("SetUserActive ошибка: %v", err)
	}
	if user.IsActive {
		t.Error("IsActive = true, ожидалось false")
	}
	if user.RoleName != "Operador" {
		t.Errorf("RoleName = %q, ожидался Operador", user.RoleName)
	}
	if n := env.backend.replaceCount(7); n != 0 {
		t.Errorf("вызовов ReplaceUserPermissions = %d, ожидалось 0 (роль не менялась)", n)
	}
}

// TestDirectory_ChangeUserRole проверяет распространение прав при смене роли.
func TestDirectory_ChangeUserRole(t *testing.T) {
	env := newTestEnv()
	seedUsers(env)
	env.backend.perms[7] = []model.Permission{
		{ID: 71, UserID: 7, ModuleCode: "home", PermissionType: model.PermissionRead},
	}

	change, err := env.directory.ChangeUserRole(context.Background(), "root@example.com", 7, 1)
	if err != nil {
		t.Fatalf("ChangeUserRole ошибка: %v", err)
	}
	if change.User.RoleID != 1 || change.User.RoleName != "Administrador" {
		t.Errorf("User = %+v", change.User)
	}
	if change.Propagation == nil || !change.Propagation.Propagated {
		t.Fatalf("Propagation = %+v", change.Propagation)
	}
	got := permTypes(env.backend.lastReplace(7))
	if got["home"] != model.PermissionWrite || got["users"] != model.PermissionWrite {
		t.Errorf("права после повышения = %v", got)
	}
}

// TestDirectory_ChangeUserRole_PropagationFailure проверяет, что сбой распространения
// не отменяет смену роли, а возвращается в результате.
func TestDirectory_ChangeUserRole_PropagationFailure(t *testing.T) {
	env := newTestEnv()
	seedUsers(env)
	env.backend.replaceErr = &backend.APIError{Status: http.StatusInternalServerError, Message: "boom"}

	change, err := env.directory.ChangeUserRole(context.Background(), "root@example.com", 7, 1)
	if err != nil {
		t.Fatalf("ChangeUserRole ошибка: %v", err)
	}
	if !errors.Is(change.PropagationErr, ErrPropagationAborted) {
		t.Errorf("PropagationErr = %v, ожидалась ErrPropagationAborted", change.PropagationErr)
	}
	if env.backend.users[1].RoleID != 1 {
		t.Error("роль должна быть изменена в backend")
	}
}

// TestDirectory_DeleteUser проверяет мягкое удаление и запрет для администратора.
func TestDirectory_DeleteUser(t *testing.T) {
	env := newTestEnv()
	seedUsers(env)
	ctx := context.Background()

	if err := env.directory.DeleteUser(ctx, "root@example.com", 1); !IsPolicyViolation(err) {
		t.Errorf("удаление администратора: ошибка = %v, ожидалось нарушение политики", err)
	}
	if err := env.directory.DeleteUser(ctx, "root@example.com", 7); err != nil {
		t.Fatalf("DeleteUser ошибка: %v", err)
	}
	if len(env.backend.deletedUsers) != 1 || env.backend.deletedUsers[0] != 7 {
		t.Errorf("удалены = %v, ожидалось [7]", env.backend.deletedUsers)
	}
}

// TestDirectory_AdministratorUnresolvedRole проверяет, что без списка ролей
// пользователь без roleName не удаляется и не деактивируется.
func TestDirectory_AdministratorUnresolvedRole(t *testing.T) {
	env := newTestEnv()
	env.backend.users = []model.User{
		{ID: 1, FirstName: "Ana", LastName: "Root", Email: "root@example.com", RoleID: 1, IsActive: true},
	}
	env.backend.rolesErr = fmt.Errorf("%w: GET /Roles: connection refused", backend.ErrTransport)
	ctx := context.Background()

	err := env.directory.DeleteUser(ctx, "root@example.com", 1)
	if !errors.Is(err, ErrBackendUnavailable) {
		t.Errorf("DeleteUser: ошибка = %v, ожидалась ErrBackendUnavailable", err)
	}
	if len(env.backend.deletedUsers) != 0 {
		t.Errorf("удалены = %v, ожидалось пусто", env.backend.deletedUsers)
	}

	_, err = env.directory.SetUserActive(ctx, "root@example.com", 1, false)
	if !errors.Is(err, ErrBackendUnavailable) {
		t.Errorf("SetUserActive: ошибка = %v, ожидалась ErrBackendUnavailable", err)
	}
	if !env.backend.users[0].IsActive {
		t.Error("пользователь не должен быть деактивирован в backend")
	}
}

// TestDirectory_CreateRole проверяет резервирование имён системных ролей.
func TestDirectory_CreateRole(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	for _, name := range []string{"", "  ", "admin", "SIN ASIGNAR"} {
		if _, err := env.directory.CreateRole(ctx, "root@example.com", model.RoleInput{Name: name}); !errors.Is(err, ErrValidation) {
			t.Errorf("CreateRole(%q): ошибка = %v, ожидалась ErrValidation", name, err)
		}
	}

	role, err := env.directory.CreateRole(ctx, "root@example.com", model.RoleInput{Name: " Auditor ", Description: "Solo lectura"})
	if err != nil {
		t.Fatalf("CreateRole ошибка: %v", err)
	}
	if role.Name != "Auditor" {
		t.Errorf("Name = %q, ожидался Auditor", role.Name)
	}
}

// TestDirectory_UpdateRole проверяет запрет редактирования системных ролей.
func TestDirectory_UpdateRole(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.directory.UpdateRole(ctx, "root@example.com", 1, model.RoleInput{Name: "Jefe"})
	var pv *rbac.PolicyViolation
	if !errors.As(err, &pv) || pv.Action != rbac.ActionEditRole {
		t.Errorf("ошибка = %v, ожидалось нарушение edit_role", err)
	}

	role, err := env.directory.UpdateRole(ctx, "root@example.com", 3, model.RoleInput{Name: "Supervisor"})
	if err != nil {
		t.Fatalf("UpdateRole ошибка: %v", err)
	}
	if role.Name != "Supervisor" {
		t.Errorf("Name = %q, ожидался Supervisor", role.Name)
	}
}

// TestDirectory_RoleDeletion проверяет подсчёт затронутых пользователей и удаление.
func TestDirectory_RoleDeletion(t *testing.T) {
	env := newTestEnv()
	seedUsers(env)
	env.backend.users = append(env.backend.users, model.User{ID: 9, Email: "otro@example.com", RoleID: 3})
	ctx := context.Background()

	impact, err := env.directory.RoleDeletionImpact(ctx, 3)
	if err != nil {
		t.Fatalf("RoleDeletionImpact ошибка: %v", err)
	}
	if impact.AffectedUsers != 2 {
		t.Errorf("AffectedUsers = %d, ожидалось 2", impact.AffectedUsers)
	}

	if _, err := env.directory.RoleDeletionImpact(ctx, 2); !IsPolicyViolation(err) {
		t.Errorf("системная роль: ошибка = %v, ожидалось нарушение политики", err)
	}
	if err := env.directory.DeleteRole(ctx, "root@example.com", 1); !IsPolicyViolation(err) {
		t.Errorf("удаление администратора: ошибка = %v, ожидалось нарушение политики", err)
	}

	if err := env.directory.DeleteRole(ctx, "root@example.com", 3); err != nil {
		t.Fatalf("DeleteRole ошибка: %v", err)
	}
	if len(env.backend.deletedRoles) != 1 || env.backend.deletedRoles[0] != 3 {
		t.Errorf("удалены роли = %v, ожидалось [3]", env.backend.deletedRoles)
	}
}
