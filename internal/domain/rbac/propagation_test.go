package rbac

import (
	"slices"
	"testing"

	"github.com/bigkaa/accessadmin/internal/domain/model"
)

func typesByCode(perms []model.Permission) map[string]model.PermissionType {
	m := make(map[string]model.PermissionType, len(perms))
	for _, p := range perms {
		m[p.ModuleCode] = p.PermissionType
	}
	return m
}

func TestPropagateRoleChange_Administrator(t *testing.T) {
	existing := []model.Permission{
		{ID: 1, UserID: 7, ModuleCode: "tasks", PermissionType: model.PermissionRead},
	}
	got := PropagateRoleChange(7, existing, testModules(), "Administrador")

	if len(got) != 4 {
		t.Fatalf("len = %d, хотели 4 активных модуля", len(got))
	}
	for _, p := range got {
		if p.PermissionType != model.PermissionWrite {
			t.Errorf("%s: %v, администратор получает Write на всё", p.ModuleCode, p.PermissionType)
		}
		if p.UserID != 7 {
			t.Errorf("%s: userId = %d", p.ModuleCode, p.UserID)
		}
	}
	if got[1].ID != 1 {
		t.Errorf("id существующей строки должен сохраниться: %+v", got[1])
	}
}

func TestPropagateRoleChange_Demotion(t *testing.T) {
	existing := []model.Permission{
		{ID: 1, UserID: 7, ModuleCode: "home", PermissionType: model.PermissionWrite},
		{ID: 2, UserID: 7, ModuleCode: "tasks", PermissionType: model.PermissionDelete},
		{ID: 3, UserID: 7, ModuleCode: "users", PermissionType: model.PermissionWrite},
		{ID: 5, UserID: 7, ModuleCode: "roles", PermissionType: model.PermissionAdmin},
	}
	got := typesByCode(PropagateRoleChange(7, existing, testModules(), "Analista"))

	want := map[string]model.PermissionType{
		"home":  model.PermissionWrite,
		"tasks": model.PermissionDelete,
		"users": model.PermissionNone,
		"roles": model.PermissionNone,
	}
	for code, w := range want {
		if got[code] != w {
			t.Errorf("%s: %v, хотели %v", code, got[code], w)
		}
	}
}

func TestPropagateRoleChange_NoPreviousRow(t *testing.T) {
	got := typesByCode(PropagateRoleChange(9, nil, testModules(), "Sin asignar"))
	for code, pt := range got {
		if pt != model.PermissionNone {
			t.Errorf("%s: %v, без строки уровень None", code, pt)
		}
	}
}

func TestPropagateRoleChange_Idempotent(t *testing.T) {
	existing := []model.Permission{
		{ID: 1, UserID: 7, ModuleCode: "tasks", PermissionType: model.PermissionRead},
		{ID: 2, UserID: 7, ModuleCode: "users", PermissionType: model.PermissionWrite},
	}
	for _, role := range []string{"admin", "Analista"} {
		first := PropagateRoleChange(7, existing, testModules(), role)
		second := PropagateRoleChange(7, first, testModules(), role)
		if !slices.Equal(first, second) {
			t.Errorf("роль %s: повторное применение изменило набор\n%v\n%v", role, first, second)
		}
	}
}

func TestPropagateRoleChange_SkipsInactive(t *testing.T) {
	got := PropagateRoleChange(7, nil, testModules(), "admin")
	for _, p := range got {
		if p.ModuleCode == "reports" {
			t.Error("неактивный модуль не должен попадать в набор")
		}
	}
}

func TestPropagateRoleChange_RowWithoutCode(t *testing.T) {
	existing := []model.Permission{
		{ID: 10, UserID: 7, ModuleID: 1, PermissionType: model.PermissionWrite},
	}
	view := Reconcile(7, existing, testModules())
	if e, _ := view.Lookup("home"); e.Effective != (Effective{Enabled: true, Type: LevelEdit}) {
		t.Fatalf("Reconcile home = %+v, хотели edit", e.Effective)
	}

	got := PropagateRoleChange(7, existing, testModules(), "Analista")
	home := got[0]
	if home.ModuleCode != "home" {
		t.Fatalf("первый модуль = %q, хотели home", home.ModuleCode)
	}
	if home.PermissionType != model.PermissionWrite {
		t.Errorf("home: %v, строка по moduleId должна сохранить Write", home.PermissionType)
	}
	if home.ID != 10 {
		t.Errorf("home: id = %d, хотели 10 (обновление, не создание)", home.ID)
	}
}
