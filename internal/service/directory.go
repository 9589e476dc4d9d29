// Пакет service — бизнес-логика консоли управления доступом.
// directory.go — пользователи и роли backend с политикой системных ролей.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/bigkaa/accessadmin/internal/domain/model"
	"github.com/bigkaa/accessadmin/internal/domain/rbac"
)

// UserChange — результат создания или изменения пользователя.
type UserChange struct {
	User *model.User
	// Propagation — итог распространения прав; nil, если роль не менялась
	Propagation *PropagationResult
	// PropagationErr — причина, по которой права не распространены
	PropagationErr error
}

// RoleDeletionImpact — сведения для подтверждения удаления роли.
type RoleDeletionImpact struct {
	Role *model.Role
	// AffectedUsers — пользователи с этой ролью (backend переведёт их в «без назначения»)
	AffectedUsers int
}

// Directory — сервис пользователей и ролей.
// Политика проверяется до любого обращения к backend на запись.
type Directory struct {
	loader     *Loader
	propagator *Propagator
	logger     *slog.Logger
}

// NewDirectory создаёт сервис пользователей и ролей.
func NewDirectory(loader *Loader, propagator *Propagator, logger *slog.Logger) *Directory {
	return &Directory{
		loader:     loader,
		propagator: propagator,
		logger:     logger.With(slog.String("component", "directory")),
	}
}

// --- Пользователи ---

// ListUsers возвращает пользователей; пустое имя роли дополняется из списка ролей.
func (d *Directory) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := d.loader.Users(ctx)
	if err != nil {
		return nil, backendErr("список пользователей", err)
	}

	result := make([]model.User, len(users))
	copy(result, users)

	if !needsRoleNames(result) {
		return result, nil
	}
	roles, err := d.loader.Roles(ctx)
	if err != nil {
		d.logger.Warn("Не удалось загрузить роли для имён",
			slog.String("error", err.Error()),
		)
		return result, nil
	}
	names := make(map[int]string, len(roles))
	for _, r := range roles {
		names[r.ID] = r.Name
	}
	for i := range result {
		if result[i].RoleName == "" {
			result[i].RoleName = names[result[i].RoleID]
		}
	}
	return result, nil
}

func needsRoleNames(users []model.User) bool {
	for _, u := range users {
		if u.RoleName == "" && u.RoleID != 0 {
			return true
		}
	}
	return false
}

// GetUser возвращает пользователя по id.
func (d *Directory) GetUser(ctx context.Context, id int) (*model.User, error) {
	users, err := d.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].ID == id {
			return &users[i], nil
		}
	}
	return nil, fmt.Errorf("пользователь %d: %w", id, ErrNotFound)
}

// SearchUsersByEmail ищет пользователей по подстроке email без учёта регистра.
func (d *Directory) SearchUsersByEmail(ctx context.Context, query string, limit int) ([]model.User, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return []model.User{}, nil
	}
	if limit <= 0 {
		limit = 10
	}

	users, err := d.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]model.User, 0, limit)
	for _, u := range users {
		if strings.Contains(strings.ToLower(u.Email), query) {
			result = append(result, u)
			if len(result) == limit {
				break
			}
		}
	}
	return result, nil
}

// CreateUser создаёт пользователя. Если выбрана роль, права распространяются сразу.
func (d *Directory) CreateUser(ctx context.Context, actor string, input model.UserInput) (*UserChange, error) {
	input = normalizeUserInput(input)
	if err := validateUserInput(input, true); err != nil {
		return nil, err
	}

	var role *model.Role
	if input.RoleID != 0 {
		var err error
		if role, err = d.GetRole(ctx, input.RoleID); err != nil {
			return nil, err
		}
	}

	user, err := d.loader.Backend().CreateUser(ctx, input)
	if err != nil {
		return nil, backendErr("создание пользователя", err)
	}
	if role != nil && user.RoleName == "" {
		user.RoleName = role.Name
	}

	d.logger.Info("Пользователь создан",
		slog.Int("user_id", user.ID),
		slog.String("email", user.Email),
		slog.String("actor", actor),
	)

	change := &UserChange{User: user}
	if role != nil {
		d.propagate(ctx, actor, change, role.Name)
	}
	return change, nil
}

// UpdateUser обновляет пользователя. Смена roleId запускает распространение прав.
// Деактивация администратора запрещена политикой.
func (d *Directory) UpdateUser(ctx context.Context, actor string, id int, input model.UserInput) (*UserChange, error) {
	input = normalizeUserInput(input)
	if err := validateUserInput(input, false); err != nil {
		return nil, err
	}

	current, err := d.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	currentRole, roleErr := d.roleNameOf(ctx, current)

	if current.IsActive && !input.IsActive {
		// Без имени роли нельзя исключить администратора
		if roleErr != nil {
			return nil, backendErr("роль пользователя", roleErr)
		}
		if err := rbac.CheckDeactivateUser(current, currentRole); err != nil {
			return nil, err
		}
	}

	roleChanged := input.RoleID != current.RoleID
	var newRole *model.Role
	if roleChanged && input.RoleID != 0 {
		if newRole, err = d.GetRole(ctx, input.RoleID); err != nil {
			return nil, err
		}
	}

	// Пароль через PUT /Users/{id} не меняется
	input.Password = ""
	user, err := d.loader.Backend().UpdateUser(ctx, id, input)
	if err != nil {
		return nil, backendErr(fmt.Sprintf("обновление пользователя %d", id), err)
	}
	if user.Email == "" {
		user = mergeUser(id, input)
	}
	switch {
	case newRole != nil:
		user.RoleName = newRole.Name
	case !roleChanged && user.RoleName == "":
		user.RoleName = currentRole
	}

	d.logger.Info("Пользователь обновлён",
		slog.Int("user_id", id),
		slog.Bool("role_changed", roleChanged),
		slog.String("actor", actor),
	)

	change := &UserChange{User: user}
	if roleChanged {
		roleName := ""
		if newRole != nil {
			roleName = newRole.Name
		}
		d.propagate(ctx, actor, change, roleName)
	}
	return change, nil
}

// SetUserActive включает или выключает пользователя.
func (d *Directory) SetUserActive(ctx context.Context, actor string, id int, active bool) (*model.User, error) {
	current, err := d.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	input := inputFromUser(current)
	input.IsActive = active

	change, err := d.UpdateUser(ctx, actor, id, input)
	if err != nil {
		return nil, err
	}
	return change.User, nil
}

// ChangeUserRole назначает пользователю роль и распространяет права.
func (d *Directory) ChangeUserRole(ctx context.Context, actor string, id, roleID int) (*UserChange, error) {
	current, err := d.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	input := inputFromUser(current)
	input.RoleID = roleID
	return d.UpdateUser(ctx, actor, id, input)
}

// DeleteUser выполняет мягкое удаление. Администратора удалить нельзя.
func (d *Directory) DeleteUser(ctx context.Context, actor string, id int) error {
	current, err := d.GetUser(ctx, id)
	if err != nil {
		return err
	}
	roleName, err := d.roleNameOf(ctx, current)
	if err != nil {
		return backendErr("роль пользователя", err)
	}
	if err := rbac.CheckDeleteUser(current, roleName); err != nil {
		return err
	}

	if err := d.loader.Backend().DeleteUser(ctx, id); err != nil {
		return backendErr(fmt.Sprintf("удаление пользователя %d", id), err)
	}

	d.logger.Info("Пользователь удалён",
		slog.Int("user_id", id),
		slog.String("email", current.Email),
		slog.String("actor", actor),
	)
	return nil
}

// propagate запускает распространение и записывает исход в change.
func (d *Directory) propagate(ctx context.Context, actor string, change *UserChange, roleName string) {
	if d.propagator == nil {
		return
	}
	res, err := d.propagator.OnRoleChange(ctx, actor, change.User.ID, roleName)
	change.Propagation = res
	change.PropagationErr = err
}

// roleNameOf возвращает имя роли пользователя (из пользователя или списка ролей).
// Ошибка означает, что роль не удалось определить.
func (d *Directory) roleNameOf(ctx context.Context, u *model.User) (string, error) {
	if u.RoleName != "" || u.RoleID == 0 {
		return u.RoleName, nil
	}
	role, err := d.GetRole(ctx, u.RoleID)
	if err != nil {
		return "", err
	}
	return role.Name, nil
}

// --- Роли ---

// ListRoles возвращает все роли.
func (d *Directory) ListRoles(ctx context.Context) ([]model.Role, error) {
	roles, err := d.loader.Roles(ctx)
	if err != nil {
		return nil, backendErr("список ролей", err)
	}
	result := make([]model.Role, len(roles))
	copy(result, roles)
	return result, nil
}

// GetRole возвращает роль по id.
func (d *Directory) GetRole(ctx context.Context, id int) (*model.Role, error) {
	roles, err := d.ListRoles(ctx)
	if err != nil {
		return nil, err
	}
	for i := range roles {
		if roles[i].ID == id {
			return &roles[i], nil
		}
	}
	return nil, fmt.Errorf("роль %d: %w", id, ErrNotFound)
}

// CreateRole создаёт роль. Имена системных ролей зарезервированы.
func (d *Directory) CreateRole(ctx context.Context, actor string, input model.RoleInput) (*model.Role, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Description = strings.TrimSpace(input.Description)
	if err := validateRoleInput(input); err != nil {
		return nil, err
	}

	role, err := d.loader.Backend().CreateRole(ctx, input)
	if err != nil {
		return nil, backendErr("создание роли", err)
	}

	d.logger.Info("Роль создана",
		slog.Int("role_id", role.ID),
		slog.String("name", role.Name),
		slog.String("actor", actor),
	)
	return role, nil
}

// UpdateRole переименовывает роль. Системные роли не редактируются.
func (d *Directory) UpdateRole(ctx context.Context, actor string, id int, input model.RoleInput) (*model.Role, error) {
	current, err := d.GetRole(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := rbac.CheckEditRole(current); err != nil {
		return nil, err
	}

	input.Name = strings.TrimSpace(input.Name)
	input.Description = strings.TrimSpace(input.Description)
	if err := validateRoleInput(input); err != nil {
		return nil, err
	}

	role, err := d.loader.Backend().UpdateRole(ctx, id, input)
	if err != nil {
		return nil, backendErr(fmt.Sprintf("обновление роли %d", id), err)
	}
	if role.Name == "" {
		role = &model.Role{ID: id, Name: input.Name, Description: input.Description}
	}

	d.logger.Info("Роль обновлена",
		slog.Int("role_id", id),
		slog.String("name", role.Name),
		slog.String("actor", actor),
	)
	return role, nil
}

// RoleDeletionImpact проверяет политику и считает пользователей роли.
// Первый шаг удаления: число показывается в подтверждении.
func (d *Directory) RoleDeletionImpact(ctx context.Context, id int) (*RoleDeletionImpact, error) {
	role, err := d.GetRole(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := rbac.CheckDeleteRole(role); err != nil {
		return nil, err
	}

	users, err := d.loader.Users(ctx)
	if err != nil {
		return nil, backendErr("список пользователей", err)
	}
	affected := 0
	for _, u := range users {
		if u.RoleID == id {
			affected++
		}
	}
	return &RoleDeletionImpact{Role: role, AffectedUsers: affected}, nil
}

// DeleteRole удаляет роль. Системные роли удалить нельзя.
func (d *Directory) DeleteRole(ctx context.Context, actor string, id int) error {
	role, err := d.GetRole(ctx, id)
	if err != nil {
		return err
	}
	if err := rbac.CheckDeleteRole(role); err != nil {
		return err
	}

	if err := d.loader.Backend().DeleteRole(ctx, id); err != nil {
		return backendErr(fmt.Sprintf("удаление роли %d", id), err)
	}

	d.logger.Info("Роль удалена",
		slog.Int("role_id", id),
		slog.String("name", role.Name),
		slog.String("actor", actor),
	)
	return nil
}

// --- Валидация ---

func normalizeUserInput(in model.UserInput) model.UserInput {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	return in
}

func validateUserInput(in model.UserInput, creating bool) error {
	var problems []string
	if in.FirstName == "" {
		problems = append(problems, "не указано имя")
	}
	if in.LastName == "" {
		problems = append(problems, "не указана фамилия")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil || !strings.Contains(in.Email, "@") {
		problems = append(problems, "некорректный email")
	}
	if creating && len(in.Password) < 8 {
		problems = append(problems, "пароль короче 8 символов")
	}
	if in.RoleID < 0 {
		problems = append(problems, "некорректная роль")
	}
	if len(problems) > 0 {
		return validationErr("%s", strings.Join(problems, "; "))
	}
	return nil
}

func validateRoleInput(in model.RoleInput) error {
	if in.Name == "" {
		return validationErr("не указано имя роли")
	}
	if rbac.IsSystemRole(in.Name) {
		return validationErr("имя %q зарезервировано за системной ролью", in.Name)
	}
	return nil
}

func inputFromUser(u *model.User) model.UserInput {
	return model.UserInput{
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		RoleID:    u.RoleID,
		IsActive:  u.IsActive,
	}
}

func mergeUser(id int, in model.UserInput) *model.User {
	return &model.User{
		ID:        id,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		RoleID:    in.RoleID,
		IsActive:  in.IsActive,
	}
}

// IsPolicyViolation — ошибка политики ролей (показывается как уведомление).
func IsPolicyViolation(err error) bool {
	var pv *rbac.PolicyViolation
	return errors.As(err, &pv)
}
