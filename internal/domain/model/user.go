// Пакет model — доменные модели консоли управления доступом.
// Структуры повторяют JSON-контракт внешнего backend (camelCase).
package model

import "strings"

// User — пользователь backend.
type User struct {
	// ID — идентификатор пользователя в backend
	ID int `json:"id"`
	// FirstName — имя
	FirstName string `json:"firstName"`
	// LastName — фамилия
	LastName string `json:"lastName"`
	// Email — адрес электронной почты (логин)
	Email string `json:"email"`
	// RoleID — ссылка на Role
	RoleID int `json:"roleId"`
	// RoleName — имя роли (backend присылает вместе с пользователем, может быть пустым)
	RoleName string `json:"roleName,omitempty"`
	// IsActive — активен ли пользователь
	IsActive bool `json:"isActive"`
}

// FullName возвращает «Имя Фамилия» без лишних пробелов.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// UserInput — тело POST /Users и PUT /Users/{id}.
type UserInput struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	// Password — только при создании
	Password string `json:"password,omitempty"`
	RoleID   int    `json:"roleId"`
	IsActive bool   `json:"isActive"`
}

// Role — роль backend.
// Флаг IsSystemRole приходит от backend, но для политики UI не используется:
// системность роли определяется по имени (см. rbac.IsSystemRole).
type Role struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	IsSystemRole bool   `json:"isSystemRole"`
}

// RoleInput — тело POST /Roles и PUT /Roles/{id}.
type RoleInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}
