package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/accessadmin/internal/domain/model"
)

// PermissionChangeRepository — журнал полных замен прав (таблица permission_changes).
type PermissionChangeRepository interface {
	// Insert добавляет запись; пустой ID заполняется новым UUID, CreatedAt — временем БД.
	Insert(ctx context.Context, change *model.PermissionChange) error
	// ListByUser возвращает последние записи пользователя, новые первыми.
	ListByUser(ctx context.Context, userID, limit int) ([]*model.PermissionChange, error)
	// GetByID возвращает запись по UUID.
	GetByID(ctx context.Context, id string) (*model.PermissionChange, error)
}

// permissionChangeRepo — реализация PermissionChangeRepository.
type permissionChangeRepo struct {
	db DBTX
}

// NewPermissionChangeRepository создаёт репозиторий журнала изменений прав.
func NewPermissionChangeRepository(db DBTX) PermissionChangeRepository {
	return &permissionChangeRepo{db: db}
}

const pcColumns = `id, user_id, actor, reason, role_name, entries, created_at`

func (r *permissionChangeRepo) Insert(ctx context.Context, change *model.PermissionChange) error {
	if change.ID == "" {
		change.ID = uuid.NewString()
	}
	entries := change.Entries
	if entries == nil {
		entries = map[string]model.PermissionType{}
	}

	query := `
		INSERT INTO permission_changes (id, user_id, actor, reason, role_name, entries)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	err := r.db.QueryRow(ctx, query,
		change.ID, change.UserID, change.Actor, change.Reason, change.RoleName, entries,
	).Scan(&change.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("запись журнала %s: %w", change.ID, ErrConflict)
		}
		return fmt.Errorf("ошибка записи в журнал изменений прав: %w", err)
	}
	return nil
}

func (r *permissionChangeRepo) ListByUser(ctx context.Context, userID, limit int) ([]*model.PermissionChange, error) {
	if limit <= 0 {
		limit = 20
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM permission_changes
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, pcColumns)

	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения журнала изменений прав: %w", err)
	}
	defer rows.Close()

	var result []*model.PermissionChange
	for rows.Next() {
		pc, err := scanPermissionChange(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, pc)
	}
	return result, rows.Err()
}

func (r *permissionChangeRepo) GetByID(ctx context.Context, id string) (*model.PermissionChange, error) {
	query := fmt.Sprintf(`SELECT %s FROM permission_changes WHERE id = $1`, pcColumns)

	pc, err := scanPermissionChange(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return pc, nil
}

// scanPermissionChange читает строку в порядке pcColumns.
func scanPermissionChange(row pgx.Row) (*model.PermissionChange, error) {
	pc := &model.PermissionChange{}
	var id uuid.UUID
	if err := row.Scan(
		&id, &pc.UserID, &pc.Actor, &pc.Reason, &pc.RoleName, &pc.Entries, &pc.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("ошибка сканирования записи журнала: %w", err)
	}
	pc.ID = id.String()
	return pc, nil
}
