package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/xela07ax/toggle-audit-pipeline/internal/domain"
)

// GetUserByEmail нужен пути выдачи токена (POST /auth/token).
// Отсутствие пользователя — не ошибка: возвращаем nil, nil.
func (r *AuditRepo) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `
		SELECT id, email, password_hash, role, created_at, updated_at
		FROM users WHERE email = $1`

	u := &domain.User{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}
