package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type RoleStore struct{ DB DBOps }

func NewRoleStore(db DBOps) *RoleStore { return &RoleStore{DB: db} }

func (s *RoleStore) Assign(ctx context.Context, userID uuid.UUID, role Role) error {
	if !role.Valid() {
		return ErrConflict
	}
	_, err := s.DB.Exec(ctx, `
		INSERT INTO user_role (user_id, role)
		VALUES ($1, $2)
		ON CONFLICT (user_id, role) DO NOTHING`, userID, role)
	return err
}

func (s *RoleStore) RolesOf(ctx context.Context, userID uuid.UUID) ([]Role, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT role FROM user_role WHERE user_id = $1 ORDER BY role`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		var r Role
		if err := rows.Scan(&r); err != nil {
			return nil, err
		}
		roles = append(roles, r)
	}
	return roles, rows.Err()
}

func (s *RoleStore) Has(ctx context.Context, userID uuid.UUID, role Role) (bool, error) {
	var one int
	err := s.DB.QueryRow(ctx, `
		SELECT 1 FROM user_role WHERE user_id = $1 AND role = $2`, userID, role).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
