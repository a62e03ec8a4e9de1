package repository

import (
	"context"

	"github.com/Domenick1991/wabooking/internal/domain"
)

type UserRepository interface {
	// Ensure returns the user for address, creating it on first contact.
	Ensure(ctx context.Context, address string) (*domain.User, error)
	UpdateEmail(ctx context.Context, userID int64, email string) error
}

type PGUserRepository struct {
	db DB
}

func NewUserRepository(db DB) UserRepository {
	return &PGUserRepository{db: db}
}

func (r *PGUserRepository) Ensure(ctx context.Context, address string) (*domain.User, error) {
	var u domain.User
	err := r.db.QueryRow(ctx, `INSERT INTO users (address) VALUES ($1)
		ON CONFLICT (address) DO UPDATE SET address = EXCLUDED.address
		RETURNING id, address, COALESCE(email, ''), created_at`, address).
		Scan(&u.ID, &u.Address, &u.Email, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PGUserRepository) UpdateEmail(ctx context.Context, userID int64, email string) error {
	cmd, err := r.db.Exec(ctx, `UPDATE users SET email=$1 WHERE id=$2`, email, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var _ UserRepository = (*PGUserRepository)(nil)
