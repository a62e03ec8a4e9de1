package repository

import (
	"context"

	"github.com/Domenick1991/wabooking/internal/domain"
)

type MessageLogRepository interface {
	Append(ctx context.Context, entry *domain.MessageLog) error
}

type PGMessageLogRepository struct {
	db DB
}

func NewMessageLogRepository(db DB) MessageLogRepository {
	return &PGMessageLogRepository{db: db}
}

func (r *PGMessageLogRepository) Append(ctx context.Context, entry *domain.MessageLog) error {
	return r.db.QueryRow(ctx, `INSERT INTO message_logs (address, direction, body) VALUES ($1, $2, $3) RETURNING id, created_at`,
		entry.Address, entry.Direction, entry.Body).Scan(&entry.ID, &entry.CreatedAt)
}

var _ MessageLogRepository = (*PGMessageLogRepository)(nil)
