package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/sla-ticket-service/internal/domain"
)

type postgresTicketStore struct {
	pool *pgxpool.Pool
}

// NewPostgresTicketStore builds the write-through store backed by pgx.
func NewPostgresTicketStore(pool *pgxpool.Pool) TicketStore {
	return &postgresTicketStore{pool: pool}
}

func (s *postgresTicketStore) Save(ctx context.Context, ticket *domain.Ticket, expectedVersion int64, appended []domain.HistoryEntry) error {
	snapshot, err := json.Marshal(toRecord(ticket))
	if err != nil {
		return fmt.Errorf("encode ticket: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if expectedVersion == 0 {
		const insert = `
            INSERT INTO tickets (id, code, status, priority, requester, assigned_to, sla_limit, justification_status, version, snapshot, created_at)
            VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`
		if _, err := tx.Exec(ctx, insert,
			ticket.ID,
			ticket.Code,
			string(ticket.Status),
			string(ticket.Priority),
			ticket.Requester,
			ticket.AssignedTo,
			ticket.SLALimit,
			string(ticket.JustificationStatus),
			ticket.Version,
			snapshot,
			ticket.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert ticket: %w", err)
		}
	} else {
		const update = `
            UPDATE tickets SET status=$2, priority=$3, assigned_to=$4, sla_limit=$5, justification_status=$6,
                version=$7, snapshot=$8, updated_at=NOW()
            WHERE id=$1 AND version=$9`
		tag, err := tx.Exec(ctx, update,
			ticket.ID,
			string(ticket.Status),
			string(ticket.Priority),
			ticket.AssignedTo,
			ticket.SLALimit,
			string(ticket.JustificationStatus),
			ticket.Version,
			snapshot,
			expectedVersion,
		)
		if err != nil {
			return fmt.Errorf("update ticket: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: ticket %s is not at version %d", domain.ErrVersionConflict, ticket.ID, expectedVersion)
		}
	}

	firstSeq := len(ticket.History) - len(appended)
	if err := insertHistory(ctx, tx, ticket.ID, firstSeq, appended); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *postgresTicketStore) LoadAll(ctx context.Context) ([]*domain.Ticket, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly, IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	histories, err := loadHistory(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	rows, err := tx.Query(ctx, `SELECT version, snapshot FROM tickets ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.Ticket
	for rows.Next() {
		var (
			version  int64
			snapshot []byte
		)
		if err := rows.Scan(&version, &snapshot); err != nil {
			return nil, err
		}
		var record ticketRecord
		if err := json.Unmarshal(snapshot, &record); err != nil {
			return nil, fmt.Errorf("decode ticket: %w", err)
		}
		history := histories[record.ID]
		if history == nil {
			history = []domain.HistoryEntry{}
		}
		result = append(result, record.toTicket(version, history))
	}
	return result, rows.Err()
}
