package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/sla-ticket-service/internal/domain"
)

// insertHistory writes entries continuing at sequence number firstSeq.
func insertHistory(ctx context.Context, tx pgx.Tx, ticketID string, firstSeq int, entries []domain.HistoryEntry) error {
	if len(entries) == 0 {
		return nil
	}
	const query = `
        INSERT INTO ticket_history (ticket_id, seq, kind, actor, comment, details, recorded_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`

	batch := &pgx.Batch{}
	for i, entry := range entries {
		var details []byte
		if entry.Details != nil {
			raw, err := json.Marshal(entry.Details)
			if err != nil {
				return fmt.Errorf("encode history details: %w", err)
			}
			details = raw
		}
		batch.Queue(query, ticketID, firstSeq+i, string(entry.Kind), entry.Actor, entry.Comment, details, entry.Timestamp)
	}
	results := tx.SendBatch(ctx, batch)
	for range entries {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return fmt.Errorf("insert history: %w", err)
		}
	}
	return results.Close()
}

// loadHistory returns every history row grouped by ticket id in
// sequence order.
func loadHistory(ctx context.Context, q pgx.Tx) (map[string][]domain.HistoryEntry, error) {
	const query = `
        SELECT ticket_id, kind, actor, comment, details, recorded_at
        FROM ticket_history ORDER BY ticket_id, seq ASC`
	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string][]domain.HistoryEntry)
	for rows.Next() {
		var (
			ticketID string
			kind     string
			entry    domain.HistoryEntry
			details  []byte
		)
		if err := rows.Scan(&ticketID, &kind, &entry.Actor, &entry.Comment, &details, &entry.Timestamp); err != nil {
			return nil, err
		}
		entry.Kind = domain.HistoryKind(kind)
		decoded, err := domain.DecodeHistoryDetails(entry.Kind, details)
		if err != nil {
			return nil, err
		}
		entry.Details = decoded
		entry.Timestamp = entry.Timestamp.UTC()
		result[ticketID] = append(result[ticketID], entry)
	}
	return result, rows.Err()
}
