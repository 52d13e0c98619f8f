package database

import (
	"context"
	"fmt"

	"deskbook/internal/models"
)

func (db *DB) InsertAuditEntry(ctx context.Context, eventType, payload string) error {
	query := `INSERT INTO audit_log (event_type, payload) VALUES (?, ?)`
	if _, err := db.ExecContext(ctx, query, eventType, payload); err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

func (db *DB) ListAuditEntries(ctx context.Context, limit int) ([]*models.AuditEntry, error) {
	query := `SELECT id, event_type, payload, created_at FROM audit_log ORDER BY id DESC LIMIT ?`
	rows, err := db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.AuditEntry
	for rows.Next() {
		e := &models.AuditEntry{}
		if err := rows.Scan(&e.ID, &e.EventType, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
