package cargo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Create registers incoming cargo with status received.
func (s *Store) Create(ctx context.Context, input NewRecord) (*Record, error) {
	input, err := input.normalized()
	if err != nil {
		return nil, err
	}
	timestamp := s.timestamp()

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO cargo_records (
            tracking_number, customer_name, device, status, notes, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		input.TrackingNumber,
		nullableString(input.CustomerName),
		nullableString(input.Device),
		StatusReceived,
		input.Notes,
		timestamp,
		timestamp,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTracking, input.TrackingNumber)
		}
		return nil, fmt.Errorf("insert cargo: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID fetches a record by identifier.
func (s *Store) GetByID(ctx context.Context, id int64) (*Record, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+recordColumns+` FROM cargo_records WHERE id = ?`, id)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get cargo: %w", err)
	}
	return record, nil
}

// FindByTracking fetches a record by tracking number (case-insensitive).
func (s *Store) FindByTracking(ctx context.Context, tracking string) (*Record, error) {
	tracking = strings.ToUpper(strings.TrimSpace(tracking))
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT `+recordColumns+` FROM cargo_records WHERE tracking_number = ?`,
		tracking,
	)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: tracking %s", ErrNotFound, tracking)
	}
	if err != nil {
		return nil, fmt.Errorf("find by tracking: %w", err)
	}
	return record, nil
}

// List returns records ordered by ID, optionally filtered by status.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Record, error) {
	query := `SELECT ` + recordColumns + ` FROM cargo_records`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
		for _, status := range statuses {
			args = append(args, status)
		}
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list cargo: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cargo: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// UpdateStatus moves a record to status.
func (s *Store) UpdateStatus(ctx context.Context, id int64, status Status) error {
	if _, ok := statusSet[status]; !ok {
		return invalid(fmt.Sprintf("unknown cargo status %q", status))
	}
	return s.updateColumns(ctx, id, "status = ?", status)
}

// Update persists every mutable field of record and refreshes its UpdatedAt.
func (s *Store) Update(ctx context.Context, record *Record) error {
	if record == nil {
		return errors.New("record is nil")
	}
	if _, ok := statusSet[record.Status]; !ok {
		return invalid(fmt.Sprintf("unknown cargo status %q", record.Status))
	}
	timestamp := s.timestamp()
	res, err := s.execWithRetry(
		ctx,
		`UPDATE cargo_records
         SET customer_name = ?, device = ?, status = ?, notes = ?, updated_at = ?
         WHERE id = ?`,
		nullableString(strings.TrimSpace(record.CustomerName)),
		nullableString(strings.TrimSpace(record.Device)),
		record.Status,
		record.Notes,
		timestamp,
		record.ID,
	)
	if err != nil {
		return fmt.Errorf("update cargo: %w", err)
	}
	if err := expectOneRow(res, record.ID); err != nil {
		return err
	}
	if updated, err := parseTimeString(timestamp); err == nil {
		record.UpdatedAt = updated
	}
	return nil
}

// Remove deletes a record.
func (s *Store) Remove(ctx context.Context, id int64) error {
	res, err := s.execWithRetry(ctx, `DELETE FROM cargo_records WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("remove cargo: %w", err)
	}
	return expectOneRow(res, id)
}

// Stats returns a count of records grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT status, COUNT(1) FROM cargo_records GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("cargo stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

func (s *Store) updateColumns(ctx context.Context, id int64, assignment string, value any) error {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE cargo_records SET `+assignment+`, updated_at = ? WHERE id = ?`,
		value,
		s.timestamp(),
		id,
	)
	if err != nil {
		return fmt.Errorf("update cargo: %w", err)
	}
	return expectOneRow(res, id)
}

func expectOneRow(res sql.Result, id int64) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return nil
}
