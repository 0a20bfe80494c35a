package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/backpressure/internal/state"
)

// Snapshot describes one saved state row. Data is not included; use
// LatestSnapshot to decode the state itself.
type Snapshot struct {
	ID          string `json:"id"`
	Slot        string `json:"slot"`
	Seq         int64  `json:"seq"`
	Version     int    `json:"version"`
	Step        int64  `json:"step"`
	Resets      int    `json:"resets"`
	Fingerprint string `json:"fingerprint"`
}

// SaveSnapshot appends s to the slot. The snapshot seq is one past the
// slot's current maximum and is assigned inside the write transaction.
func (st *Store) SaveSnapshot(ctx context.Context, slot string, s *state.State) (Snapshot, error) {
	data, err := state.Encode(s)
	if err != nil {
		return Snapshot{}, fmt.Errorf("save snapshot: %w", err)
	}
	fp, err := state.Fingerprint(s)
	if err != nil {
		return Snapshot{}, fmt.Errorf("save snapshot: %w", err)
	}

	snap := Snapshot{
		ID:          st.ids.Generate(),
		Slot:        slot,
		Version:     state.SchemaVersion,
		Step:        s.Step,
		Resets:      s.Meta.Resets,
		Fingerprint: fp,
	}

	err = st.inTx(ctx, func(tx *sql.Tx) error {
		seq, err := nextSeq(ctx, tx, "snapshots", slot)
		if err != nil {
			return err
		}
		snap.Seq = seq
		_, err = tx.ExecContext(ctx, `
			INSERT INTO snapshots
			(id, slot, seq, version, step, resets, fingerprint, data)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			snap.ID,
			snap.Slot,
			snap.Seq,
			snap.Version,
			snap.Step,
			snap.Resets,
			snap.Fingerprint,
			data,
		)
		return err
	})
	if err != nil {
		return Snapshot{}, fmt.Errorf("save snapshot: %w", err)
	}
	return snap, nil
}

// LatestSnapshot loads and decodes the newest snapshot in the slot.
//
// Returns ErrNotFound if the slot is empty, and an error matching
// state.ErrVersionMismatch if the save was written by another schema version.
func (st *Store) LatestSnapshot(ctx context.Context, slot string) (*state.State, Snapshot, error) {
	row := st.db.QueryRowContext(ctx, `
		SELECT id, slot, seq, version, step, resets, fingerprint, data
		FROM snapshots
		WHERE slot = ?
		ORDER BY seq DESC, id COLLATE BINARY DESC
		LIMIT 1
	`, slot)

	var snap Snapshot
	var data []byte
	err := row.Scan(&snap.ID, &snap.Slot, &snap.Seq, &snap.Version, &snap.Step, &snap.Resets, &snap.Fingerprint, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, Snapshot{}, fmt.Errorf("slot %q: %w", slot, ErrNotFound)
	}
	if err != nil {
		return nil, Snapshot{}, fmt.Errorf("latest snapshot: %w", err)
	}

	s, err := state.Decode(data)
	if err != nil {
		return nil, snap, fmt.Errorf("slot %q seq %d: %w", slot, snap.Seq, err)
	}
	return s, snap, nil
}

// ListSnapshots returns the slot's snapshots oldest first.
//
// Returns an empty slice (not nil) if the slot is empty.
func (st *Store) ListSnapshots(ctx context.Context, slot string) ([]Snapshot, error) {
	rows, err := st.db.QueryContext(ctx, `
		SELECT id, slot, seq, version, step, resets, fingerprint
		FROM snapshots
		WHERE slot = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, slot)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	snaps := []Snapshot{}
	for rows.Next() {
		var snap Snapshot
		if err := rows.Scan(&snap.ID, &snap.Slot, &snap.Seq, &snap.Version, &snap.Step, &snap.Resets, &snap.Fingerprint); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return snaps, nil
}

// ListSlots returns every slot with at least one snapshot, sorted.
func (st *Store) ListSlots(ctx context.Context) ([]string, error) {
	rows, err := st.db.QueryContext(ctx, `
		SELECT DISTINCT slot
		FROM snapshots
		ORDER BY slot COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query slots: %w", err)
	}
	defer rows.Close()

	slots := []string{}
	for rows.Next() {
		var slot string
		if err := rows.Scan(&slot); err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slots: %w", err)
	}
	return slots, nil
}

// Prune deletes all but the newest keep snapshots in the slot and reports
// how many rows were removed.
func (st *Store) Prune(ctx context.Context, slot string, keep int) (int64, error) {
	if keep < 1 {
		return 0, fmt.Errorf("prune: keep must be at least 1, got %d", keep)
	}
	res, err := st.db.ExecContext(ctx, `
		DELETE FROM snapshots
		WHERE slot = ?
		AND seq <= (SELECT MAX(seq) FROM snapshots WHERE slot = ?) - ?
	`, slot, slot, keep)
	if err != nil {
		return 0, fmt.Errorf("prune: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune: %w", err)
	}
	return n, nil
}

func (st *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := st.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// nextSeq returns the next per-slot sequence number for table.
// table is always a package constant, never user input.
func nextSeq(ctx context.Context, tx *sql.Tx, table, slot string) (int64, error) {
	var seq int64
	err := tx.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COALESCE(MAX(seq), 0) + 1 FROM %s WHERE slot = ?", table),
		slot,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("next seq: %w", err)
	}
	return seq, nil
}
