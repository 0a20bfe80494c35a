package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Prestige records one completed reset.
type Prestige struct {
	ID             string  `json:"id"`
	Slot           string  `json:"slot"`
	Seq            int64   `json:"seq"`
	Resets         int     `json:"resets"` // reset count after this prestige
	Reward         float64 `json:"reward"`
	LifetimeOutput float64 `json:"lifetime_output"`
	Completed      int     `json:"completed"`
}

// RecordPrestige appends p to the slot's history. ID, Slot and Seq are
// assigned by the store; the stored record is returned.
func (st *Store) RecordPrestige(ctx context.Context, slot string, p Prestige) (Prestige, error) {
	p.ID = st.ids.Generate()
	p.Slot = slot

	err := st.inTx(ctx, func(tx *sql.Tx) error {
		seq, err := nextSeq(ctx, tx, "prestiges", slot)
		if err != nil {
			return err
		}
		p.Seq = seq
		_, err = tx.ExecContext(ctx, `
			INSERT INTO prestiges
			(id, slot, seq, resets, reward, lifetime_output, completed)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, p.ID, p.Slot, p.Seq, p.Resets, p.Reward, p.LifetimeOutput, p.Completed)
		return err
	})
	if err != nil {
		return Prestige{}, fmt.Errorf("record prestige: %w", err)
	}
	return p, nil
}

// ListPrestiges returns the slot's reset history oldest first.
//
// Returns an empty slice (not nil) if there is no history.
func (st *Store) ListPrestiges(ctx context.Context, slot string) ([]Prestige, error) {
	rows, err := st.db.QueryContext(ctx, `
		SELECT id, slot, seq, resets, reward, lifetime_output, completed
		FROM prestiges
		WHERE slot = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, slot)
	if err != nil {
		return nil, fmt.Errorf("query prestiges: %w", err)
	}
	defer rows.Close()

	out := []Prestige{}
	for rows.Next() {
		var p Prestige
		if err := rows.Scan(&p.ID, &p.Slot, &p.Seq, &p.Resets, &p.Reward, &p.LifetimeOutput, &p.Completed); err != nil {
			return nil, fmt.Errorf("scan prestige: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate prestiges: %w", err)
	}
	return out, nil
}
