package repository

import (
	"context"
	"database/sql"
	"encoding/json"
)

// AuditRepo appends audit-log entries.  Entries ride the same
// transaction as the mutation they describe so the audit trail never
// references a change that was rolled back.
type AuditRepo struct {
	db *sql.DB
}

// NewAuditRepo returns a new AuditRepo bound to the given database.
func NewAuditRepo(db *sql.DB) *AuditRepo { return &AuditRepo{db: db} }

// InsertTx appends one audit entry within a transaction.  Detail is
// marshalled to JSON; a nil detail stores an empty object.
func (r *AuditRepo) InsertTx(ctx context.Context, tx *sql.Tx, propertyID uint64, actor, action, entity string, entityID uint64, detail any) error {
	body := []byte("{}")
	if detail != nil {
		b, err := json.Marshal(detail)
		if err != nil {
			return err
		}
		body = b
	}
	const q = `INSERT INTO audit_log (property_id, actor, action, entity, entity_id, detail)
	           VALUES (?, ?, ?, ?, ?, ?)`
	_, err := tx.ExecContext(ctx, q, propertyID, actor, action, entity, entityID, body)
	return err
}
