package models

import "time"

// AuditAction constants represent actions to be logged.
const (
	AuditActionLogin          = "LOGIN"
	AuditActionLogout         = "LOGOUT"
	AuditActionDocumentRead   = "DOCUMENT_READ"
	AuditActionDocumentCreate = "DOCUMENT_CREATE"
	AuditActionDocumentDelete = "DOCUMENT_DELETE"
	AuditActionLockAcquire    = "LOCK_ACQUIRE"
	AuditActionLockRelease    = "LOCK_RELEASE"
	AuditActionBackupCreate   = "BACKUP_CREATE"
	AuditActionBackupRestore  = "BACKUP_RESTORE"
	AuditActionBackupPrune    = "BACKUP_PRUNE"
	AuditActionConfigUpdate   = "CONFIG_UPDATE"
	AuditActionTaskUpdate     = "TASK_UPDATE"
	AuditActionTaskRun        = "TASK_RUN"
	AuditActionAlertProcess   = "ALERT_PROCESS"
)

// AuditLog represents an append-only audit trail record. Writes are best
// effort; a failed append never fails the parent operation.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	EntityType string    `db:"entity_type" json:"entity_type"`
	EntityID   *string   `db:"entity_id" json:"entity_id,omitempty"`
	Details    []byte    `db:"details" json:"details,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
