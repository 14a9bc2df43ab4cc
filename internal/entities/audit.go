package entities

import "time"

type AuditAction string

const (
	AuditActionCreateUser         AuditAction = "create_user"
	AuditActionCreateDefaultAdmin AuditAction = "create_default_admin"
	AuditActionChangePassword     AuditAction = "change_password"
	AuditActionAdminResetPassword AuditAction = "admin_reset_password"
	AuditActionAddBook            AuditAction = "add_book"
	AuditActionUpdateBook         AuditAction = "update_book"
	AuditActionDeleteBook         AuditAction = "delete_book"
	AuditActionAddMember          AuditAction = "add_member"
	AuditActionBorrowBook         AuditAction = "borrow_book"
	AuditActionReturnBook         AuditAction = "return_book"
	AuditActionSettingsUpdate     AuditAction = "settings_update"
	AuditActionExportCSV          AuditAction = "export_csv"
	AuditActionDownloadTemplate   AuditAction = "download_template"
	AuditActionLogin              AuditAction = "login"
	AuditActionLogout             AuditAction = "logout"
)

var auditActions = map[AuditAction]bool{
	AuditActionCreateUser:         true,
	AuditActionCreateDefaultAdmin: true,
	AuditActionChangePassword:     true,
	AuditActionAdminResetPassword: true,
	AuditActionAddBook:            true,
	AuditActionUpdateBook:         true,
	AuditActionDeleteBook:         true,
	AuditActionAddMember:          true,
	AuditActionBorrowBook:         true,
	AuditActionReturnBook:         true,
	AuditActionSettingsUpdate:     true,
	AuditActionExportCSV:          true,
	AuditActionDownloadTemplate:   true,
	AuditActionLogin:              true,
	AuditActionLogout:             true,
}

func (a AuditAction) IsValid() bool {
	return auditActions[a]
}

// AuditEntry is append-only: rows are inserted and never updated or deleted.
type AuditEntry struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	Actor     string      `gorm:"index;not null;size:64" json:"actor"`
	Action    AuditAction `gorm:"index;not null;size:50" json:"action"`
	Details   string      `gorm:"type:text" json:"details"`
	CreatedAt time.Time   `gorm:"index;not null" json:"created_at"`
}

func (AuditEntry) TableName() string {
	return "audit_log"
}
