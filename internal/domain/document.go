package domain

import "time"

// Document is the metadata of an encrypted evidence file.
// The file body lives in blob storage, encrypted with the organization key.
type Document struct {
	ID             string    `json:"id"`
	Filename       string    `json:"filename"`
	StoragePath    string    `json:"-"`
	Encrypted      bool      `json:"encrypted"`
	HashChecksum   string    `json:"hash_checksum"` // SHA-256 of the original bytes
	ContentType    string    `json:"content_type"`
	FileSize       int64     `json:"file_size"`
	UploadedByID   string    `json:"uploaded_by_id"`
	OrganizationID int64     `json:"organization_id"`
	ActivityID     *int64    `json:"activity_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Role is a platform role carried by an authenticated user.
type Role string

const (
	RolePlatformAdmin Role = "platform_admin"
	RoleOrgAdmin      Role = "org_admin"
	RoleWorker        Role = "worker"
	RoleAuditor       Role = "auditor"
	RoleViewer        Role = "viewer"
)

// Actor identifies who performs an operation.
type Actor struct {
	UserID         string
	OrganizationID int64
	Role           Role
}

// AuditEntry is an append-only compliance record.
type AuditEntry struct {
	ID             string    `json:"id"`
	ActorID        string    `json:"actor_id"`
	OrganizationID int64     `json:"organization_id"`
	Action         string    `json:"action"`
	EntityType     string    `json:"entity_type"`
	EntityID       string    `json:"entity_id"`
	Details        string    `json:"details,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
