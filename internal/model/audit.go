package model

// AuditEntry rows are append-only: written once per access attempt or anomaly
// signal, never updated or deleted. GrantID is empty when the presented token
// did not resolve.
type AuditEntry struct {
	ID        string `json:"id"`
	GrantID   string `json:"grant_id"`
	FileID    string `json:"file_id"`
	Kind      string `json:"kind"`
	Decision  string `json:"decision"`
	RemoteIP  string `json:"remote_ip"`
	UserAgent string `json:"user_agent"`
	Detail    string `json:"detail"`
	Ctime     int64  `json:"ctime"`
}
