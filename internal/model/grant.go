package model

// Policy is the constraint set frozen into a grant at creation time. A zero
// ExpiresAt means no expiry; an empty PasswordHash means no password.
type Policy struct {
	ExpiresAt        int64  `json:"expires_at"`
	PasswordHash     string `json:"-"`
	PreventDownload  bool   `json:"prevent_download"`
	TrackViews       bool   `json:"track_views"`
	WatermarkEnabled bool   `json:"watermark_enabled"`
}

// Grant is immutable once created except for State. Policy changes mean a new
// grant so the audit trail keeps pointing at the rules that were in force.
// Recipients empty means anyone holding the link token.
type Grant struct {
	ID          string   `json:"id"`
	FileID      string   `json:"file_id"`
	OwnerID     string   `json:"owner_id"`
	Recipients  []string `json:"recipients"`
	TokenDigest string   `json:"-"`
	Policy      Policy   `json:"policy"`
	State       int      `json:"state"`
	Ctime       int64    `json:"ctime"`
	Mtime       int64    `json:"mtime"`
}
