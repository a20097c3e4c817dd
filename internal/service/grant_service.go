package service

import (
	"context"
	"strings"

	"github.com/sealbox/sealbox/internal/model"
	appErr "github.com/sealbox/sealbox/internal/pkg/errors"
	"github.com/sealbox/sealbox/internal/pkg/password"
	"github.com/sealbox/sealbox/internal/pkg/timeutil"
	"github.com/sealbox/sealbox/internal/pkg/token"
	"github.com/sealbox/sealbox/internal/repo"
)

type GrantService struct {
	grants *repo.GrantRepo
	files  *repo.FileRepo
}

func NewGrantService(grants *repo.GrantRepo, files *repo.FileRepo) *GrantService {
	return &GrantService{grants: grants, files: files}
}

// PolicyInput is the share dialog's policy object. ExpiryDate of zero means
// no expiry; PasswordProtected without a Password is rejected.
type PolicyInput struct {
	ExpiryDate        int64  `json:"expiry_date"`
	PasswordProtected bool   `json:"password_protected"`
	Password          string `json:"password"`
	PreventDownload   bool   `json:"prevent_download"`
	TrackViews        bool   `json:"track_views"`
	WatermarkEnabled  bool   `json:"watermark_enabled"`
}

// CreatedGrant carries the raw token alongside the grant. This is the only
// moment the token exists in cleartext on the server side.
type CreatedGrant struct {
	Grant *model.Grant `json:"grant"`
	Token string       `json:"token"`
}

func (s *GrantService) CreateGrant(ctx context.Context, ownerID, fileID string, recipients []string, input PolicyInput) (*CreatedGrant, error) {
	file, err := s.files.GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if file.OwnerID != ownerID {
		return nil, appErr.ErrForbidden
	}

	now := timeutil.NowUnix()
	if input.ExpiryDate != 0 && input.ExpiryDate <= now {
		return nil, appErr.ErrInvalidPolicy
	}
	if input.PasswordProtected && strings.TrimSpace(input.Password) == "" {
		return nil, appErr.ErrInvalidPolicy
	}
	if !input.PasswordProtected && input.Password != "" {
		return nil, appErr.ErrInvalidPolicy
	}

	policy := model.Policy{
		ExpiresAt:        input.ExpiryDate,
		PreventDownload:  input.PreventDownload,
		TrackViews:       input.TrackViews,
		WatermarkEnabled: input.WatermarkEnabled,
	}
	if input.PasswordProtected {
		hash, err := password.Hash(input.Password)
		if err != nil {
			return nil, err
		}
		policy.PasswordHash = hash
	}

	grant := &model.Grant{
		ID:         newID(),
		FileID:     file.ID,
		OwnerID:    ownerID,
		Recipients: normalizeRecipients(recipients),
		Policy:     policy,
		State:      repo.GrantStateActive,
		Ctime:      now,
		Mtime:      now,
	}

	// Digest collisions are a rounding error away from impossible, but the
	// unique index makes them loud rather than silent. Retry with a fresh
	// token instead of surfacing the conflict.
	var raw string
	for attempt := 0; ; attempt++ {
		raw, err = token.Mint()
		if err != nil {
			return nil, err
		}
		grant.TokenDigest = token.Digest(raw)
		err = s.grants.Create(ctx, grant)
		if err == nil {
			break
		}
		if !appErr.IsConflict(err) || attempt >= 2 {
			return nil, err
		}
	}
	return &CreatedGrant{Grant: grant, Token: raw}, nil
}

// Revoke is idempotent: revoking an already revoked grant succeeds. Only the
// owner may revoke.
func (s *GrantService) Revoke(ctx context.Context, byUserID, grantID string) error {
	grant, err := s.grants.GetByID(ctx, grantID)
	if err != nil {
		return err
	}
	if grant.OwnerID != byUserID {
		return appErr.ErrForbidden
	}
	_, err = s.grants.Revoke(ctx, grantID, timeutil.NowUnix())
	return err
}

// GetByToken resolves a presented token to its grant. Every input, malformed
// included, goes through the same digest computation and indexed probe, so
// the two failure cases are ErrNotFound with the same cost.
func (s *GrantService) GetByToken(ctx context.Context, tok string) (*model.Grant, error) {
	return s.grants.GetByTokenDigest(ctx, token.Digest(tok))
}

func (s *GrantService) GetOwned(ctx context.Context, ownerID, grantID string) (*model.Grant, error) {
	grant, err := s.grants.GetByID(ctx, grantID)
	if err != nil {
		return nil, err
	}
	if grant.OwnerID != ownerID {
		return nil, appErr.ErrForbidden
	}
	return grant, nil
}

func (s *GrantService) ListByFile(ctx context.Context, ownerID, fileID string) ([]model.Grant, error) {
	if _, err := s.files.GetOwned(ctx, ownerID, fileID); err != nil {
		return nil, err
	}
	return s.grants.ListByFile(ctx, ownerID, fileID)
}

func normalizeRecipients(recipients []string) []string {
	out := make([]string, 0, len(recipients))
	seen := make(map[string]struct{}, len(recipients))
	for _, r := range recipients {
		r = strings.ToLower(strings.TrimSpace(r))
		if r == "" {
			continue
		}
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
