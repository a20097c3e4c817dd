package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sealbox/sealbox/internal/model"
	"github.com/sealbox/sealbox/internal/pkg/password"
	"github.com/sealbox/sealbox/internal/repo"
)

func activeGrant(t *testing.T, policy model.Policy) *model.Grant {
	t.Helper()
	return &model.Grant{
		ID:      "grant-1",
		FileID:  "file-1",
		OwnerID: "owner-1",
		Policy:  policy,
		State:   repo.GrantStateActive,
		Ctime:   time.Now().Unix(),
		Mtime:   time.Now().Unix(),
	}
}

func TestEvaluateNilGrant(t *testing.T) {
	decision := Evaluate(nil, AccessAttempt{}, time.Now())
	require.Equal(t, DecisionDeniedNotFound, decision.Code)
	require.Nil(t, decision.Grant)
}

func TestEvaluateRevokedBeforeAnythingElse(t *testing.T) {
	hash, err := password.Hash("hunter2")
	require.NoError(t, err)
	grant := activeGrant(t, model.Policy{
		ExpiresAt:    time.Now().Add(-time.Hour).Unix(),
		PasswordHash: hash,
	})
	grant.State = repo.GrantStateRevoked

	// Revocation wins over both the elapsed expiry and the correct password.
	decision := Evaluate(grant, AccessAttempt{Password: "hunter2"}, time.Now())
	require.Equal(t, DecisionDeniedRevoked, decision.Code)
}

func TestEvaluateExpiryBoundary(t *testing.T) {
	expiry := time.Now().Add(time.Hour).Truncate(time.Second)
	grant := activeGrant(t, model.Policy{ExpiresAt: expiry.Unix()})

	require.Equal(t, DecisionAllowed, Evaluate(grant, AccessAttempt{}, expiry.Add(-time.Second)).Code)
	require.Equal(t, DecisionDeniedExpired, Evaluate(grant, AccessAttempt{}, expiry).Code)
	require.Equal(t, DecisionDeniedExpired, Evaluate(grant, AccessAttempt{}, expiry.Add(time.Second)).Code)

	// Evaluation has no side effects: the boundary answers stay stable
	// however often it runs.
	for i := 0; i < 10; i++ {
		require.Equal(t, DecisionDeniedExpired, Evaluate(grant, AccessAttempt{}, expiry).Code)
	}
}

func TestEvaluateExpiredBeforePassword(t *testing.T) {
	hash, err := password.Hash("hunter2")
	require.NoError(t, err)
	grant := activeGrant(t, model.Policy{
		ExpiresAt:    time.Now().Add(7 * 24 * time.Hour).Unix(),
		PasswordHash: hash,
	})

	// Day one with the right password: allowed.
	atDayOne := time.Now().Add(24 * time.Hour)
	require.Equal(t, DecisionAllowed, Evaluate(grant, AccessAttempt{Password: "hunter2"}, atDayOne).Code)

	// Day eight with the same right password: the grant is dead first.
	atDayEight := time.Now().Add(8 * 24 * time.Hour)
	require.Equal(t, DecisionDeniedExpired, Evaluate(grant, AccessAttempt{Password: "hunter2"}, atDayEight).Code)
}

func TestEvaluatePassword(t *testing.T) {
	hash, err := password.Hash("hunter2")
	require.NoError(t, err)
	grant := activeGrant(t, model.Policy{PasswordHash: hash})

	require.Equal(t, DecisionDeniedBadPassword, Evaluate(grant, AccessAttempt{}, time.Now()).Code)
	require.Equal(t, DecisionDeniedBadPassword, Evaluate(grant, AccessAttempt{Password: "wrong"}, time.Now()).Code)
	require.Equal(t, DecisionAllowed, Evaluate(grant, AccessAttempt{Password: "hunter2"}, time.Now()).Code)
}

func TestEvaluateNoExpiryNeverExpires(t *testing.T) {
	grant := activeGrant(t, model.Policy{})
	farFuture := time.Now().Add(100 * 365 * 24 * time.Hour)
	require.Equal(t, DecisionAllowed, Evaluate(grant, AccessAttempt{}, farFuture).Code)
}

func TestEvaluateAllowedCarriesConstraints(t *testing.T) {
	grant := activeGrant(t, model.Policy{
		PreventDownload:  true,
		TrackViews:       true,
		WatermarkEnabled: true,
	})
	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	decision := Evaluate(grant, AccessAttempt{ViewerEmail: "viewer@example.com", RemoteIP: "10.0.0.9"}, now)

	require.Equal(t, DecisionAllowed, decision.Code)
	require.False(t, decision.AllowDownload)
	require.Equal(t, "Viewed by viewer@example.com on 2026-03-14 09:26:53 UTC - CONFIDENTIAL", decision.Watermark)
}

func TestEvaluateWatermarkFallsBackToIP(t *testing.T) {
	grant := activeGrant(t, model.Policy{WatermarkEnabled: true})
	decision := Evaluate(grant, AccessAttempt{RemoteIP: "10.0.0.9"}, time.Now())
	require.Contains(t, decision.Watermark, "10.0.0.9")
}

func TestEvaluateNoWatermarkWhenDisabled(t *testing.T) {
	grant := activeGrant(t, model.Policy{TrackViews: true})
	decision := Evaluate(grant, AccessAttempt{ViewerEmail: "viewer@example.com"}, time.Now())
	require.Equal(t, DecisionAllowed, decision.Code)
	require.Empty(t, decision.Watermark)
	require.True(t, decision.AllowDownload)
}
