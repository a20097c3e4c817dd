package service

import (
	"fmt"
	"time"

	"github.com/sealbox/sealbox/internal/model"
	"github.com/sealbox/sealbox/internal/pkg/password"
	"github.com/sealbox/sealbox/internal/repo"
)

type DecisionCode string

const (
	DecisionAllowed           DecisionCode = "allowed"
	DecisionDeniedNotFound    DecisionCode = "denied_not_found"
	DecisionDeniedRevoked     DecisionCode = "denied_revoked"
	DecisionDeniedExpired     DecisionCode = "denied_expired"
	DecisionDeniedBadPassword DecisionCode = "denied_bad_password"
)

// AccessAttempt is the transient input of one evaluation. It is never
// persisted as-is; the coordinator folds it into an audit entry.
type AccessAttempt struct {
	Password    string
	ViewerEmail string
	RemoteIP    string
	UserAgent   string
}

// Decision is the outcome of evaluating an attempt. Denials are values, not
// errors: a denied viewer is a correctly handled request.
type Decision struct {
	Code          DecisionCode
	Grant         *model.Grant
	AllowDownload bool
	Watermark     string
}

func (d Decision) Allowed() bool {
	return d.Code == DecisionAllowed
}

// Evaluate checks an attempt against a grant. Pure: no clock, no storage, no
// side effects; safe under arbitrary concurrency.
//
// The order is fixed: structural state (missing, revoked, expired) is decided
// before the password, so a correct password on a dead grant learns nothing
// beyond what the dead grant already tells anyone.
func Evaluate(grant *model.Grant, attempt AccessAttempt, now time.Time) Decision {
	if grant == nil {
		return Decision{Code: DecisionDeniedNotFound}
	}
	if grant.State != repo.GrantStateActive {
		return Decision{Code: DecisionDeniedRevoked, Grant: grant}
	}
	if grant.Policy.ExpiresAt > 0 && now.Unix() >= grant.Policy.ExpiresAt {
		return Decision{Code: DecisionDeniedExpired, Grant: grant}
	}
	if grant.Policy.PasswordHash != "" {
		if attempt.Password == "" || !password.Matches(grant.Policy.PasswordHash, attempt.Password) {
			return Decision{Code: DecisionDeniedBadPassword, Grant: grant}
		}
	}
	decision := Decision{
		Code:          DecisionAllowed,
		Grant:         grant,
		AllowDownload: !grant.Policy.PreventDownload,
	}
	if grant.Policy.WatermarkEnabled {
		decision.Watermark = renderWatermark(attempt, now)
	}
	return decision
}

func renderWatermark(attempt AccessAttempt, now time.Time) string {
	identity := attempt.ViewerEmail
	if identity == "" {
		identity = attempt.RemoteIP
	}
	if identity == "" {
		identity = "unknown viewer"
	}
	return fmt.Sprintf("Viewed by %s on %s - CONFIDENTIAL", identity, now.UTC().Format("2006-01-02 15:04:05 MST"))
}
