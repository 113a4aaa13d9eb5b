package static

import (
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/osvaldoandrade/imagegenie/pkg/auth"
)

// ScopeControl allows batch submission and cancellation. Read-only routes need no scope.
const ScopeControl = "imagegenie:control"

type validator struct {
	token   string
	subject string
	scopes  []string
}

// NewValidator returns a validator that accepts exactly one bearer token.
func NewValidator(token, subject string, scopes ...string) (auth.Validator, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("static auth: token is required")
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = "local"
	}
	if len(scopes) == 0 {
		scopes = []string{ScopeControl}
	}
	return &validator{token: token, subject: subject, scopes: scopes}, nil
}

func (v *validator) Validate(token string) (*auth.Claims, error) {
	if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), []byte(v.token)) != 1 {
		return nil, errors.New("invalid token")
	}
	return &auth.Claims{Subject: v.subject, Scopes: v.scopes}, nil
}
