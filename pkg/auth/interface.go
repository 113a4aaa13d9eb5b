package auth

// Claims identifies the caller of the local API.
type Claims struct {
	Subject string
	Scopes  []string
}

// HasScope checks if the claims contain a specific scope
func (c *Claims) HasScope(scope string) bool {
	if c == nil {
		return false
	}
	for _, s := range c.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// Validator validates bearer tokens presented to the local API.
type Validator interface {
	Validate(token string) (*Claims, error)
}
