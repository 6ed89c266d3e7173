package domain

// Principal is the caller as derived from its bearer token.
type Principal struct {
	Session string
	Token   string
	Subject string
	Roles   []string
	Admin   bool
}

// Authenticated reports whether a verified token was presented.
func (p Principal) Authenticated() bool {
	return p.Token != ""
}
