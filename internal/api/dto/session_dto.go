package dto

// SessionRequest stores a bearer token for the browser session.
type SessionRequest struct {
	Token string `json:"token" validate:"required,jwt"`
}

// SessionResponse describes the caller as derived from its token.
type SessionResponse struct {
	Authenticated bool     `json:"authenticated"`
	Admin         bool     `json:"admin"`
	Subject       string   `json:"subject,omitempty"`
	Roles         []string `json:"roles"`
}
