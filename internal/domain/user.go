package domain

// Role is a role assignment on a user row. Roles are compared by ID.
type Role struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// UserRow is one row of a cached user listing.
type UserRow struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Roles     []Role `json:"roles"`
}

// Page is a page of rows as returned by the profile service.
type Page struct {
	Rows  []UserRow `json:"rows"`
	Total int       `json:"total"`
}

// Clone returns a deep copy of the page.
func (p Page) Clone() Page {
	out := Page{Total: p.Total}
	if p.Rows == nil {
		return out
	}
	out.Rows = make([]UserRow, len(p.Rows))
	for i, row := range p.Rows {
		out.Rows[i] = row.Clone()
	}
	return out
}

// Row returns a pointer to the row with the given id inside the page.
func (p *Page) Row(id int64) (*UserRow, bool) {
	for i := range p.Rows {
		if p.Rows[i].ID == id {
			return &p.Rows[i], true
		}
	}
	return nil, false
}

// Clone returns a deep copy of the row.
func (r UserRow) Clone() UserRow {
	out := r
	if r.Roles != nil {
		out.Roles = make([]Role, len(r.Roles))
		copy(out.Roles, r.Roles)
	}
	return out
}

// HasRole reports whether a role with the given id is assigned.
func (r UserRow) HasRole(id int64) bool {
	for _, role := range r.Roles {
		if role.ID == id {
			return true
		}
	}
	return false
}

// ProfileUpdate carries the editable profile fields. Nil fields are left untouched.
type ProfileUpdate struct {
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Email     *string `json:"email,omitempty"`
}

// Apply writes the non-nil fields onto the row.
func (u ProfileUpdate) Apply(row *UserRow) {
	if u.FirstName != nil {
		row.FirstName = *u.FirstName
	}
	if u.LastName != nil {
		row.LastName = *u.LastName
	}
	if u.Email != nil {
		row.Email = *u.Email
	}
}

// Empty reports whether the update changes nothing.
func (u ProfileUpdate) Empty() bool {
	return u.FirstName == nil && u.LastName == nil && u.Email == nil
}
