package model

const RoleAdmin = "admin"

// Identity is the already-authenticated caller, as supplied by the upstream gateway.
type Identity struct {
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}
