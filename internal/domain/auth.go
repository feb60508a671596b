package domain

// Role is the single authorization tag carried by a token.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// Identity is the authenticated caller derived from a verified token. It lives
// for one request only.
type Identity struct {
	SubjectID string `json:"subject_id"`
	Role      Role   `json:"role"`
}
