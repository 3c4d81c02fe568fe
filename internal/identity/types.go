package identity

// Principal is the identity resolved from a verified bearer credential.
type Principal struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// User is an account record held by the fixture directory.
type User struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	DisplayName string   `json:"displayName"`
	Tokens      []string `json:"tokens,omitempty"`
}
