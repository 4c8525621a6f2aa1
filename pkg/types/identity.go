package types

// User is the currently authenticated identity as reported by the external
// auth provider. A nil *User means signed out.
type User struct {
	ID            string
	Email         string
	EmailVerified bool
}
