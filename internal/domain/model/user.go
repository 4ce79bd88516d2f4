package model

// User is the minimal identity row the engine consults before allocation.
// Account management lives upstream; the engine only ever reads users.
type User struct {
	Meta
	Name  string
	Email string
}
