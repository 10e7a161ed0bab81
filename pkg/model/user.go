package model

// User is stored at users/{userId}. Password is the plaintext field of older
// records and is replaced by PasswordHash on the next successful sign-in.
type User struct {
	Email        string `json:"email" validate:"required,email,max=254"`
	Name         string `json:"name,omitempty" validate:"max=100"`
	PasswordHash string `json:"password_hash,omitempty"`
	Password     string `json:"password,omitempty"`
}
