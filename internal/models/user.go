package models

// User is the caller identity carried by a bearer token.
type User struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	FName  string `json:"fname"`
	LName  string `json:"lname"`
}
