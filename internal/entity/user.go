package entity

// UserLoginData is what the token middleware extracts from an identity provider token.
type UserLoginData struct {
	ID       string
	Username string
	Email    string
}
