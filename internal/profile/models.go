package profile

// Summary is the read-only projection shown next to posts.
type Summary struct {
	ID        string  `json:"id"`
	Username  string  `json:"username"`
	AvatarURL *string `json:"avatar_url"`
}

const unknownUsername = "Unknown"

// Placeholder stands in for an author whose profile row is missing.
func Placeholder(id string) Summary {
	return Summary{ID: id, Username: unknownUsername}
}
