package friends

import "time"

const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
)

// Edge is one friendships row. UserID sent the request, FriendID received it.
type Edge struct {
	UserID    string    `json:"user_id"`
	FriendID  string    `json:"friend_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Other returns the endpoint of e that is not userID.
func (e Edge) Other(userID string) string {
	if e.UserID == userID {
		return e.FriendID
	}
	return e.UserID
}
