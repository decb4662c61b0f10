package domain

import "time"

// Comment is one entry in a ticket's conversation, public or internal.
type Comment struct {
	AuthorID  int64
	Public    bool
	CreatedAt time.Time
	Body      string
}

// IsAgent reports whether the comment was written by someone other than the
// ticket requester. The source exposes no role on comments, so authorship
// relative to the requester is the distinguishing signal.
func (c Comment) IsAgent(requesterID int64) bool {
	return c.AuthorID != requesterID
}
