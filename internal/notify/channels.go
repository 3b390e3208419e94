package notify

import "context"

// Messenger delivers one rendered digest to a user's chat. A failure
// affects that send only; the dispatcher logs it and moves on.
type Messenger interface {
	Send(ctx context.Context, userID int64, text string) error
}

// Email is the payload handed to the mail channel: one subject and two
// alternative bodies built from the same listing set.
type Email struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Mailer delivers one digest email.
type Mailer interface {
	Send(email Email) error
}
