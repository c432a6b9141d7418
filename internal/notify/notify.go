// Package notify defines the transient notifications ("toasts") shown to the admin.
package notify

import "encoding/gob"

// Variant selects how a notification is styled.
type Variant string

// Notification variants.
const (
	Default     Variant = "default"
	Destructive Variant = "destructive"
)

// Action is the optional affordance attached to a notification.
type Action string

// Notification actions.
const (
	NoAction Action = ""
	TryAgain Action = "Try again"
	Refresh  Action = "Refresh"
)

// Titles shared across the console.
const (
	TitleFailure     = "Uh oh! Something went wrong."
	TitleSuccess     = "Action Successful"
	TitleEmpty       = "Empty Selection"
	TitleWelcome     = "Welcome back!"
	TitleValidation  = "Missing information"
	TitleRateLimited = "Slow down"
)

// Notification is one transient message.
type Notification struct {
	Variant     Variant
	Title       string
	Description string
	Action      Action
}

// IsError reports whether n reports a failure.
func (n Notification) IsError() bool {
	return n.Variant == Destructive
}

// Success builds a default notification.
func Success(title, description string) Notification {
	return Notification{Variant: Default, Title: title, Description: description}
}

// Failure builds a destructive notification offering a retry.
func Failure(description string) Notification {
	return Notification{Variant: Destructive, Title: TitleFailure, Description: description, Action: TryAgain}
}

// Invalid builds a destructive notification for input the admin must fix; no retry is offered.
func Invalid(title, description string) Notification {
	return Notification{Variant: Destructive, Title: title, Description: description}
}

func init() {
	// Notifications travel as session flashes.
	gob.Register(Notification{})
}
