package entities

import "errors"

// Domain errors
var (
	ErrMeetingNotFound      = errors.New("meeting not found")
	ErrTaskNotFound         = errors.New("task not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrInvalidStatus        = errors.New("invalid action item status")
	ErrUnknownUpdate        = errors.New("unknown update type or action")
	ErrInvalidPayload       = errors.New("invalid update payload")
	ErrEmptyTranscript      = errors.New("transcript is empty")
)
