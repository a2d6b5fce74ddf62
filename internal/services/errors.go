package services

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrPendingApproval    = errors.New("registration is pending approval")
	ErrRejected           = errors.New("registration was rejected")
	ErrUsernameRequired   = errors.New("username is required")
	ErrPasswordTooShort   = errors.New("password must be at least 6 characters")
	ErrNotAdmin           = errors.New("admin privileges required")
)
