package account

import "errors"

// Login failures. ErrNoAccount means no account has the username;
// ErrPasswordMismatch means accounts exist but none matches the password.
var (
	ErrNoAccount         = errors.New("account: no matching account")
	ErrDuplicateAccounts = errors.New("account: more than one account matches")
	ErrPasswordMismatch  = errors.New("account: password mismatch")
)

var (
	ErrInvalidRequest = errors.New("account: invalid request")
	ErrPasswordPolicy = errors.New("account: password does not meet policy")
)
