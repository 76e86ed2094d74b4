package errs

import (
	"errors"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrUnauthorized  = errors.New("Unauthorized")
	ErrForbidden     = errors.New("Forbidden")
	ErrEmailTaken    = errors.New("Email is already taken")
	ErrIdentityTaken = errors.New("Identity Number is already taken")
	ErrEmailNotFound = errors.New("Email not found")
	ErrOutOfStock    = errors.New("Book is not available")
	ErrBookOnLoan    = errors.New("Book is on an open loan")
	ErrInvalidToken  = errors.New("Token is invalid")
	ErrMailSend      = errors.New("There was an error sending the email. Try again later.")

	ErrDueBeforeBorrow = errors.New("dueDate must not be before borrowDate")
	ErrAvailableRange  = errors.New("available must be between 0 and stock")
)
