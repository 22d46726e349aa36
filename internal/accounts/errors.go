package accounts

import "errors"

var (
	// ErrNotFound indicates no account row for the given email.
	ErrNotFound = errors.New("account not found")
	// ErrAlreadyExists indicates the email is already registered.
	ErrAlreadyExists = errors.New("account already exists")
	// ErrObjectDoesNotExist indicates an operation's target account is missing.
	ErrObjectDoesNotExist = errors.New("the account you're looking for doesn't exist")
	// ErrNoChangePermissions indicates the caller may not change the target
	// object: the caller is neither an admin nor the object's owner.
	ErrNoChangePermissions = errors.New("you don't have rights to change this object")
	// ErrMutationFailed indicates a store mutation affected zero rows.
	ErrMutationFailed = errors.New("the mutation operation was unsuccessful")
)
