package accounts

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// CallerFunc resolves the calling account on demand. Mutation operations take
// the callback rather than a pre-resolved identity so the lookup happens at
// most once per operation, and not at all on paths that never need it.
type CallerFunc func(ctx context.Context) (*Account, error)

// Profile is an account with its contact references expanded into embedded
// contact cards.
type Profile struct {
	Account
	Contacts []Contact
}

// CreateInput carries the fields required to register an account.
type CreateInput struct {
	Email     string
	FirstName string
	LastName  string
	Avatar    string
	Password  string
}

// UpdateInput carries the mutable profile fields; nil fields are untouched.
type UpdateInput struct {
	FirstName *string
	LastName  *string
	Avatar    *string
	Contacts  *[]string
}

// Service implements the account operations. Every mutation that targets a
// specific account re-resolves the caller and checks ownership against the
// target object before touching the store.
type Service struct {
	repo   Repository
	hasher PasswordHasher
}

// NewService constructs a Service.
func NewService(repo Repository, hasher PasswordHasher) *Service {
	return &Service{repo: repo, hasher: hasher}
}

// checkOwnership fails unless the caller is an admin or owns the target.
// This is the fine-grained check that runs after the gate has already
// confirmed the coarse privilege for the operation.
func checkOwnership(caller, target *Account) error {
	if caller.Privilege != PrivilegeAdmin && caller.Email != target.Email {
		return ErrNoChangePermissions
	}
	return nil
}

// GetByEmail fetches one account with its contacts expanded.
func (s *Service) GetByEmail(ctx context.Context, email string) (*Profile, error) {
	account, err := s.findTarget(ctx, email)
	if err != nil {
		return nil, err
	}
	contacts, err := s.repo.ListByEmails(ctx, account.ContactEmails)
	if err != nil {
		return nil, err
	}
	return &Profile{Account: *account, Contacts: contacts}, nil
}

// Create registers a new account. The password is hashed here and the
// plaintext is never stored.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Account, error) {
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	account := &Account{
		ID:           uuid.New(),
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		LastSeen:     time.Now().UTC(),
		PasswordHash: hash,
		Privilege:    PrivilegeStandard,
	}
	if in.Avatar != "" {
		account.Avatar = &in.Avatar
	}
	if err := s.repo.Create(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// Update mutates an account's profile after the ownership check.
func (s *Service) Update(ctx context.Context, email string, in UpdateInput, caller CallerFunc) (*Profile, error) {
	target, err := s.findTarget(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeChange(ctx, caller, target); err != nil {
		return nil, err
	}
	rows, err := s.repo.UpdateByEmail(ctx, email, UpdatePatch{
		FirstName:     in.FirstName,
		LastName:      in.LastName,
		Avatar:        in.Avatar,
		ContactEmails: in.Contacts,
	})
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrMutationFailed
	}
	return s.GetByEmail(ctx, email)
}

// Delete removes an account after the ownership check and returns the record
// as it was before deletion.
func (s *Service) Delete(ctx context.Context, email string, caller CallerFunc) (*Account, error) {
	target, err := s.findTarget(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeChange(ctx, caller, target); err != nil {
		return nil, err
	}
	rows, err := s.repo.DeleteByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrMutationFailed
	}
	return target, nil
}

// AddContact appends contactEmail to the owner's contact list. Both accounts
// must exist and the caller must own the list being changed.
func (s *Service) AddContact(ctx context.Context, ownerEmail, contactEmail string, caller CallerFunc) error {
	if _, err := s.findTarget(ctx, contactEmail); err != nil {
		return err
	}
	owner, err := s.findTarget(ctx, ownerEmail)
	if err != nil {
		return err
	}
	if err := s.authorizeChange(ctx, caller, owner); err != nil {
		return err
	}
	rows, err := s.repo.AddContact(ctx, owner.Email, contactEmail)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrMutationFailed
	}
	return nil
}

// RemoveContact removes contactEmail from the owner's contact list. Removing
// a contact that is not present is a failed mutation, not a silent success.
func (s *Service) RemoveContact(ctx context.Context, ownerEmail, contactEmail string, caller CallerFunc) error {
	if _, err := s.findTarget(ctx, contactEmail); err != nil {
		return err
	}
	owner, err := s.findTarget(ctx, ownerEmail)
	if err != nil {
		return err
	}
	if err := s.authorizeChange(ctx, caller, owner); err != nil {
		return err
	}
	rows, err := s.repo.RemoveContact(ctx, owner.Email, contactEmail)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrMutationFailed
	}
	return nil
}

func (s *Service) findTarget(ctx context.Context, email string) (*Account, error) {
	account, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrObjectDoesNotExist
		}
		return nil, err
	}
	return account, nil
}

func (s *Service) authorizeChange(ctx context.Context, caller CallerFunc, target *Account) error {
	acct, err := caller(ctx)
	if err != nil {
		return err
	}
	return checkOwnership(acct, target)
}
