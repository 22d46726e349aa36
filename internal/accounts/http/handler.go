package accountshttp

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/roster-hq/roster/internal/access"
	"github.com/roster-hq/roster/internal/accounts"
	"github.com/roster-hq/roster/internal/platform/httpx"
)

// Handler wires HTTP endpoints for account operations. Every route except
// creation is mounted behind the access gate; the handlers pull the lazy
// caller cell from the request context and hand it to the service, which
// performs the fine-grained ownership checks.
type Handler struct {
	logger    *slog.Logger
	service   *accounts.Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *accounts.Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
	}
}

// MountRoutes registers account routes. Creation is open (registration);
// every other operation is wrapped by the gate with the privilege the
// requirements table declares for it, resolved here at composition time.
func (h *Handler) MountRoutes(r chi.Router, gate access.Middleware, reqs access.Requirements) {
	r.Post("/", h.handleCreate)

	r.With(gate.Require(reqs.For("accounts.get"))).Get("/{email}", h.handleGet)
	r.With(gate.Require(reqs.For("accounts.update"))).Patch("/{email}", h.handleUpdate)
	r.With(gate.Require(reqs.For("accounts.delete"))).Delete("/{email}", h.handleDelete)
	r.With(gate.Require(reqs.For("accounts.addContact"))).Post("/{email}/contacts", h.handleAddContact)
	r.With(gate.Require(reqs.For("accounts.removeContact"))).Delete("/{email}/contacts/{contactEmail}", h.handleRemoveContact)
}

type createRequest struct {
	Email     string `json:"email" validate:"required,email,max=255"`
	FirstName string `json:"firstName" validate:"required,min=3,max=50"`
	LastName  string `json:"lastName" validate:"required,min=3,max=50"`
	Avatar    string `json:"avatar"`
	Password  string `json:"password" validate:"required,min=8,max=80"`
}

type updateRequest struct {
	FirstName *string `json:"firstName" validate:"omitempty,min=3,max=50"`
	LastName  *string `json:"lastName" validate:"omitempty,min=3,max=50"`
	Avatar    *string `json:"avatar"`
}

type addContactRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
}

type contactView struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Avatar    *string `json:"avatar,omitempty"`
	LastSeen  string  `json:"lastSeen"`
}

type accountView struct {
	ID        string        `json:"id"`
	Email     string        `json:"email"`
	FirstName string        `json:"firstName"`
	LastName  string        `json:"lastName"`
	Avatar    *string       `json:"avatar,omitempty"`
	Contacts  []contactView `json:"contacts"`
	LastSeen  string        `json:"lastSeen"`
	Role      string        `json:"role"`
}

func viewOfProfile(p *accounts.Profile) accountView {
	view := viewOfAccount(&p.Account)
	for _, c := range p.Contacts {
		view.Contacts = append(view.Contacts, contactView{
			ID:        c.ID.String(),
			Email:     c.Email,
			FirstName: c.FirstName,
			LastName:  c.LastName,
			Avatar:    c.Avatar,
			LastSeen:  formatSeen(c.LastSeen),
		})
	}
	return view
}

func viewOfAccount(a *accounts.Account) accountView {
	return accountView{
		ID:        a.ID.String(),
		Email:     a.Email,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Avatar:    a.Avatar,
		Contacts:  []contactView{},
		LastSeen:  formatSeen(a.LastSeen),
		Role:      string(a.Privilege),
	}
}

func formatSeen(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func (h *Handler) caller(r *http.Request) accounts.CallerFunc {
	if cell := access.CallerFromContext(r.Context()); cell != nil {
		return cell.Func()
	}
	// Protected routes always carry a cell; a missing one means the route was
	// mounted outside the gate and must not resolve to anyone.
	return func(ctx context.Context) (*accounts.Account, error) {
		return nil, access.ErrUnknownUser
	}
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	profile, err := h.service.GetByEmail(r.Context(), email)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, viewOfProfile(profile))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}

	account, err := h.service.Create(r.Context(), accounts.CreateInput{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Avatar:    req.Avatar,
		Password:  req.Password,
	})
	if err != nil {
		h.logger.Warn("create account", slog.String("email", req.Email), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, viewOfAccount(account))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}

	email := chi.URLParam(r, "email")
	profile, err := h.service.Update(r.Context(), email, accounts.UpdateInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Avatar:    req.Avatar,
	}, h.caller(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, viewOfProfile(profile))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	account, err := h.service.Delete(r.Context(), email, h.caller(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, viewOfAccount(account))
}

func (h *Handler) handleAddContact(w http.ResponseWriter, r *http.Request) {
	var req addContactRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}

	owner := chi.URLParam(r, "email")
	if err := h.service.AddContact(r.Context(), owner, req.Email, h.caller(r)); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) handleRemoveContact(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "email")
	contact := chi.URLParam(r, "contactEmail")
	if err := h.service.RemoveContact(r.Context(), owner, contact, h.caller(r)); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}
