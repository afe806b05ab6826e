// Package http provides http transport for accounts
package http

import (
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"causelist/internal/modkit/httpkit"
	"causelist/internal/platform/errors"
	svc "causelist/internal/services/accounts/service"
)

// Register mounts accounts endpoints on the given router
func Register(r httpkit.Router, s *svc.Service) {
	h := &handlers{svc: s}

	httpkit.PostJSON[RegisterInput](r, "/", h.register)
	httpkit.Get(r, "/{id}", h.show)
	httpkit.Get(r, "/{id}/history", h.history)

	httpkit.PostJSON[ResetRequestInput](r, "/password-reset", h.resetRequest)
	httpkit.PostJSON[ResetConfirmInput](r, "/password-reset/confirm", h.resetConfirm)

	httpkit.Get(r, "/{id}/searches", h.listSearches)
	httpkit.PostJSON[SearchInput](r, "/{id}/searches", h.createSearch)
	httpkit.PatchJSON[SearchUpdateInput](r, "/{id}/searches/{searchID}", h.updateSearch)
	httpkit.Delete(r, "/{id}/searches/{searchID}", h.deleteSearch)
}

type handlers struct{ svc *svc.Service }

// RegisterInput is the account signup payload
type RegisterInput struct {
	Email       string `json:"email" validate:"required,email"`
	DisplayName string `json:"display_name" validate:"required,max=100"`
	Password    string `json:"password" validate:"required,min=8"`
}

// ResetRequestInput starts a password reset
type ResetRequestInput struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetConfirmInput redeems a password reset token
type ResetConfirmInput struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// SearchInput creates a saved search
type SearchInput struct {
	SearchText string `json:"search_text" validate:"required"`
}

// SearchUpdateInput edits a saved search
type SearchUpdateInput struct {
	SearchText string `json:"search_text" validate:"required"`
	Enabled    bool   `json:"enabled"`
}

func pathID(r *stdhttp.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, errors.InvalidArgf("%s must be a uuid", name)
	}
	return id, nil
}

// @Summary Register a new account; it starts pending until approved
// @Tags Accounts
// @Accept json
// @Produce json
// @Router /accounts [post]
func (h *handlers) register(r *stdhttp.Request, in RegisterInput) (any, error) {
	return h.svc.Register(r.Context(), in.Email, in.DisplayName, in.Password)
}

// @Summary Fetch one account
// @Tags Accounts
// @Produce json
// @Router /accounts/{id} [get]
func (h *handlers) show(r *stdhttp.Request) (any, error) {
	id, err := pathID(r, "id")
	if err != nil {
		return nil, err
	}
	return h.svc.UserByID(r.Context(), id)
}

// @Summary Status history for one account, oldest first
// @Tags Accounts
// @Produce json
// @Router /accounts/{id}/history [get]
func (h *handlers) history(r *stdhttp.Request) (any, error) {
	id, err := pathID(r, "id")
	if err != nil {
		return nil, err
	}
	return h.svc.StatusHistory(r.Context(), id)
}

// @Summary Start a password reset; the token is delivered out of band
// @Tags Accounts
// @Accept json
// @Produce json
// @Router /accounts/password-reset [post]
func (h *handlers) resetRequest(r *stdhttp.Request, in ResetRequestInput) (any, error) {
	// same response whether or not the email exists
	if _, err := h.svc.CreatePasswordReset(r.Context(), in.Email); err != nil && !errors.IsCode(err, errors.ErrorCodeNotFound) {
		return nil, err
	}
	return map[string]bool{"ok": true}, nil
}

// @Summary Redeem a password reset token
// @Tags Accounts
// @Accept json
// @Produce json
// @Router /accounts/password-reset/confirm [post]
func (h *handlers) resetConfirm(r *stdhttp.Request, in ResetConfirmInput) (any, error) {
	if err := h.svc.ConsumePasswordReset(r.Context(), in.Token, in.NewPassword); err != nil {
		return nil, err
	}
	return map[string]bool{"ok": true}, nil
}

// @Summary List saved searches for an account
// @Tags Accounts
// @Produce json
// @Router /accounts/{id}/searches [get]
func (h *handlers) listSearches(r *stdhttp.Request) (any, error) {
	id, err := pathID(r, "id")
	if err != nil {
		return nil, err
	}
	return h.svc.SavedSearches(r.Context(), id)
}

// @Summary Create a saved search
// @Tags Accounts
// @Accept json
// @Produce json
// @Router /accounts/{id}/searches [post]
func (h *handlers) createSearch(r *stdhttp.Request, in SearchInput) (any, error) {
	id, err := pathID(r, "id")
	if err != nil {
		return nil, err
	}
	return h.svc.CreateSavedSearch(r.Context(), id, in.SearchText)
}

// @Summary Edit a saved search
// @Tags Accounts
// @Accept json
// @Produce json
// @Router /accounts/{id}/searches/{searchID} [patch]
func (h *handlers) updateSearch(r *stdhttp.Request, in SearchUpdateInput) (any, error) {
	id, err := pathID(r, "id")
	if err != nil {
		return nil, err
	}
	searchID, err := pathID(r, "searchID")
	if err != nil {
		return nil, err
	}
	return h.svc.UpdateSavedSearch(r.Context(), searchID, id, in.SearchText, in.Enabled)
}

// @Summary Delete a saved search
// @Tags Accounts
// @Produce json
// @Router /accounts/{id}/searches/{searchID} [delete]
func (h *handlers) deleteSearch(r *stdhttp.Request) (any, error) {
	id, err := pathID(r, "id")
	if err != nil {
		return nil, err
	}
	searchID, err := pathID(r, "searchID")
	if err != nil {
		return nil, err
	}
	if err := h.svc.DeleteSavedSearch(r.Context(), searchID, id); err != nil {
		return nil, err
	}
	return map[string]bool{"ok": true}, nil
}
