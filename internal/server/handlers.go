package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"

	"github.com/TysunM/subzero/internal/common"
	"github.com/TysunM/subzero/internal/model"
	"github.com/TysunM/subzero/internal/service"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, OK(map[string]any{"healthy": true}))
}

// DiscoveryRunRequest selects the sources for a discovery run. An empty body
// runs every connected source.
type DiscoveryRunRequest struct {
	MaxResults int  `json:"max_results"`
	Email      bool `json:"email"`
	Bank       bool `json:"bank"`
}

func (s *Server) handleDiscoveryRun(w http.ResponseWriter, r *http.Request) {
	var req DiscoveryRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.badRequest(w, r, "invalid request body")
		return
	}

	subs, err := s.svc.Discover(r.Context(), userID(r), service.DiscoverOptions{
		MaxResults: req.MaxResults,
		Email:      req.Email,
		Bank:       req.Bank,
	})
	if err != nil {
		s.discoveryError(w, r, err)
		return
	}
	if subs == nil {
		subs = []model.DiscoveredSubscription{}
	}

	render.JSON(w, r, OK(map[string]any{
		"subscriptions": subs,
		"count":         len(subs),
	}))
}

func (s *Server) handleDiscoveryStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.svc.Status(r.Context(), userID(r))
	if err != nil {
		s.internalError(w, r, err, "could not read account status")
		return
	}
	render.JSON(w, r, OK(status))
}

func (s *Server) handleSaveDiscovered(w http.ResponseWriter, r *http.Request) {
	var cand model.DiscoveredSubscription
	if err := json.NewDecoder(r.Body).Decode(&cand); err != nil {
		s.badRequest(w, r, "invalid request body")
		return
	}

	sub, err := s.svc.SaveDiscovered(r.Context(), userID(r), cand)
	if err != nil {
		if errors.Is(err, common.ErrInvalidInput) {
			s.badRequest(w, r, err.Error())
			return
		}
		s.internalError(w, r, err, "could not save subscription")
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, OK(sub))
}

func (s *Server) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := s.svc.ListSubscriptions(r.Context(), userID(r))
	if err != nil {
		s.internalError(w, r, err, "could not list subscriptions")
		return
	}
	if subs == nil {
		subs = []model.Subscription{}
	}
	render.JSON(w, r, OK(subs))
}

func (s *Server) handleRemoveSubscription(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.svc.RemoveSubscription(r.Context(), id); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, Error("subscription not found"))
			return
		}
		s.internalError(w, r, err, "could not remove subscription")
		return
	}
	render.JSON(w, r, OK(map[string]any{"deleted": id}))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.svc.Summary(r.Context(), userID(r))
	if err != nil {
		s.internalError(w, r, err, "could not build summary")
		return
	}
	render.JSON(w, r, OK(summary))
}

func (s *Server) handleLinkToken(w http.ResponseWriter, r *http.Request) {
	token, err := s.svc.LinkToken(r.Context(), userID(r))
	if err != nil {
		s.internalError(w, r, err, "could not create link token")
		return
	}
	render.JSON(w, r, OK(map[string]any{"link_token": token}))
}

// PlaidExchangeRequest carries the public token Plaid Link hands back.
type PlaidExchangeRequest struct {
	PublicToken string `json:"public_token"`
}

func (s *Server) handlePlaidExchange(w http.ResponseWriter, r *http.Request) {
	var req PlaidExchangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PublicToken == "" {
		s.badRequest(w, r, "public_token is required")
		return
	}

	if err := s.svc.ConnectBank(r.Context(), userID(r), req.PublicToken); err != nil {
		s.internalError(w, r, err, "could not link bank account")
		return
	}
	render.JSON(w, r, OK(map[string]any{"connected": true}))
}

func (s *Server) handleGmailAuthURL(w http.ResponseWriter, r *http.Request) {
	// The user ID rides through the OAuth state so the callback knows whose
	// credentials to store.
	render.JSON(w, r, OK(map[string]any{
		"auth_url": s.gmail.AuthURL(userID(r)),
	}))
}

func (s *Server) handleGmailCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		s.badRequest(w, r, "authorization code missing")
		return
	}
	user := r.URL.Query().Get("state")
	if user == "" {
		user = DefaultUserID
	}

	if err := s.gmail.Connect(r.Context(), user, code); err != nil {
		s.logger.Error("gmail connect failed", "user_id", user, "error", err)
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, "<html><body><h1>Authorization failed</h1><p>Could not complete the Gmail connection. Please try again.</p></body></html>")
		return
	}

	fmt.Fprint(w, "<html><body><h1>Gmail connected</h1><p>You can close this window.</p></body></html>")
}

// discoveryError maps discovery failures onto responses the UI can act on.
// Missing connections and dead refresh tokens each get their own 4xx so the
// client can prompt a reconnect; everything else is an upstream failure.
func (s *Server) discoveryError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrNotConnected):
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, Error("no account connected; connect Gmail or a bank first"))
	case errors.Is(err, common.ErrTokenRefresh):
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, Error("account token expired; reconnect to continue"))
	default:
		s.logger.Error("discovery failed", "error", err)
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, Error("discovery failed; try again later"))
	}
}

func (s *Server) badRequest(w http.ResponseWriter, r *http.Request, msg string) {
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, Error(msg))
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	s.logger.Error(msg, "error", err)
	render.Status(r, http.StatusInternalServerError)
	render.JSON(w, r, Error(msg))
}
