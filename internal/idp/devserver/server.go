// Package devserver implementa un identity provider mínimo en memoria.
//
// No es el producto: existe para que los adapters tengan un colaborador HTTP
// concreto en desarrollo y en tests. Implementa el contrato exacto que los
// adapters esperan del servicio de identidad real: signin/signup por
// password, canje de tokens federados con binding de challenge, perfil,
// revocación y /metrics.
package devserver

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/dropDatabas3/sessionkit/internal/observability/logger"
	tokens "github.com/dropDatabas3/sessionkit/internal/security/token"
	"github.com/go-chi/chi/v5"
	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server es el IdP de desarrollo.
type Server struct {
	users *userStore
	// signingKey firma los tokens dev (HS256). Aleatoria por arranque.
	signingKey []byte
	issuer     string
}

// New crea el server con una key de firma efímera.
func New() (*Server, error) {
	key, err := tokens.GenerateOpaqueToken(32)
	if err != nil {
		return nil, err
	}
	return &Server{
		users:      newUserStore(),
		signingKey: []byte(key),
		issuer:     "sessionkit-devserver",
	}, nil
}

// Handler retorna el router HTTP completo.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Post("/v1/password/signin", s.handlePasswordSignIn)
	r.Post("/v1/password/signup", s.handlePasswordSignUp)
	r.Get("/v1/users/{id}", s.handleGetUser)
	r.Patch("/v1/users/{id}/profile", s.handleUpdateProfile)
	r.Post("/v1/oauth/{provider}/grant", s.handleGrant)
	r.Post("/v1/oauth/{provider}/token", s.handleTokenExchange)
	r.Post("/v1/revoke", s.handleRevoke)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

// ─── DTOs ───

type passwordRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type profileRequest struct {
	DisplayName string `json:"display_name"`
}

type grantRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

type tokenRequest struct {
	Token     string `json:"token"`
	Challenge string `json:"challenge"`
}

type revokeRequest struct {
	UserID string `json:"user_id"`
}

type recordResponse struct {
	ID          string   `json:"id"`
	Email       string   `json:"email,omitempty"`
	DisplayName string   `json:"display_name,omitempty"`
	AvatarURL   string   `json:"avatar_url,omitempty"`
	Providers   []string `json:"providers,omitempty"`
	IDToken     string   `json:"id_token,omitempty"`
}

func record(u *userRecord) recordResponse {
	return recordResponse{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
		Providers:   append([]string(nil), u.Providers...),
	}
}

// ─── Handlers ───

func (s *Server) handlePasswordSignIn(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if !decode(w, r, &req) {
		return
	}
	u, err := s.users.Authenticate(req.Email, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid_credentials", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, record(u))
}

func (s *Server) handlePasswordSignUp(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "email and password are required")
		return
	}
	u, err := s.users.CreatePassword(req.Email, req.Password)
	if err != nil {
		if err == errEmailTaken {
			writeError(w, http.StatusConflict, "email_taken", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, record(u))
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	u, err := s.users.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found", err.Error())
		return
	}
	if u.Revoked {
		writeError(w, http.StatusUnauthorized, "session_revoked", "remote session was revoked")
		return
	}
	writeJSON(w, http.StatusOK, record(u))
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.DisplayName) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "display_name must not be blank")
		return
	}
	if err := s.users.SetDisplayName(chi.URLParam(r, "id"), req.DisplayName); err != nil {
		writeError(w, http.StatusNotFound, "not_found", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGrant emite un token federado dev: un JWT firmado por el server que
// el endpoint de canje acepta. Reemplaza el redirect real al proveedor.
func (s *Server) handleGrant(w http.ResponseWriter, r *http.Request) {
	providerKind := chi.URLParam(r, "provider")
	if providerKind != "google" && providerKind != "github" {
		writeError(w, http.StatusNotFound, "unknown_provider", "unknown provider: "+providerKind)
		return
	}
	var req grantRequest
	if !decode(w, r, &req) {
		return
	}
	now := time.Now()
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, jwtv5.MapClaims{
		"iss":     s.issuer,
		"aud":     providerKind,
		"iat":     now.Unix(),
		"exp":     now.Add(10 * time.Minute).Unix(),
		"email":   req.Email,
		"name":    req.DisplayName,
		"picture": req.AvatarURL,
	})
	signed, err := tk.SignedString(s.signingKey)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": signed})
}

func (s *Server) handleTokenExchange(w http.ResponseWriter, r *http.Request) {
	providerKind := chi.URLParam(r, "provider")
	if providerKind != "google" && providerKind != "github" {
		writeError(w, http.StatusNotFound, "unknown_provider", "unknown provider: "+providerKind)
		return
	}
	var req tokenRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Challenge == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "challenge is required")
		return
	}

	claims, err := s.verifyDevToken(req.Token, providerKind)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid_token", err.Error())
		return
	}

	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	picture, _ := claims["picture"].(string)
	u := s.users.UpsertFederated(providerKind, email, name, picture)

	resp := record(u)
	if providerKind == "google" {
		// El flujo estilo OIDC devuelve un ID token con el challenge como
		// claim nonce; el cliente verifica el binding contra su nonce crudo.
		idToken, err := s.mintIDToken(u, req.Challenge)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "server_error", err.Error())
			return
		}
		resp.IDToken = idToken
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRevoke(w http.ResponseWriter, r *http.Request) {
	var req revokeRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.users.Revoke(req.UserID); err != nil {
		writeError(w, http.StatusNotFound, "not_found", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── Token helpers ───

func (s *Server) verifyDevToken(raw, aud string) (jwtv5.MapClaims, error) {
	tok, err := jwtv5.Parse(raw,
		func(t *jwtv5.Token) (any, error) { return s.signingKey, nil },
		jwtv5.WithValidMethods([]string{"HS256"}),
		jwtv5.WithAudience(aud),
		jwtv5.WithIssuer(s.issuer),
	)
	if err != nil {
		return nil, err
	}
	claims, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok {
		return nil, jwtv5.ErrTokenInvalidClaims
	}
	return claims, nil
}

func (s *Server) mintIDToken(u *userRecord, nonce string) (string, error) {
	now := time.Now()
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, jwtv5.MapClaims{
		"iss":   s.issuer,
		"sub":   u.ID,
		"iat":   now.Unix(),
		"exp":   now.Add(10 * time.Minute).Unix(),
		"email": u.Email,
		"nonce": nonce,
	})
	return tk.SignedString(s.signingKey)
}

// ─── HTTP helpers ───

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Named("devserver").Warn("failed to encode response", logger.Err(err))
	}
}

func writeError(w http.ResponseWriter, status int, code, desc string) {
	writeJSON(w, status, map[string]string{
		"error":             code,
		"error_description": desc,
	})
}
