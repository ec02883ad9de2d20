package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/maratona/internal/account"
	"github.com/robalobadob/maratona/internal/history"
)

// Request payloads for signup/login. PlayerID, when set, is claimed for the
// account right away.
type credentialsReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
	PlayerID string `json:"playerId"`
}

type claimReq struct {
	PlayerID string `json:"playerId"`
}

// authUser is placed into request context by requireAuth.
type authUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// ctxUserKey is the context key type for storing authUser.
type ctxUserKey struct{}

func userFrom(ctx context.Context) *authUser {
	me, _ := ctx.Value(ctxUserKey{}).(*authUser)
	return me
}

// mountAuthRoutes registers authentication + gated routes.
func (s *Server) mountAuthRoutes(r chi.Router) {
	r.Post("/auth/signup", s.handleSignup)
	r.Post("/auth/login", s.handleLogin)
	r.Post("/auth/logout", s.handleLogout)

	r.With(s.requireAuth()).Get("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(userFrom(r.Context()))
	})
	r.With(s.requireAuth()).Post("/auth/claim", s.handleClaim)
	r.With(s.requireAuth()).Get("/stats/me", s.handleMyStats)
	r.With(s.requireAuth()).Get("/matches/mine", s.handleMyMatches)
}

// handleSignup creates a new user, signs a JWT and sets the auth cookie.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body credentialsReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}
	u, err := s.accounts.Create(r.Context(), body.Username, body.Password)
	if err != nil {
		if errors.Is(err, account.ErrUsernameTaken) {
			http.Error(w, `{"error":"Username taken"}`, http.StatusConflict)
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !s.issueToken(w, u) {
		return
	}
	s.claimOnAuth(r.Context(), u.ID, body.PlayerID)
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{"id": u.ID, "username": u.Username, "createdAt": u.CreatedAt})
}

// handleLogin authenticates a user and sets the auth cookie.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body credentialsReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}
	u, err := s.accounts.FindByUsername(r.Context(), body.Username)
	if err != nil || !account.CheckPassword(u.PasswordHash, body.Password) {
		http.Error(w, `{"error":"Invalid username or password"}`, http.StatusUnauthorized)
		return
	}
	if !s.issueToken(w, u) {
		return
	}
	s.claimOnAuth(r.Context(), u.ID, body.PlayerID)
	_ = json.NewEncoder(w).Encode(map[string]any{"id": u.ID, "username": u.Username})
}

// handleLogout clears the auth cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.clearAuthCookie(w)
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

// handleClaim links a durable player id to the current account.
func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	var body claimReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.PlayerID) == "" {
		http.Error(w, `{"error":"playerId required"}`, http.StatusBadRequest)
		return
	}
	me := userFrom(r.Context())
	switch err := s.accounts.ClaimPlayer(r.Context(), me.ID, body.PlayerID); {
	case errors.Is(err, account.ErrPlayerClaimed):
		http.Error(w, `{"error":"player_claimed"}`, http.StatusConflict)
		return
	case err != nil:
		log.Error().Err(err).Str("user", me.ID).Msg("claim player")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "playerId": strings.TrimSpace(body.PlayerID)})
}

// handleMyStats sums the history of every player id linked to the account.
func (s *Server) handleMyStats(w http.ResponseWriter, r *http.Request) {
	me := userFrom(r.Context())
	ids, err := s.accounts.PlayerIDs(r.Context(), me.ID)
	if err != nil {
		log.Error().Err(err).Str("user", me.ID).Msg("player ids")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	var total history.PlayerStats
	for _, id := range ids {
		st, err := s.history.PlayerStats(r.Context(), id)
		if err != nil {
			log.Error().Err(err).Str("player", id).Msg("player stats")
			http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
			return
		}
		total.GamesPlayed += st.GamesPlayed
		total.Wins += st.Wins
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":          me.ID,
		"playerIds":   ids,
		"gamesPlayed": total.GamesPlayed,
		"wins":        total.Wins,
	})
}

// handleMyMatches lists recent rounds of the account's player ids.
func (s *Server) handleMyMatches(w http.ResponseWriter, r *http.Request) {
	me := userFrom(r.Context())
	ids, err := s.accounts.PlayerIDs(r.Context(), me.ID)
	if err != nil {
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 50
	}
	out, err := s.history.RecentMatches(r.Context(), ids, limit)
	if err != nil {
		log.Error().Err(err).Str("user", me.ID).Msg("recent matches")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(out)
}

func (s *Server) claimOnAuth(ctx context.Context, userID, playerID string) {
	if strings.TrimSpace(playerID) == "" {
		return
	}
	if err := s.accounts.ClaimPlayer(ctx, userID, playerID); err != nil {
		log.Warn().Err(err).Str("user", userID).Str("player", playerID).Msg("claim player on auth")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// ------------------------------ JWT & cookies ------------------------------

// issueToken signs a JWT for u and sets the auth cookie. It reports false
// after writing an error response.
func (s *Server) issueToken(w http.ResponseWriter, u *account.User) bool {
	tok, exp, err := s.signJWT(u.ID, u.Username)
	if err != nil {
		log.Error().Err(err).Msg("sign jwt")
		http.Error(w, `{"error":"sign_failed"}`, http.StatusInternalServerError)
		return false
	}
	s.setAuthCookie(w, tok, exp)
	return true
}

// signJWT creates an HS256 JWT with id/username and the configured expiry.
func (s *Server) signJWT(id, username string) (string, time.Time, error) {
	days := s.cfg.JWTExpiresDays
	if days <= 0 {
		days = 14
	}
	exp := time.Now().Add(time.Duration(days) * 24 * time.Hour)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":       id,
		"username": username,
		"exp":      exp.Unix(),
		"iat":      time.Now().Unix(),
	})
	ss, err := t.SignedString([]byte(s.cfg.JWTSecret))
	return ss, exp, err
}

func (s *Server) sameSite() http.SameSite {
	if s.cfg.Production {
		return http.SameSiteNoneMode // required for third-party contexts when Secure
	}
	return http.SameSiteLaxMode
}

// setAuthCookie writes the auth token cookie with appropriate security attributes.
func (s *Server) setAuthCookie(w http.ResponseWriter, token string, exp time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.Production,
		SameSite: s.sameSite(),
		Expires:  exp,
	})
}

// clearAuthCookie deletes the auth token cookie.
func (s *Server) clearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.Production,
		SameSite: s.sameSite(),
		MaxAge:   -1,
	})
}

// bearerOrCookie extracts a bearer token from Authorization header or auth cookie.
func (s *Server) bearerOrCookie(r *http.Request) string {
	// Authorization: Bearer <token>
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(s.cfg.CookieName); err == nil {
		return c.Value
	}
	return ""
}

// requireAuth enforces a valid JWT and injects authUser into request context.
func (s *Server) requireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := s.bearerOrCookie(r)
			if tokenStr == "" {
				http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
				return
			}
			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
				return []byte(s.cfg.JWTSecret), nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil || !token.Valid {
				http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
				return
			}
			id, _ := claims["id"].(string)
			if id == "" {
				http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
				return
			}
			// Ensure user still exists
			u, err := s.accounts.FindByID(r.Context(), id)
			if err != nil {
				http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), ctxUserKey{}, &authUser{ID: u.ID, Username: u.Username})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
