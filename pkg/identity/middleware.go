package identity

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// MiddlewareConfig configures the bearer-token authenticator.
type MiddlewareConfig struct {
	// HMACKey verifies HS256 signatures. If empty, tokens are parsed but NOT
	// verified (suitable for deployments behind a trusted auth proxy).
	HMACKey []byte

	// Logger for debugging. If nil, uses slog.Default().
	Logger *slog.Logger
}

// Authenticator returns middleware that extracts the principal from the
// Authorization bearer token and stores it in the request context. Requests
// without a parseable token get 401.
//
// Security model:
//   - If HMACKey is set, tokens are cryptographically verified (HS256)
//   - If HMACKey is empty, tokens are parsed without verification; an
//     upstream proxy is expected to have validated them
func Authenticator(cfg MiddlewareConfig) func(http.Handler) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if len(cfg.HMACKey) == 0 {
		logger.Warn("identity: no HMAC key configured, tokens parsed without verification (trusted proxy mode)")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if token == "" {
				writeAuthError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := parseClaims(token, cfg.HMACKey)
			if err != nil {
				logger.Debug("identity: token parse failed", "error", err)
				writeAuthError(w, http.StatusUnauthorized, "invalid bearer token")
				return
			}

			principal, err := principalFromClaims(claims)
			if err != nil {
				logger.Debug("identity: token claims incomplete", "error", err)
				writeAuthError(w, http.StatusUnauthorized, "invalid bearer token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// RequireCapability returns middleware that enforces one capability.
// An unauthenticated request gets 401; a principal without it gets 403.
func RequireCapability(c Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := FromContext(r.Context())
			if p == nil {
				writeAuthError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			if !p.Has(c) {
				writeAuthError(w, http.StatusForbidden, fmt.Sprintf("capability %s required", c))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// extractBearerToken extracts the token from "Authorization: Bearer <token>".
func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// parseClaims parses and optionally verifies a bearer token.
func parseClaims(tokenString string, key []byte) (jwt.MapClaims, error) {
	var token *jwt.Token
	var err error

	if len(key) > 0 {
		token, err = jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return key, nil
		})
	} else {
		// Trusted proxy mode: parse without verification
		token, _, err = jwt.NewParser().ParseUnverified(tokenString, jwt.MapClaims{})
	}
	if err != nil {
		return nil, fmt.Errorf("token parse error: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("unexpected claims type")
	}
	return claims, nil
}

// principalFromClaims builds the principal from token claims. The user id
// claim is required; capabilities default to absent.
func principalFromClaims(claims jwt.MapClaims) (*Principal, error) {
	id, ok := int64Claim(claims, "user_id")
	if !ok {
		return nil, fmt.Errorf("missing user_id claim")
	}
	unitID, _ := int64Claim(claims, "unit_id")

	p := &Principal{
		ID:           id,
		UnitID:       unitID,
		Capabilities: make(map[Capability]bool),
	}
	if name, ok := claims["name"].(string); ok {
		p.Name = name
	}
	for _, c := range []Capability{CanCreate, CanRead, CanView, CanUpdate, CanApprove, CanDelete, CanProvision} {
		if boolClaim(claims, string(c)) {
			p.Capabilities[c] = true
		}
	}
	return p, nil
}

// int64Claim reads a numeric claim. JSON numbers decode as float64; string
// forms are not accepted.
func int64Claim(claims jwt.MapClaims, name string) (int64, bool) {
	v, ok := claims[name]
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	if !ok {
		return 0, false
	}
	return int64(f), true
}

// boolClaim reads a capability flag. Accepts JSON booleans and the numeric
// 0/1 form some token issuers emit.
func boolClaim(claims jwt.MapClaims, name string) bool {
	switch v := claims[name].(type) {
	case bool:
		return v
	case float64:
		return v != 0
	default:
		return false
	}
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	kind := "unauthenticated"
	if status == http.StatusForbidden {
		kind = "forbidden"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"kind": kind, "message": message})
}
