package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
)

const (
	minShareHours = 1
	maxShareHours = 168
)

const invalidLinkMsg = "This verification link is invalid or has expired."

var errInvalidShareToken = errors.New("invalid or expired share token")

type shareClaims struct {
	AppID string `json:"app_id"`
	jwt.RegisteredClaims
}

type generateShareLinkResp struct {
	ShareableURL string    `json:"shareable_url"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// GenerateShareLink: POST /api/v1/kyc/{app_id}/share-link (protected)
func (h *Handler) GenerateShareLink(w http.ResponseWriter, r *http.Request) {
	app, ok := h.loadApplication(w, r)
	if !ok {
		return
	}

	// Be liberal in what we accept from the frontend
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Bad_Request", "invalid json")
		return
	}
	expires := 0
	for _, k := range []string{"expires_in_hours", "expiresInHours", "duration"} {
		if v, ok := payload[k]; ok {
			if i, ok := parseHours(v); ok {
				expires = i
			}
			break
		}
	}
	if expires < minShareHours || expires > maxShareHours {
		writeError(w, http.StatusBadRequest, "Bad_Request", fmt.Sprintf("expires_in_hours must be between %d and %d", minShareHours, maxShareHours))
		return
	}

	link, exp, err := h.shareURL(app.AppID, time.Duration(expires)*time.Hour)
	if err != nil {
		h.logger.Error("share link not signed", "app_id", app.AppID, "error", err)
		writeError(w, http.StatusInternalServerError, "Server_Error", "server misconfigured")
		return
	}
	writeJSONResp(w, http.StatusOK, generateShareLinkResp{ShareableURL: link, ExpiresAt: exp})
}

// GetSharedStatus: GET /api/v1/kyc-status/{app_id}?token=...
func (h *Handler) GetSharedStatus(w http.ResponseWriter, r *http.Request) {
	appID := chi.URLParam(r, "app_id")
	claims, err := h.parseShareToken(r.URL.Query().Get("token"))
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized", invalidLinkMsg)
		return
	}
	if claims.AppID != appID {
		writeError(w, http.StatusForbidden, "Forbidden", "forbidden: id mismatch")
		return
	}

	app, ok := h.loadApplication(w, r)
	if !ok {
		return
	}
	resp, err := h.kycStatus(r, app)
	if err != nil {
		h.logger.Error("kyc status lookup failed", "app_id", app.AppID, "error", err)
		writeError(w, http.StatusInternalServerError, "Server_Error", "database error")
		return
	}
	writeJSONResp(w, http.StatusOK, map[string]any{
		"app_id":      resp.AppID,
		"name":        app.Name,
		"overall":     resp.Overall,
		"documents":   resp.Documents,
		"valid_until": claims.ExpiresAt.Time,
	})
}

func (h *Handler) shareURL(appID string, ttl time.Duration) (string, time.Time, error) {
	if len(h.shareSecret) == 0 {
		return "", time.Time{}, errors.New("missing SHARE_TOKEN_SECRET/JWT_SECRET")
	}
	now := h.now()
	exp := now.Add(ttl)
	claims := shareClaims{
		AppID: appID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.shareSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign share token: %w", err)
	}
	link := fmt.Sprintf("%s/kyc-status/%s?token=%s", trimRightSlash(h.frontendBaseURL), url.PathEscape(appID), url.QueryEscape(signed))
	return link, exp, nil
}

func (h *Handler) parseShareToken(raw string) (*shareClaims, error) {
	if raw == "" || len(h.shareSecret) == 0 {
		return nil, errInvalidShareToken
	}
	claims := &shareClaims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return h.shareSecret, nil
	}, jwt.WithExpirationRequired(), jwt.WithTimeFunc(h.now))
	if err != nil || !parsed.Valid || claims.AppID == "" {
		return nil, errInvalidShareToken
	}
	return claims, nil
}

// expires_in_hours may come as number or string
func parseHours(x any) (int, bool) {
	switch t := x.(type) {
	case float64:
		return int(t), true
	case json.Number:
		if i, err := strconv.Atoi(t.String()); err == nil {
			return i, true
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return i, true
		}
	}
	return 0, false
}

func trimRightSlash(s string) string {
	return strings.TrimRight(s, "/")
}
