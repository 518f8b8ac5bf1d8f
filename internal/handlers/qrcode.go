package handlers

import (
	"net/http"
	"time"

	"github.com/skip2/go-qrcode"
)

const qrShareTTL = 24 * time.Hour

// GetStatusQRCode: GET /api/v1/kyc/{app_id}/qrcode
// PNG QR code of a fresh 24h share link.
func (h *Handler) GetStatusQRCode(w http.ResponseWriter, r *http.Request) {
	app, ok := h.loadApplication(w, r)
	if !ok {
		return
	}
	link, _, err := h.shareURL(app.AppID, qrShareTTL)
	if err != nil {
		h.logger.Error("share link not signed", "app_id", app.AppID, "error", err)
		writeError(w, http.StatusInternalServerError, "Server_Error", "server misconfigured")
		return
	}

	png, err := qrcode.Encode(link, qrcode.Medium, 256)
	if err != nil {
		http.Error(w, "Failed to generate QR code", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
