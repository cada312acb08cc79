package auth

import (
	"context"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/2beens/gymscore/internal/telemetry/tracing"
)

type revoker interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
}

type Handler struct {
	revocations revoker
}

func NewHandler(revocations revoker) *Handler {
	return &Handler{
		revocations: revocations,
	}
}

// HandleRevoke revokes the caller's own token, i.e. logs the caller out
// of this service.
func (h *Handler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.auth.revoke")
	defer span.End()

	claims, ok := FromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}
	if claims.TokenID == "" {
		http.Error(w, "token cannot be revoked", http.StatusBadRequest)
		return
	}

	if err := h.revocations.Revoke(ctx, claims.TokenID, claims.ExpiresAt); err != nil {
		log.Errorf("failed to revoke token of %s: %s", claims.UserID, err)
		http.Error(w, "revoke failed", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
