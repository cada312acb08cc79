package gymscore

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/gymscore/internal/auth"
	"github.com/2beens/gymscore/internal/gymscore/analysis"
	"github.com/2beens/gymscore/internal/gymscore/rating"
	"github.com/2beens/gymscore/internal/gymscore/reconcile"
	"github.com/2beens/gymscore/internal/telemetry/tracing"
	"github.com/2beens/gymscore/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=gymscore_test

type gymscoreService interface {
	Onboard(ctx context.Context, userID string, req OnboardRequest) (*SubmitResult, error)
	Edit(ctx context.Context, userID string, req EditRequest) (*SubmitResult, error)
	Scoreboard(ctx context.Context, userID string) (*Scoreboard, error)
	AnalyzePhoto(ctx context.Context, photo Photo) (string, error)
}

type ErrorResponse struct {
	Error string `json:"error"`
	// FailedCategories is set when some record writes failed.
	FailedCategories []reconcile.Category `json:"failedCategories,omitempty"`
	Result           *SubmitResult        `json:"result,omitempty"`
}

type AnalyzePhotoResponse struct {
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

type Handler struct {
	service gymscoreService
}

func NewHandler(service gymscoreService) *Handler {
	return &Handler{
		service: service,
	}
}

func (handler *Handler) HandleOnboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.gymscore.onboard")
	defer span.End()

	userID := auth.UserIDFromContext(ctx)
	if userID == "" {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}
	if !isJSON(r) {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var req OnboardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("onboard, unmarshal json params: %s", err)
		http.Error(w, "onboarding failed, bad request", http.StatusBadRequest)
		return
	}

	result, err := handler.service.Onboard(ctx, userID, req)
	if err != nil {
		writeError(w, "onboard", userID, err, result)
		return
	}

	log.Debugf("gymscore: user %s onboarded, score %.1f", userID, result.Score.Score)
	pkg.WriteJSON(w, result, http.StatusCreated)
}

func (handler *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.gymscore.edit")
	defer span.End()

	userID := auth.UserIDFromContext(ctx)
	if userID == "" {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}
	if !isJSON(r) {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var req EditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("edit, unmarshal json params: %s", err)
		http.Error(w, "edit failed, bad request", http.StatusBadRequest)
		return
	}

	result, err := handler.service.Edit(ctx, userID, req)
	if err != nil {
		writeError(w, "edit", userID, err, result)
		return
	}

	pkg.WriteJSON(w, result, http.StatusOK)
}

func (handler *Handler) HandleGetMine(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.gymscore.me")
	defer span.End()

	userID := auth.UserIDFromContext(ctx)
	if userID == "" {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	handler.writeScoreboard(ctx, w, userID)
}

// HandleShare serves the public, read-only scoreboard of any user.
func (handler *Handler) HandleShare(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.gymscore.share")
	defer span.End()

	userID := mux.Vars(r)["userID"]
	if userID == "" {
		http.Error(w, "error, user id empty", http.StatusBadRequest)
		return
	}

	handler.writeScoreboard(ctx, w, userID)
}

func (handler *Handler) writeScoreboard(ctx context.Context, w http.ResponseWriter, userID string) {
	sb, err := handler.service.Scoreboard(ctx, userID)
	if err != nil {
		writeError(w, "scoreboard", userID, err, nil)
		return
	}
	pkg.WriteJSON(w, sb, http.StatusOK)
}

// HandleAnalyzePhoto returns the raw analysis text, as {result} or {error}.
func (handler *Handler) HandleAnalyzePhoto(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.gymscore.analyze")
	defer span.End()

	var photo Photo
	if err := json.NewDecoder(r.Body).Decode(&photo); err != nil {
		log.Tracef("analyze photo, unmarshal json params: %s", err)
		pkg.WriteJSON(w, AnalyzePhotoResponse{Error: "invalid request body"}, http.StatusBadRequest)
		return
	}
	if len(photo.Image) == 0 || photo.MimeType == "" {
		pkg.WriteJSON(w, AnalyzePhotoResponse{Error: "image and mimeType are required"}, http.StatusBadRequest)
		return
	}

	text, err := handler.service.AnalyzePhoto(ctx, photo)
	if err != nil {
		log.Errorf("analyze photo for %s: %s", auth.UserIDFromContext(ctx), err)
		status := http.StatusBadGateway
		if errors.Is(err, analysis.ErrEmptyImage) {
			status = http.StatusBadRequest
		}
		pkg.WriteJSON(w, AnalyzePhotoResponse{Error: "failed to analyze photo"}, status)
		return
	}

	pkg.WriteJSON(w, AnalyzePhotoResponse{Result: text}, http.StatusOK)
}

func isJSON(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), pkg.ContentType.JSON)
}

func writeError(w http.ResponseWriter, op, userID string, err error, result *SubmitResult) {
	var persistErr *PersistenceError
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, analysis.ErrEmptyImage):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrScoreboardNotFound):
		http.Error(w, "scoreboard not found", http.StatusNotFound)
	case errors.Is(err, analysis.ErrAnalysisUnavailable):
		log.Errorf("gymscore %s for %s: %s", op, userID, err)
		http.Error(w, "physique analysis unavailable", http.StatusBadGateway)
	case errors.Is(err, rating.ErrNoRating):
		http.Error(w, "no physique ratings in analysis", http.StatusUnprocessableEntity)
	case errors.As(err, &persistErr):
		log.Errorf("gymscore %s for %s: %s", op, userID, err)
		pkg.WriteJSON(w, ErrorResponse{
			Error:            "failed to save gymscore",
			FailedCategories: persistErr.Failed,
			Result:           result,
		}, http.StatusInternalServerError)
	default:
		log.Errorf("gymscore %s for %s: %s", op, userID, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
