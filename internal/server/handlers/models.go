package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	apperrors "github.com/chatlens/chatlens/internal/errors"
)

// ModelLister exposes the provider's model catalog. Implemented by
// genai.Client.
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

var modelLister ModelLister

// SetModelLister injects the provider client used by ModelsHandler.
func SetModelLister(lister ModelLister) {
	modelLister = lister
}

// ModelsResponse is the JSON body for GET /api/models.
type ModelsResponse struct {
	Models []string `json:"models"`
	Count  int      `json:"count"`
}

// ModelsHandler handles GET /api/models by querying the configured provider.
func ModelsHandler(w http.ResponseWriter, r *http.Request) {
	if modelLister == nil {
		respondWithError(w, r, apperrors.NewInternalError("model lister not initialized"))
		return
	}

	models, err := modelLister.ListModels(r.Context())
	if err != nil {
		respondWithError(w, r, apperrors.WrapExternalService(r.Context(), err, "failed to list provider models"))
		return
	}

	if models == nil {
		models = []string{}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(ModelsResponse{
		Models: models,
		Count:  len(models),
	})
}
