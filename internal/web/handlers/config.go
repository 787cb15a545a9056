package handlers

import (
	"net/http"
)

// ConfigHandler handles configuration endpoints
type ConfigHandler struct {
	verifier    Verifier
	persistence bool
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(verifier Verifier, persistence bool) *ConfigHandler {
	return &ConfigHandler{
		verifier:    verifier,
		persistence: persistence,
	}
}

// ConfigResponse represents the configuration response
type ConfigResponse struct {
	MinConfidence  float64 `json:"min_confidence"`
	MinFaceSize    float64 `json:"min_face_size"`
	MinAreaRatio   float64 `json:"min_area_ratio"`
	MaxAreaRatio   float64 `json:"max_area_ratio"`
	MatchThreshold float64 `json:"match_threshold"`
	RotationAngles []int   `json:"rotation_angles"`
	Concurrency    int     `json:"concurrency"`
	Persistence    bool    `json:"persistence"`
}

// Get returns the thresholds verification runs use
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	cfg := h.verifier.Config()

	respondJSON(w, http.StatusOK, ConfigResponse{
		MinConfidence:  cfg.Filter.MinConfidence,
		MinFaceSize:    cfg.Filter.MinSize,
		MinAreaRatio:   cfg.Filter.MinAreaRatio,
		MaxAreaRatio:   cfg.Filter.MaxAreaRatio,
		MatchThreshold: cfg.MatchThreshold,
		RotationAngles: cfg.Angles(),
		Concurrency:    cfg.Concurrency,
		Persistence:    h.persistence,
	})
}
