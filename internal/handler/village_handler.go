package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"village-chat/internal/domain"
	"village-chat/internal/service"
)

// VillageHandler exposes village record CRUD and demographic updates
type VillageHandler struct {
	villageService *service.VillageService
}

// NewVillageHandler creates a new village handler
func NewVillageHandler(villageService *service.VillageService) *VillageHandler {
	return &VillageHandler{villageService: villageService}
}

// VillageRequest represents a create or replace request
type VillageRequest struct {
	Name       string   `json:"name" validate:"required,max=100"`
	Region     string   `json:"region" validate:"max=100"`
	LandArea   float64  `json:"landArea" validate:"gte=0"`
	Latitude   float64  `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude  float64  `json:"longitude" validate:"gte=-180,lte=180"`
	Categories []string `json:"categories"`
}

// DemographicRequest represents a partial demographic update
type DemographicRequest struct {
	PopulationSize         *float64            `json:"populationSize" validate:"omitempty,gte=0"`
	GrowthRate             *float64            `json:"growthRate"`
	GenderRatio            *domain.GenderRatio `json:"genderRatio"`
	PopulationDistribution []domain.AgeBand    `json:"populationDistribution"`
}

// Create adds a village record
func (h *VillageHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req VillageRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	village, err := h.villageService.Add(r.Context(), &domain.Village{
		Name:       req.Name,
		Region:     req.Region,
		LandArea:   req.LandArea,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
		Categories: req.Categories,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, village)
}

// Get returns a single village record
func (h *VillageHandler) Get(w http.ResponseWriter, r *http.Request) {
	village, err := h.villageService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, village)
}

// List returns all village records
func (h *VillageHandler) List(w http.ResponseWriter, r *http.Request) {
	villages, err := h.villageService.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"villages": villages})
}

// Update replaces a village record's descriptive fields
func (h *VillageHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req VillageRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	village, err := h.villageService.Update(r.Context(), &domain.Village{
		ID:         chi.URLParam(r, "id"),
		Name:       req.Name,
		Region:     req.Region,
		LandArea:   req.LandArea,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
		Categories: req.Categories,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, village)
}

// UpdateDemographic applies a partial demographic update
func (h *VillageHandler) UpdateDemographic(w http.ResponseWriter, r *http.Request) {
	var req DemographicRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	village, err := h.villageService.UpdateDemographic(r.Context(), chi.URLParam(r, "id"), &domain.Demographic{
		PopulationSize:         req.PopulationSize,
		GrowthRate:             req.GrowthRate,
		GenderRatio:            req.GenderRatio,
		PopulationDistribution: req.PopulationDistribution,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, village)
}

// Delete removes a village record
func (h *VillageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.villageService.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
