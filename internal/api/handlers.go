package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"shademap/internal/types"
)

// CreateRegionRequest is the payload for registering a drawn region directly,
// bypassing the drawing session (e.g. programmatic imports).
type CreateRegionRequest struct {
	Name        string          `json:"name" validate:"max=200"`
	Source      string          `json:"source" validate:"required"`
	Handle      string          `json:"handle" validate:"max=200"`
	Coordinates []CoordinateDTO `json:"coordinates" validate:"required,min=3,dive"`
}

// CoordinateDTO is one vertex of a region payload.
type CoordinateDTO struct {
	Lat float64 `json:"lat" validate:"min=-90,max=90"`
	Lng float64 `json:"lng" validate:"min=-180,max=180"`
}

// SetWindowRequest replaces the evaluation time window.
type SetWindowRequest struct {
	Start time.Time `json:"start" validate:"required"`
	End   time.Time `json:"end" validate:"required"`
}

// ToggleSourceRequest enables or disables a data source.
type ToggleSourceRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// SelectFieldRequest switches a source's evaluated field.
type SelectFieldRequest struct {
	FieldID string `json:"field_id" validate:"required"`
}

// UpdateRuleRequest adds or replaces a threshold rule on a source.
type UpdateRuleRequest struct {
	ID       string  `json:"id" validate:"max=100"`
	Color    string  `json:"color" validate:"required,hexcolor"`
	Operator string  `json:"operator" validate:"required,oneof== < > <= >="`
	Value    float64 `json:"value"`
	Label    string  `json:"label" validate:"max=100"`
}

// ReorderRulesRequest rearranges a source's rule precedence.
type ReorderRulesRequest struct {
	RuleIDs []string `json:"rule_ids" validate:"required,min=1,dive,required"`
}

// VertexRequest appends a vertex to the active drawing.
type VertexRequest struct {
	Lat float64 `json:"lat" validate:"min=-90,max=90"`
	Lng float64 `json:"lng" validate:"min=-180,max=180"`
}

// LayerRequest registers the provisional render layer for the active drawing.
type LayerRequest struct {
	Handle string `json:"handle" validate:"required,max=200"`
}

// FinishDrawingRequest completes the active drawing into a region.
type FinishDrawingRequest struct {
	Name   string `json:"name" validate:"max=200"`
	Source string `json:"source" validate:"required"`
}

// validateStruct runs the request DTO through the validator and converts the
// failure into the standard error shape.
func (s *Server) validateStruct(v interface{}) error {
	if err := s.validate.Struct(v); err != nil {
		return types.NewAppError(types.ErrCodeValidationMissingField, err.Error(), err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListRegions(w http.ResponseWriter, r *http.Request) {
	JSON(w, r, http.StatusOK, APIResponse{Data: s.registry.Polygons()})
}

func (s *Server) handleCreateRegion(w http.ResponseWriter, r *http.Request) {
	var req CreateRegionRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, r, err)
		return
	}
	if err := s.validateStruct(&req); err != nil {
		Error(w, r, err)
		return
	}

	coords := make([]types.LatLng, len(req.Coordinates))
	for i, c := range req.Coordinates {
		coords[i] = types.LatLng{Lat: c.Lat, Lng: c.Lng}
	}
	shape := types.Shape{Coordinates: coords, Points: len(coords)}

	p, err := s.registry.AddPolygon(r.Context(), shape, req.Name, req.Source, types.RenderHandle(req.Handle))
	if err != nil {
		Error(w, r, err)
		return
	}
	JSON(w, r, http.StatusCreated, APIResponse{Data: p})
}

func (s *Server) handleGetRegion(w http.ResponseWriter, r *http.Request) {
	p, err := s.registry.Polygon(chi.URLParam(r, "id"))
	if err != nil {
		Error(w, r, err)
		return
	}
	JSON(w, r, http.StatusOK, APIResponse{Data: p})
}

func (s *Server) handleDeleteRegion(w http.ResponseWriter, r *http.Request) {
	if err := s.registry.RemovePolygon(r.Context(), chi.URLParam(r, "id")); err != nil {
		Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetRegionResult(w http.ResponseWriter, r *http.Request) {
	p, err := s.registry.Polygon(chi.URLParam(r, "id"))
	if err != nil {
		Error(w, r, err)
		return
	}
	JSON(w, r, http.StatusOK, APIResponse{Data: p.LastResult})
}

func (s *Server) handleGetWindow(w http.ResponseWriter, r *http.Request) {
	JSON(w, r, http.StatusOK, APIResponse{Data: s.registry.Window()})
}

func (s *Server) handleSetWindow(w http.ResponseWriter, r *http.Request) {
	var req SetWindowRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, r, err)
		return
	}
	if err := s.validateStruct(&req); err != nil {
		Error(w, r, err)
		return
	}

	window := types.TimeWindow{Start: req.Start, End: req.End}
	if err := s.registry.SetTimeWindow(r.Context(), window); err != nil {
		Error(w, r, err)
		return
	}
	JSON(w, r, http.StatusOK, APIResponse{Data: s.registry.Window()})
}

func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	JSON(w, r, http.StatusOK, APIResponse{Data: s.registry.Sources()})
}

func (s *Server) handleToggleSource(w http.ResponseWriter, r *http.Request) {
	var req ToggleSourceRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, r, err)
		return
	}
	if err := s.validateStruct(&req); err != nil {
		Error(w, r, err)
		return
	}

	if err := s.registry.ToggleSource(r.Context(), chi.URLParam(r, "id"), *req.Enabled); err != nil {
		Error(w, r, err)
		return
	}
	JSON(w, r, http.StatusOK, APIResponse{Data: s.registry.Sources()})
}

func (s *Server) handleSelectField(w http.ResponseWriter, r *http.Request) {
	var req SelectFieldRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, r, err)
		return
	}
	if err := s.validateStruct(&req); err != nil {
		Error(w, r, err)
		return
	}

	if err := s.registry.SelectField(r.Context(), chi.URLParam(r, "id"), req.FieldID); err != nil {
		Error(w, r, err)
		return
	}
	JSON(w, r, http.StatusOK, APIResponse{Data: s.registry.Sources()})
}

func (s *Server) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	var req UpdateRuleRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, r, err)
		return
	}
	if err := s.validateStruct(&req); err != nil {
		Error(w, r, err)
		return
	}

	rule := types.ThresholdRule{
		ID:       req.ID,
		Color:    req.Color,
		Operator: types.RuleOperator(req.Operator),
		Value:    req.Value,
		Label:    req.Label,
	}
	if err := s.registry.UpdateRule(r.Context(), chi.URLParam(r, "id"), rule); err != nil {
		Error(w, r, err)
		return
	}
	JSON(w, r, http.StatusOK, APIResponse{Data: s.registry.Sources()})
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	err := s.registry.RemoveRule(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "ruleID"))
	if err != nil {
		Error(w, r, err)
		return
	}
	JSON(w, r, http.StatusOK, APIResponse{Data: s.registry.Sources()})
}

func (s *Server) handleReorderRules(w http.ResponseWriter, r *http.Request) {
	var req ReorderRulesRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, r, err)
		return
	}
	if err := s.validateStruct(&req); err != nil {
		Error(w, r, err)
		return
	}

	if err := s.registry.ReorderRules(r.Context(), chi.URLParam(r, "id"), req.RuleIDs); err != nil {
		Error(w, r, err)
		return
	}
	JSON(w, r, http.StatusOK, APIResponse{Data: s.registry.Sources()})
}

func (s *Server) handleListFields(w http.ResponseWriter, r *http.Request) {
	JSON(w, r, http.StatusOK, APIResponse{Data: s.registry.AvailableFields()})
}

func (s *Server) handleRecompute(w http.ResponseWriter, r *http.Request) {
	s.registry.RecomputeAll(r.Context())
	JSON(w, r, http.StatusOK, APIResponse{Data: s.registry.Polygons()})
}

func (s *Server) handleDrawingStart(w http.ResponseWriter, r *http.Request) {
	if err := s.drawing.Start(); err != nil {
		Error(w, r, err)
		return
	}
	JSON(w, r, http.StatusOK, APIResponse{Data: map[string]bool{"active": true}})
}

func (s *Server) handleDrawingVertex(w http.ResponseWriter, r *http.Request) {
	var req VertexRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, r, err)
		return
	}
	if err := s.validateStruct(&req); err != nil {
		Error(w, r, err)
		return
	}

	if err := s.drawing.AddVertex(types.LatLng{Lat: req.Lat, Lng: req.Lng}); err != nil {
		Error(w, r, err)
		return
	}
	JSON(w, r, http.StatusOK, APIResponse{Data: map[string]int{"vertices": s.drawing.VertexCount()}})
}

func (s *Server) handleDrawingLayer(w http.ResponseWriter, r *http.Request) {
	var req LayerRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, r, err)
		return
	}
	if err := s.validateStruct(&req); err != nil {
		Error(w, r, err)
		return
	}
	s.drawing.RegisterExternalLayer(types.RenderHandle(req.Handle))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDrawingFinish(w http.ResponseWriter, r *http.Request) {
	var req FinishDrawingRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, r, err)
		return
	}
	if err := s.validateStruct(&req); err != nil {
		Error(w, r, err)
		return
	}

	shape, layer, ok := s.drawing.FinishIfReady()
	if !ok {
		Error(w, r, types.NewAppError(types.ErrCodeValidationInvalidGeometry,
			"drawing needs at least 3 vertices to finish", nil))
		return
	}

	p, err := s.registry.AddPolygon(r.Context(), shape, req.Name, req.Source, layer)
	if err != nil {
		Error(w, r, err)
		return
	}
	JSON(w, r, http.StatusCreated, APIResponse{Data: p})
}

func (s *Server) handleDrawingCancel(w http.ResponseWriter, r *http.Request) {
	layer := s.drawing.Cancel()
	JSON(w, r, http.StatusOK, APIResponse{Data: map[string]string{"released_layer": string(layer)}})
}
