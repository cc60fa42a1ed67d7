package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/vav-sim-core/internal/point"
)

// handleListPoints returns all points, with an optional category filter.
//
// Query parameters:
//   - category: filter by point category (analog_input, binary_output, ...)
func (s *Server) handleListPoints(w http.ResponseWriter, r *http.Request) {
	if cat := r.URL.Query().Get("category"); cat != "" {
		points := s.registry.ByCategory(point.Category(cat))
		snaps := make([]point.Snapshot, 0, len(points))
		for _, p := range points {
			snaps = append(snaps, p.Snapshot())
		}
		writeJSON(w, http.StatusOK, map[string]any{"points": snaps, "count": len(snaps)})
		return
	}

	snaps := s.registry.Snapshots()
	writeJSON(w, http.StatusOK, map[string]any{"points": snaps, "count": len(snaps)})
}

// handleGetPoint returns a single point snapshot by name.
func (s *Server) handleGetPoint(w http.ResponseWriter, r *http.Request) {
	p, err := s.registry.Get(chi.URLParam(r, "name"))
	if err != nil {
		writePointError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p.Snapshot())
}

// handleGetValue returns just the present value of a point, the lightweight
// form for pollers that do not want the full snapshot.
func (s *Server) handleGetValue(w http.ResponseWriter, r *http.Request) {
	p, err := s.registry.Get(chi.URLParam(r, "name"))
	if err != nil {
		writePointError(w, err)
		return
	}
	snap := p.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"point":      snap.Name,
		"value":      snap.Value,
		"units":      snap.Units,
		"updated_at": snap.UpdatedAt,
	})
}

// handlePointStats summarises the point set.
func (s *Server) handlePointStats(w http.ResponseWriter, _ *http.Request) {
	stats := s.registry.GetStats()
	writeJSON(w, http.StatusOK, map[string]any{
		"total_points": stats.TotalPoints,
		"commandable":  stats.Commandable,
		"placeholders": stats.Placeholders,
		"by_category":  stats.ByCategory,
	})
}

// prioritySlotView is one entry of the priority array. A nil value means the
// slot is unoccupied.
type prioritySlotView struct {
	Slot  int          `json:"slot"`
	Value *point.Value `json:"value"`
}

// priorityView is the full arbitration state of a commandable point.
type priorityView struct {
	Point             string             `json:"point"`
	RelinquishDefault point.Value        `json:"relinquish_default"`
	ActiveSlot        int                `json:"active_slot,omitempty"`
	Slots             []prioritySlotView `json:"slots"`
}

// handleGetPriority returns the priority array of a commandable point.
func (s *Server) handleGetPriority(w http.ResponseWriter, r *http.Request) {
	p, err := s.registry.Get(chi.URLParam(r, "name"))
	if err != nil {
		writePointError(w, err)
		return
	}

	def, ok := p.RelinquishDefault()
	if !ok {
		writeConflict(w, "point is not commandable")
		return
	}

	slots := p.PrioritySnapshot()
	view := priorityView{
		Point:             p.Name(),
		RelinquishDefault: def,
		ActiveSlot:        p.Snapshot().ActiveSlot,
		Slots:             make([]prioritySlotView, len(slots)),
	}
	for i, v := range slots {
		view.Slots[i] = prioritySlotView{Slot: i + 1, Value: v}
	}

	writeJSON(w, http.StatusOK, view)
}

// priorityWriteRequest is the body of PUT /points/{name}/priority/{slot}.
type priorityWriteRequest struct {
	Value *float64 `json:"value"`
}

// handleWritePriority commands one priority slot of a point.
// The response is the point snapshot after arbitration, so the caller sees
// immediately whether a higher-priority slot still wins.
func (s *Server) handleWritePriority(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	slot, err := strconv.Atoi(chi.URLParam(r, "slot"))
	if err != nil {
		writeBadRequest(w, "slot must be an integer between 1 and 16")
		return
	}

	var req priorityWriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Value == nil {
		writeBadRequest(w, "value is required; use DELETE to relinquish")
		return
	}

	p, err := s.registry.Get(name)
	if err != nil {
		writePointError(w, err)
		return
	}

	v := point.ValueForKind(p.Kind(), *req.Value)
	if err := p.WriteSlot(slot, &v); err != nil {
		writePointError(w, err)
		return
	}

	snap := p.Snapshot()
	s.notifyUpdate(snap)
	writeJSON(w, http.StatusOK, snap)
}

// handleRelinquishPriority clears one priority slot of a point.
func (s *Server) handleRelinquishPriority(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	slot, err := strconv.Atoi(chi.URLParam(r, "slot"))
	if err != nil {
		writeBadRequest(w, "slot must be an integer between 1 and 16")
		return
	}

	p, err := s.registry.Get(name)
	if err != nil {
		writePointError(w, err)
		return
	}

	if err := p.WriteSlot(slot, nil); err != nil {
		writePointError(w, err)
		return
	}

	snap := p.Snapshot()
	s.notifyUpdate(snap)
	writeJSON(w, http.StatusOK, snap)
}

// writePointError maps point-domain errors onto HTTP responses.
func writePointError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, point.ErrPointNotFound):
		writeNotFound(w, "point not found")
	case errors.Is(err, point.ErrNotCommandable):
		writeConflict(w, err.Error())
	case errors.Is(err, point.ErrInvalidPriority), errors.Is(err, point.ErrInvalidValue):
		writeBadRequest(w, err.Error())
	default:
		writeInternalError(w, "point operation failed")
	}
}
