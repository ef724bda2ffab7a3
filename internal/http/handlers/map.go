package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"tollboard/internal/models"
	"tollboard/internal/observatory"
	"tollboard/internal/session"
	"tollboard/internal/web"
)

// MapHandlers renders toll stations with pass statistics on a map.
type MapHandlers struct {
	client   *observatory.Client
	sessions *session.Store
	renderer *web.Renderer
	logger   *zap.Logger
	adminID  string
}

// NewMapHandlers returns handler struct.
func NewMapHandlers(client *observatory.Client, sessions *session.Store, renderer *web.Renderer, logger *zap.Logger, adminID string) *MapHandlers {
	return &MapHandlers{client: client, sessions: sessions, renderer: renderer, logger: logger, adminID: adminID}
}

type mapData struct {
	web.PageData
	FromDate string
	ToDate   string
	Operator string
	Stations []models.StationView
}

// Show handles GET /map. Without query parameters it renders the empty
// filter form; with them it validates, loads the pass summary and renders
// the markers.
func (h *MapHandlers) Show(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Get(r)
	q := r.URL.Query()

	data := mapData{
		PageData: page("Map", r, sess, h.adminID),
		FromDate: q.Get("fromDate"),
		ToDate:   q.Get("toDate"),
		Operator: sess.OperatorID,
		Stations: []models.StationView{},
	}
	if sess.IsAdmin(h.adminID) && q.Get("operator") != "" {
		data.Operator = q.Get("operator")
	}

	if !q.Has("fromDate") && !q.Has("toDate") {
		h.renderer.Render(w, http.StatusOK, "map", data)
		return
	}

	if data.FromDate == "" {
		data.Error = `Please select a "From Date".`
		h.renderer.Render(w, http.StatusOK, "map", data)
		return
	}
	if data.ToDate == "" {
		data.Error = `Please select a "To Date".`
		h.renderer.Render(w, http.StatusOK, "map", data)
		return
	}
	if data.Operator == "" {
		data.Error = `Please provide an "Operator ID".`
		h.renderer.Render(w, http.StatusOK, "map", data)
		return
	}

	from, err := models.NormalizeDate(data.FromDate)
	if err != nil {
		data.Error = `Please select a "From Date".`
		h.renderer.Render(w, http.StatusOK, "map", data)
		return
	}
	to, err := models.NormalizeDate(data.ToDate)
	if err != nil {
		data.Error = `Please select a "To Date".`
		h.renderer.Render(w, http.StatusOK, "map", data)
		return
	}

	stations, err := h.client.PassSummary(r.Context(), sess.Token, data.Operator, from, to)
	if errors.Is(err, observatory.ErrNoData) {
		data.Notice = "No data available for the selected filters."
		h.renderer.Render(w, http.StatusOK, "map", data)
		return
	}
	if err != nil {
		h.logger.Warn("pass summary load failed", zap.String("operator", data.Operator), zap.Error(err))
		data.Error = displayError(err)
		h.renderer.Render(w, http.StatusOK, "map", data)
		return
	}

	data.Stations = models.StationViews(stations, data.Operator)
	h.renderer.Render(w, http.StatusOK, "map", data)
}
