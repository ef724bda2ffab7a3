package handlers

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"tollboard/internal/observatory"
	"tollboard/internal/session"
	"tollboard/internal/web"
)

// AdminHandlers owns the health check, data reset and bulk upload actions.
// Each action keeps its own transient feedback; nothing is persisted.
type AdminHandlers struct {
	client   *observatory.Client
	sessions *session.Store
	renderer *web.Renderer
	logger   *zap.Logger
	adminID  string
}

// NewAdminHandlers returns handler struct.
func NewAdminHandlers(client *observatory.Client, sessions *session.Store, renderer *web.Renderer, logger *zap.Logger, adminID string) *AdminHandlers {
	return &AdminHandlers{client: client, sessions: sessions, renderer: renderer, logger: logger, adminID: adminID}
}

type adminData struct {
	web.PageData
	HealthStatus   string
	HealthOK       bool
	ResetFeedback  string
	ResetOK        bool
	PassesFeedback string
	PassesOK       bool
}

func (h *AdminHandlers) data(r *http.Request, sess session.Session) adminData {
	return adminData{PageData: page("Admin", r, sess, h.adminID)}
}

// Show handles GET /admin.
func (h *AdminHandlers) Show(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Get(r)
	h.renderer.Render(w, http.StatusOK, "admin", h.data(r, sess))
}

// HealthCheck handles POST /admin/healthcheck. A reachable backend that
// reports a non-OK status is still a failure for the operator looking at
// the page.
func (h *AdminHandlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Get(r)
	data := h.data(r, sess)

	health, err := h.client.HealthCheck(r.Context(), sess.Token)
	switch {
	case err != nil:
		h.logger.Warn("healthcheck failed", zap.Error(err))
		data.HealthStatus = displayError(err)
	case health.OK():
		data.HealthStatus = fmt.Sprintf("Healthy: Stations - %d, Tags - %d, Passes - %d",
			health.NStations, health.NTags, health.NPasses)
		data.HealthOK = true
	default:
		data.HealthStatus = "Health check failed: Database issue detected."
	}
	h.renderer.Render(w, http.StatusOK, "admin", data)
}

// ResetStations handles POST /admin/resetstations.
func (h *AdminHandlers) ResetStations(w http.ResponseWriter, r *http.Request) {
	h.reset(w, r, "stations", h.client.ResetStations, "Stations reset successful.")
}

// ResetPasses handles POST /admin/resetpasses.
func (h *AdminHandlers) ResetPasses(w http.ResponseWriter, r *http.Request) {
	h.reset(w, r, "passes", h.client.ResetPasses, "Passes reset successful.")
}

// reset runs one of the two reset actions; they share a single feedback
// slot, same as they share it on screen.
func (h *AdminHandlers) reset(w http.ResponseWriter, r *http.Request, what string, action func(context.Context, string) error, success string) {
	sess := h.sessions.Get(r)
	data := h.data(r, sess)

	if err := action(r.Context(), sess.Token); err != nil {
		h.logger.Warn("reset failed", zap.String("target", what), zap.Error(err))
		data.ResetFeedback = displayError(err)
		h.renderer.Render(w, http.StatusOK, "admin", data)
		return
	}

	data.ResetFeedback = success
	data.ResetOK = true
	h.renderer.Render(w, http.StatusOK, "admin", data)
}

// AddPasses handles POST /admin/addpasses. A missing file is rejected
// locally; no request is issued.
func (h *AdminHandlers) AddPasses(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Get(r)
	data := h.data(r, sess)

	file, header, err := r.FormFile("file")
	if err != nil {
		data.PassesFeedback = "Please select a CSV file to upload."
		h.renderer.Render(w, http.StatusOK, "admin", data)
		return
	}
	defer file.Close()

	if err := h.client.AddPasses(r.Context(), sess.Token, header.Filename, file); err != nil {
		h.logger.Warn("pass upload failed", zap.String("filename", header.Filename), zap.Error(err))
		data.PassesFeedback = displayError(err)
		h.renderer.Render(w, http.StatusOK, "admin", data)
		return
	}

	data.PassesFeedback = "Passes added successfully!"
	data.PassesOK = true
	h.renderer.Render(w, http.StatusOK, "admin", data)
}
