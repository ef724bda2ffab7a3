package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/csrf"

	"tollboard/internal/observatory"
	"tollboard/internal/session"
	"tollboard/internal/web"
)

// page builds the layout data every handler starts from.
func page(title string, r *http.Request, sess session.Session, adminID string) web.PageData {
	return web.PageData{
		Title:     title,
		LoggedIn:  sess.LoggedIn(),
		IsAdmin:   sess.IsAdmin(adminID),
		Username:  sess.Username,
		CSRFField: csrf.TemplateField(r),
	}
}

// displayError maps the client error taxonomy onto the messages the pages
// show. Order matters: the unauthorized and no-token cases have fixed
// texts, API errors prefer the server-supplied message.
func displayError(err error) string {
	var apiErr *observatory.APIError
	var transportErr *observatory.TransportError

	switch {
	case errors.Is(err, observatory.ErrNoToken):
		return "No authentication token found. Please log in."
	case errors.Is(err, observatory.ErrUnauthorized):
		return "Unauthorized: Invalid or missing auth key."
	case errors.As(err, &apiErr):
		if apiErr.Message != "" {
			return "Error: " + apiErr.Message
		}
		return "Error: Unexpected server error."
	case errors.As(err, &transportErr):
		return "No response from the server. Please check your network or backend."
	default:
		return "An error occurred. Please try again."
	}
}
