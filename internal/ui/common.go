package ui

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/jeffreasy/agenda-dashboard/internal/api"
	"github.com/jeffreasy/agenda-dashboard/internal/http/csrf"
	"github.com/jeffreasy/agenda-dashboard/internal/http/errors"
)

// handleAuthError is the single composition point for authentication
// failures: the API client has already cleared the token by the time a
// KindAuth error surfaces, so the handler only has to drop the snapshot and
// send the browser to the login entry point. Returns true when the
// response has been written.
func (h *Handler) handleAuthError(w http.ResponseWriter, r *http.Request, err error) bool {
	if !api.IsKind(err, api.KindAuth) {
		return false
	}
	errors.LogInfo(r, "session rejected by backend, redirecting to login")
	h.snapshot.Clear()
	http.Redirect(w, r, "/login", http.StatusFound)
	return true
}

// bannerMessage maps a failed read or write to the user-facing message for
// the error banner or flash. Internals never leak; 5xx details are already
// logged by the API client.
func bannerMessage(err error) string {
	var apiErr *api.Error
	if !stderrors.As(err, &apiErr) {
		return "Something unexpected went wrong. Please try again."
	}
	switch apiErr.Kind {
	case api.KindNetwork:
		return "Cannot reach the automation service. Check your connectivity and try again."
	case api.KindNotFound:
		return "The requested item was not found. It may have been removed."
	case api.KindServer:
		return "The automation service had a problem handling this. Please try again."
	default:
		return fmt.Sprintf("The request was rejected (status %d).", apiErr.Status)
	}
}

// withFlash adds flash messages and the CSRF token to template data.
func (h *Handler) withFlash(r *http.Request, data map[string]any) map[string]any {
	q := r.URL.Query()
	if status := q.Get("status"); status != "" {
		data["FlashMessage"] = status
	}
	if errMsg := q.Get("error"); errMsg != "" {
		data["FlashError"] = errMsg
	}
	if csrfToken := csrf.TokenFromContext(r.Context()); csrfToken != "" {
		data["CSRFToken"] = csrfToken
	}
	return data
}

// redirect redirects to a path with query parameters, dropping empties.
func (h *Handler) redirect(w http.ResponseWriter, r *http.Request, path string, params map[string]string) {
	q := url.Values{}
	for k, v := range params {
		if v != "" {
			q.Set(k, v)
		}
	}
	location := path
	if encoded := q.Encode(); encoded != "" {
		location += "?" + encoded
	}
	http.Redirect(w, r, location, http.StatusFound)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	tmpl, ok := h.templates[name]
	if !ok {
		errors.InternalError(w, r, fmt.Errorf("template not found"), fmt.Sprintf("template %q not found", name))
		return
	}
	if err := tmpl.ExecuteTemplate(w, name, data); err != nil {
		errors.InternalError(w, r, err, fmt.Sprintf("template render error for %q", name))
	}
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, message string) {
	w.WriteHeader(http.StatusInternalServerError)
	h.render(w, r, "error.html", map[string]any{"Title": "Error", "Message": message})
}
