// Package errors centralizes request-scoped logging for the dashboard's
// handlers. Internal detail (including backend response fragments wrapped in
// an api error) goes to the log; the browser only ever sees a generic
// message.
package errors

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

func InternalError(w http.ResponseWriter, r *http.Request, err error, message string) {
	log.Printf("[ERROR] request_id=%s method=%s path=%s %s: %v",
		middleware.GetReqID(r.Context()), r.Method, r.URL.Path, message, err)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// BadRequestError logs a malformed browser request and answers with the
// given client-safe message.
func BadRequestError(w http.ResponseWriter, r *http.Request, err error, clientMessage string) {
	log.Printf("[WARN] request_id=%s method=%s path=%s bad request: %v",
		middleware.GetReqID(r.Context()), r.Method, r.URL.Path, err)
	http.Error(w, clientMessage, http.StatusBadRequest)
}

func LogError(r *http.Request, message string, err error) {
	log.Printf("[ERROR] request_id=%s method=%s path=%s %s: %v",
		middleware.GetReqID(r.Context()), r.Method, r.URL.Path, message, err)
}

func LogInfo(r *http.Request, message string) {
	log.Printf("[INFO] request_id=%s method=%s path=%s %s",
		middleware.GetReqID(r.Context()), r.Method, r.URL.Path, message)
}
