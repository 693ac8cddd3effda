package diagnosis

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/respira-diag/fuzzydx/internal/shared/auth"
	"github.com/respira-diag/fuzzydx/internal/shared/config"
	"github.com/respira-diag/fuzzydx/internal/shared/errors"
)

// Handler provides HTTP handlers for diagnosis and knowledge base admin
type Handler struct {
	svc  *Service
	auth config.AuthConfig
	log  logrus.FieldLogger
}

func NewHandler(svc *Service, authCfg config.AuthConfig, log logrus.FieldLogger) *Handler {
	return &Handler{svc: svc, auth: authCfg, log: log}
}

// Routes registers the diagnosis routes; mount under /api/v1
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/diagnosis", h.Diagnose)
	r.Get("/diagnosis/symptoms", h.Symptoms)
	r.Get("/knowledge", h.Knowledge)

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(h.auth))
		r.Use(auth.RequireRoles(h.auth.AdminRole))
		r.Post("/knowledge/reload", h.Reload)
	})

	return r
}

func (h *Handler) Diagnose(w http.ResponseWriter, r *http.Request) {
	var req Request
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		h.writeError(w, errors.BadRequest("invalid request body: "+err.Error()))
		return
	}

	resp, err := h.svc.Diagnose(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Symptoms(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.Symptoms()
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Knowledge(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.Knowledge()
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.Reload(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	if user := auth.GetUser(r.Context()); user != nil {
		h.log.WithFields(logrus.Fields{
			"operator": user.Subject,
			"version":  report.Version,
		}).Info("knowledge base reloaded")
	}
	writeJSON(w, http.StatusOK, report)
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	appErr := errors.From(err)
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		h.log.WithError(err).Error("request failed")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.HTTPStatus)
	json.NewEncoder(w).Encode(map[string]any{
		"error":   appErr.Message,
		"code":    appErr.Code,
		"details": appErr.Details,
	})
}
