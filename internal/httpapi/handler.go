// Package httpapi exposes the roll evaluator over HTTP.
//
// Routes:
//
//	GET /roll                 evaluate the default roll string
//	GET /roll/{rollString}    evaluate the path remainder (path-unescaped)
//	GET /macros/{name}?arg=   expand a Lua macro and evaluate its roll string
//	GET /healthz              liveness check
//
// Success responds 200 with {"total": n, "rolls": {...}}; caller errors
// respond 400 (404 for unknown macros) with {"error": msg}.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/cory-johannsen/diceroller/internal/dice"
	"github.com/cory-johannsen/diceroller/internal/scripting"
)

// RollFunc evaluates a roll string. *dice.Roller satisfies it via its Roll method.
type RollFunc func(rollString string) (dice.RollResult, error)

// MacroExpander expands a named macro into a roll string.
type MacroExpander interface {
	Expand(name string, args ...string) (string, error)
}

// Handlers provides the HTTP handlers for the roll API.
type Handlers struct {
	roll        RollFunc
	macros      MacroExpander
	defaultRoll string
	logger      *zap.Logger
}

// NewHandlers creates Handlers.
//
// Precondition: roll and logger must be non-nil; defaultRoll must be non-empty.
// macros may be nil, which disables the macro route.
func NewHandlers(roll RollFunc, macros MacroExpander, defaultRoll string, logger *zap.Logger) *Handlers {
	return &Handlers{
		roll:        roll,
		macros:      macros,
		defaultRoll: defaultRoll,
		logger:      logger,
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// HandleDefaultRoll evaluates the configured default roll string.
func (h *Handlers) HandleDefaultRoll(w http.ResponseWriter, r *http.Request) {
	h.evaluate(w, r, h.defaultRoll)
}

// HandleRoll evaluates the roll string carried in the path.
func (h *Handlers) HandleRoll(w http.ResponseWriter, r *http.Request) {
	rollString := chi.URLParam(r, "*")
	if unescaped, err := url.PathUnescape(rollString); err == nil {
		rollString = unescaped
	}
	if rollString == "" {
		rollString = h.defaultRoll
	}
	h.evaluate(w, r, rollString)
}

// HandleMacro expands the named macro with the request's "arg" query values
// and evaluates the resulting roll string.
func (h *Handlers) HandleMacro(w http.ResponseWriter, r *http.Request) {
	if h.macros == nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "roll macros are not enabled"})
		return
	}
	name := chi.URLParam(r, "name")
	rollString, err := h.macros.Expand(name, r.URL.Query()["arg"]...)
	if err != nil {
		if errors.Is(err, scripting.ErrMacroNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody{Error: "unknown macro: " + name})
			return
		}
		requestLogger(r, h.logger).Warn("macro expansion failed",
			zap.String("macro", name),
			zap.Error(err),
		)
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	h.evaluate(w, r, rollString)
}

// HandleHealth reports liveness.
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) evaluate(w http.ResponseWriter, r *http.Request, rollString string) {
	result, err := h.roll(rollString)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, result)
	case dice.IsValidationError(err):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	default:
		requestLogger(r, h.logger).Error("roll evaluation failed",
			zap.String("roll_string", rollString),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
