package pkgrouter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/startbuilds/excel-mysql-exporter/internal/pkg/pkgerror"
)

// HeaderErrorCode carries the pkgerror code of a failed request.
const HeaderErrorCode = "X-Error-Code"

// Handler returns a payload to encode as the "data" of the success envelope,
// or an error mapped through pkgerror.
//
// A payload may implement StatusCode() int, Message() string and
// Meta() map[string]any to shape the envelope.
type Handler func(ctx context.Context, r *http.Request) (any, error)

type Router struct {
	hr  *httprouter.Router
	mws []Middleware
}

type (
	statusCoder interface{ StatusCode() int }
	messager    interface{ Message() string }
	metaer      interface{ Meta() map[string]any }
)

type errorResponse struct {
	Message string            `json:"message"`
	Error   map[string]string `json:"error,omitempty"`
}

type successResponse struct {
	Message string         `json:"message"`
	Data    any            `json:"data"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// NewRouter builds the router with recovery, correlation IDs and request
// logging applied to every route, plus "/" and "/health".
func NewRouter(gen Generator) *Router {
	ro := &Router{
		hr: &httprouter.Router{
			RedirectTrailingSlash:  true,
			RedirectFixedPath:      true,
			HandleMethodNotAllowed: true,
			HandleOPTIONS:          true,
			NotFound:               staticJSON(http.StatusNotFound, "endpoint not found"),
			MethodNotAllowed:       staticJSON(http.StatusMethodNotAllowed, "method not allowed"),
		},
		mws: []Middleware{
			middlewareRecoverer,
			middlewareCorrelationID(gen),
			middlewareLogging,
		},
	}

	ro.Handle(http.MethodGet, "/", staticJSON(http.StatusOK, "excel exporter"))
	ro.Handle(http.MethodGet, "/health", staticJSON(http.StatusOK, "ok"))

	return ro
}

func staticJSON(code int, message string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]string{"message": message}, code)
	})
}

func (r *Router) Use(mws ...Middleware) {
	r.mws = append(r.mws, mws...)
}

func (r *Router) GET(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodGet, path, h, mws...)
}

func (r *Router) POST(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodPost, path, h, mws...)
}

// Handle registers a plain http.Handler behind the router middleware.
func (r *Router) Handle(method, path string, h http.Handler, mws ...Middleware) {
	r.hr.Handler(method, path, r.wrap(h, mws))
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.hr.ServeHTTP(w, req)
}

func (r *Router) wrap(h http.Handler, mws []Middleware) http.Handler {
	all := make([]Middleware, 0, len(r.mws)+len(mws))
	all = append(all, r.mws...)
	all = append(all, mws...)
	return Chain(h, all...)
}

func (r *Router) endpoint(method, path string, h Handler, mws ...Middleware) {
	r.hr.Handler(method, path, r.wrap(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ctx := req.Context()
		resp, err := h(ctx, req)
		if err != nil {
			writeError(ctx, w, err)
			return
		}
		writeSuccess(w, resp)
	}), mws))
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	var gerr *pkgerror.Error
	if !errors.As(err, &gerr) {
		slog.ErrorContext(ctx, "request failed with unmapped error", "error", err)
		writeJSON(w, errorResponse{Message: "Internal server error"}, http.StatusInternalServerError)
		return
	}

	resp := errorResponse{Message: gerr.Msg()}
	switch gerr.Type() {
	case pkgerror.TypeValidation:
		if cause := gerr.Unwrap(); cause != nil {
			resp.Error = map[string]string{"reason": cause.Error()}
		}
	case pkgerror.TypeServer:
		slog.ErrorContext(ctx, "request failed", "code", gerr.Code().String(), "error", gerr.Unwrap())
	}

	w.Header().Set(HeaderErrorCode, gerr.Code().String())
	writeJSON(w, resp, gerr.StatusCode())
}

func writeSuccess(w http.ResponseWriter, resp any) {
	code := http.StatusOK
	if sc, ok := resp.(statusCoder); ok {
		code = sc.StatusCode()
	}
	if resp == nil || code == http.StatusNoContent {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	env := successResponse{Message: "request succeeded", Data: resp}
	if m, ok := resp.(messager); ok {
		env.Message = m.Message()
	}
	if m, ok := resp.(metaer); ok {
		env.Meta = m.Meta()
	}

	writeJSON(w, env, code)
}

func writeJSON(w http.ResponseWriter, data any, code int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// GetParam reads a path parameter, such as the run ID of /exports/:id.
func GetParam(ctx context.Context, key string) string {
	return httprouter.ParamsFromContext(ctx).ByName(key)
}
