package chi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/autorovers/autorovers/internal/domain/comparison/row"
	"github.com/autorovers/autorovers/internal/domain/vehicle"
	compareuc "github.com/autorovers/autorovers/internal/usecase/compare"
)

// ErrorResponseCode is a machine-readable error code.
type ErrorResponseCode string

// Error codes.
const (
	ErrorResponseCodeBadRequest         ErrorResponseCode = "bad_request"
	ErrorResponseCodeUnauthorized       ErrorResponseCode = "unauthorized"
	ErrorResponseCodeNotFound           ErrorResponseCode = "not_found"
	ErrorResponseCodeValidationFailed   ErrorResponseCode = "validation_failed"
	ErrorResponseCodeInvalidVehicleType ErrorResponseCode = "invalid_vehicle_type"
	ErrorResponseCodeRateLimited        ErrorResponseCode = "rate_limited"
	ErrorResponseCodeStorageUnavailable ErrorResponseCode = "storage_unavailable"
	ErrorResponseCodeCatalogUnavailable ErrorResponseCode = "catalog_unavailable"
	ErrorResponseCodeInternalError      ErrorResponseCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorResponseCode `json:"code"`
	Message string            `json:"message"`
}

// SelectionResponse is the compare selection as seen by clients.
type SelectionResponse struct {
	VehicleType *vehicle.Line       `json:"vehicleType"`
	Items       []vehicle.Reference `json:"items"`
	Capacity    int                 `json:"capacity"`
	Reason      *string             `json:"reason,omitempty"`
	Message     *string             `json:"message,omitempty"`
}

// VehicleTypeRequest is the body of PUT /vehicle-type.
type VehicleTypeRequest struct {
	VehicleType string `json:"vehicleType"`
}

// VehicleTypeResponse reports the session's product line; null when unset.
type VehicleTypeResponse struct {
	VehicleType *vehicle.Line `json:"vehicleType"`
}

// CompareResponse is the rendered comparison.
type CompareResponse struct {
	VehicleType  *vehicle.Line     `json:"vehicleType"`
	Insufficient bool              `json:"insufficient"`
	Columns      []row.Column      `json:"columns"`
	Rows         []row.RenderedRow `json:"rows"`
	Dropped      []compareuc.Drop  `json:"dropped"`
}

// VehicleListResponse is the catalog list filtered to one product line.
type VehicleListResponse struct {
	VehicleType *vehicle.Line       `json:"vehicleType"`
	Items       []vehicle.Reference `json:"items"`
}

// HealthResponse reports component health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// ListVehiclesParams are the query parameters of GET /vehicles.
type ListVehiclesParams struct {
	VehicleType *string `form:"vehicleType,omitempty" json:"vehicleType,omitempty"`
}

// ServerInterface lists every HTTP operation.
type ServerInterface interface {
	// GET /compare/selection
	GetSelection(w http.ResponseWriter, r *http.Request)
	// POST /compare/selection/toggle
	ToggleSelection(w http.ResponseWriter, r *http.Request)
	// DELETE /compare/selection
	ClearSelection(w http.ResponseWriter, r *http.Request)
	// DELETE /compare/selection/items/{slug}
	RemoveSelectionItem(w http.ResponseWriter, r *http.Request, slug string)
	// GET /compare
	CompareSelection(w http.ResponseWriter, r *http.Request)
	// GET /compare/events
	StreamSelectionEvents(w http.ResponseWriter, r *http.Request)
	// GET /vehicle-type
	GetVehicleType(w http.ResponseWriter, r *http.Request)
	// PUT /vehicle-type
	SetVehicleType(w http.ResponseWriter, r *http.Request)
	// DELETE /vehicle-type
	ClearVehicleType(w http.ResponseWriter, r *http.Request)
	// GET /vehicles
	ListVehicles(w http.ResponseWriter, r *http.Request, params ListVehiclesParams)
	// GET /health
	HealthCheck(w http.ResponseWriter, r *http.Request)
	// GET /metrics
	Metrics(w http.ResponseWriter, r *http.Request)
}

// MiddlewareFunc wraps a single operation.
type MiddlewareFunc func(http.Handler) http.Handler

// ChiServerOptions configures HandlerWithOptions.
type ChiServerOptions struct {
	BaseURL          string
	BaseRouter       chi.Router
	Middlewares      []MiddlewareFunc
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// InvalidParamFormatError reports a parameter that failed to bind.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("Invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error { return e.Err }

// serverInterfaceWrapper binds parameters and applies per-operation middlewares.
type serverInterfaceWrapper struct {
	handler          ServerInterface
	middlewares      []MiddlewareFunc
	errorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

func (siw *serverInterfaceWrapper) wrap(h http.HandlerFunc) http.Handler {
	var handler http.Handler = h
	for _, m := range siw.middlewares {
		handler = m(handler)
	}
	return handler
}

func (siw *serverInterfaceWrapper) plain(op func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		siw.wrap(op).ServeHTTP(w, r)
	}
}

func (siw *serverInterfaceWrapper) RemoveSelectionItem(w http.ResponseWriter, r *http.Request) {
	var slug string
	err := runtime.BindStyledParameterWithOptions("simple", "slug", chi.URLParam(r, "slug"), &slug,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		siw.errorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "slug", Err: err})
		return
	}
	siw.wrap(func(w http.ResponseWriter, r *http.Request) {
		siw.handler.RemoveSelectionItem(w, r, slug)
	}).ServeHTTP(w, r)
}

func (siw *serverInterfaceWrapper) ListVehicles(w http.ResponseWriter, r *http.Request) {
	var params ListVehiclesParams
	err := runtime.BindQueryParameter("form", true, false, "vehicleType", r.URL.Query(), &params.VehicleType)
	if err != nil {
		siw.errorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "vehicleType", Err: err})
		return
	}
	siw.wrap(func(w http.ResponseWriter, r *http.Request) {
		siw.handler.ListVehicles(w, r, params)
	}).ServeHTTP(w, r)
}

// Handler creates an http.Handler with routing matching the API.
func Handler(si ServerInterface) http.Handler {
	return HandlerWithOptions(si, ChiServerOptions{})
}

// HandlerWithOptions creates an http.Handler with additional options.
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, _ *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	}
	w := &serverInterfaceWrapper{
		handler:          si,
		middlewares:      options.Middlewares,
		errorHandlerFunc: options.ErrorHandlerFunc,
	}
	base := options.BaseURL

	r.Group(func(r chi.Router) {
		r.Get(base+"/compare/selection", w.plain(si.GetSelection))
		r.Post(base+"/compare/selection/toggle", w.plain(si.ToggleSelection))
		r.Delete(base+"/compare/selection", w.plain(si.ClearSelection))
		r.Delete(base+"/compare/selection/items/{slug}", w.RemoveSelectionItem)
		r.Get(base+"/compare", w.plain(si.CompareSelection))
		r.Get(base+"/compare/events", w.plain(si.StreamSelectionEvents))
		r.Get(base+"/vehicle-type", w.plain(si.GetVehicleType))
		r.Put(base+"/vehicle-type", w.plain(si.SetVehicleType))
		r.Delete(base+"/vehicle-type", w.plain(si.ClearVehicleType))
		r.Get(base+"/vehicles", w.ListVehicles)
		r.Get(base+"/health", si.HealthCheck)
		r.Get(base+"/metrics", si.Metrics)
	})
	return r
}
