package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/autorovers/autorovers/internal/domain"
	"github.com/autorovers/autorovers/internal/domain/comparison/row"
	domsel "github.com/autorovers/autorovers/internal/domain/selection"
	"github.com/autorovers/autorovers/internal/domain/vehicle"
	compareuc "github.com/autorovers/autorovers/internal/usecase/compare"
	healthuc "github.com/autorovers/autorovers/internal/usecase/health"
	selectionuc "github.com/autorovers/autorovers/internal/usecase/selection"
	vehicletypeuc "github.com/autorovers/autorovers/internal/usecase/vehicletype"
)

const maxBodyBytes = 64 << 10

// VehicleLister reads the public catalog list.
type VehicleLister interface {
	List(ctx context.Context) ([]vehicle.Reference, error)
}

// Classifier resolves list items to a product line.
type Classifier interface {
	Classify(h vehicle.Hints) (vehicle.Line, bool)
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server implements ServerInterface.
type Server struct {
	selection     *selectionuc.Service
	vehicleType   *vehicletypeuc.Service
	compare       *compareuc.Service
	health        *healthuc.Service
	vehicles      VehicleLister
	classifier    Classifier
	logger        *zap.Logger
	heartbeat     time.Duration
	errorHandlers []errorHandler
}

var _ ServerInterface = (*Server)(nil)

// NewServer creates an HTTP API server. vehicles may be nil.
func NewServer(
	selection *selectionuc.Service,
	vehicleType *vehicletypeuc.Service,
	compare *compareuc.Service,
	health *healthuc.Service,
	vehicles VehicleLister,
	classifier Classifier,
	logger *zap.Logger,
) *Server {
	s := &Server{
		selection:   selection,
		vehicleType: vehicleType,
		compare:     compare,
		health:      health,
		vehicles:    vehicles,
		classifier:  classifier,
		logger:      logger,
		heartbeat:   15 * time.Second,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest, ErrorResponseCodeValidationFailed),
		sentinelHandler(domain.ErrInvalidVehicleType, http.StatusBadRequest, ErrorResponseCodeInvalidVehicleType),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorResponseCodeNotFound),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, ErrorResponseCodeRateLimited),
		sentinelHandler(domain.ErrStorageUnavailable, http.StatusServiceUnavailable, ErrorResponseCodeStorageUnavailable),
		sentinelHandler(domain.ErrCatalogUnavailable, http.StatusBadGateway, ErrorResponseCodeCatalogUnavailable),
	}
	return s
}

// WithHeartbeat sets the keep-alive interval of the event stream.
func (s *Server) WithHeartbeat(d time.Duration) *Server {
	s.heartbeat = d
	return s
}

// GetSelection handles GET /compare/selection.
func (s *Server) GetSelection(w http.ResponseWriter, r *http.Request) {
	st := s.selection.Load(r.Context(), SessionFromContext(r.Context()))
	writeJSON(w, http.StatusOK, selectionToResponse(st, domsel.ReasonNone))
}

// ToggleSelection handles POST /compare/selection/toggle. A rejected add is
// still a 200; the body carries the reason.
func (s *Server) ToggleSelection(w http.ResponseWriter, r *http.Request) {
	var ref vehicle.Reference
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&ref); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	st, reason, err := s.selection.Toggle(r.Context(), SessionFromContext(r.Context()), ref)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, selectionToResponse(st, reason))
}

// ClearSelection handles DELETE /compare/selection.
func (s *Server) ClearSelection(w http.ResponseWriter, r *http.Request) {
	st, err := s.selection.Clear(r.Context(), SessionFromContext(r.Context()))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, selectionToResponse(st, domsel.ReasonNone))
}

// RemoveSelectionItem handles DELETE /compare/selection/items/{slug}.
func (s *Server) RemoveSelectionItem(w http.ResponseWriter, r *http.Request, slug string) {
	st, err := s.selection.Remove(r.Context(), SessionFromContext(r.Context()), slug)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, selectionToResponse(st, domsel.ReasonNone))
}

// CompareSelection handles GET /compare.
func (s *Server) CompareSelection(w http.ResponseWriter, r *http.Request) {
	res, err := s.compare.Compare(r.Context(), SessionFromContext(r.Context()))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, compareToResponse(res))
}

// GetVehicleType handles GET /vehicle-type.
func (s *Server) GetVehicleType(w http.ResponseWriter, r *http.Request) {
	line := s.vehicleType.Get(r.Context(), SessionFromContext(r.Context()))
	writeJSON(w, http.StatusOK, VehicleTypeResponse{VehicleType: linePtr(line)})
}

// SetVehicleType handles PUT /vehicle-type.
func (s *Server) SetVehicleType(w http.ResponseWriter, r *http.Request) {
	var req VehicleTypeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	line, ok := vehicle.ParseLine(req.VehicleType)
	if !ok {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeInvalidVehicleType,
			fmt.Sprintf("vehicleType must be %q or %q", vehicle.LineBike, vehicle.LineCar))
		return
	}

	if err := s.vehicleType.Set(r.Context(), SessionFromContext(r.Context()), line); err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, VehicleTypeResponse{VehicleType: linePtr(line)})
}

// ClearVehicleType handles DELETE /vehicle-type.
func (s *Server) ClearVehicleType(w http.ResponseWriter, r *http.Request) {
	if err := s.vehicleType.Clear(r.Context(), SessionFromContext(r.Context())); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListVehicles handles GET /vehicles. The list is filtered to the requested
// line, or the session's vehicle type when none is given.
func (s *Server) ListVehicles(w http.ResponseWriter, r *http.Request, params ListVehiclesParams) {
	if s.vehicles == nil {
		writeError(w, http.StatusNotFound, ErrorResponseCodeNotFound, "vehicle list is not configured")
		return
	}

	var line vehicle.Line
	if params.VehicleType != nil && *params.VehicleType != "" {
		parsed, ok := vehicle.ParseLine(*params.VehicleType)
		if !ok {
			writeError(w, http.StatusBadRequest, ErrorResponseCodeInvalidVehicleType,
				fmt.Sprintf("vehicleType must be %q or %q", vehicle.LineBike, vehicle.LineCar))
			return
		}
		line = parsed
	} else {
		line = s.vehicleType.Get(r.Context(), SessionFromContext(r.Context()))
	}

	items, err := s.vehicles.List(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	out := make([]vehicle.Reference, 0, len(items))
	for _, it := range items {
		if line.IsValid() {
			if got, ok := s.classifier.Classify(it.Hints()); !ok || got != line {
				continue
			}
		}
		out = append(out, it)
	}
	writeJSON(w, http.StatusOK, VehicleListResponse{VehicleType: linePtr(line), Items: out})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorResponseCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	var ce *domain.CatalogError
	if errors.As(err, &ce) && ce.Message != "" {
		return ce.Message
	}
	sentinels := []error{
		domain.ErrInvalidInput,
		domain.ErrInvalidVehicleType,
		domain.ErrNotFound,
		domain.ErrRateLimited,
		domain.ErrStorageUnavailable,
		domain.ErrCatalogUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorResponseCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorResponseCodeInternalError, "internal error")
}

func linePtr(l vehicle.Line) *vehicle.Line {
	if !l.IsValid() {
		return nil
	}
	return &l
}

func selectionToResponse(st domsel.State, reason domsel.Reason) SelectionResponse {
	resp := SelectionResponse{
		VehicleType: linePtr(st.Locked()),
		Items:       st.Items(),
		Capacity:    domsel.Capacity,
	}
	if resp.Items == nil {
		resp.Items = []vehicle.Reference{}
	}
	if reason != domsel.ReasonNone {
		code, msg := string(reason), reason.Message()
		resp.Reason, resp.Message = &code, &msg
	}
	return resp
}

func compareToResponse(res compareuc.Result) CompareResponse {
	resp := CompareResponse{
		VehicleType:  linePtr(res.Line),
		Insufficient: res.Insufficient,
		Columns:      res.Table.Columns,
		Rows:         res.Table.Rows,
		Dropped:      res.Dropped,
	}
	if resp.Columns == nil {
		resp.Columns = []row.Column{}
	}
	if resp.Rows == nil {
		resp.Rows = []row.RenderedRow{}
	}
	if resp.Dropped == nil {
		resp.Dropped = []compareuc.Drop{}
	}
	return resp
}
