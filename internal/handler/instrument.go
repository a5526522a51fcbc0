package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmelo/sharebook/internal/domain"
	"github.com/dmelo/sharebook/internal/service"
)

// InstrumentHandler handles HTTP requests for instrument endpoints.
type InstrumentHandler struct {
	instrumentSvc *service.InstrumentService
}

// NewInstrumentHandler creates a new InstrumentHandler.
func NewInstrumentHandler(instrumentSvc *service.InstrumentService) *InstrumentHandler {
	return &InstrumentHandler{instrumentSvc: instrumentSvc}
}

// registerInstrumentRequest is the JSON request body for POST /instruments.
type registerInstrumentRequest struct {
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	TotalShares int64  `json:"total_shares"`
	Price       int64  `json:"price"`
	Caller      string `json:"caller"`
}

// instrumentResponse is a single instrument in the response.
type instrumentResponse struct {
	Name           string `json:"name"`
	Symbol         string `json:"symbol"`
	Owner          string `json:"owner"`
	TotalShares    int64  `json:"total_shares"`
	ReferencePrice int64  `json:"reference_price"`
	CreatedAt      string `json:"created_at"`
}

// instrumentListResponse is the JSON response for GET /instruments.
type instrumentListResponse struct {
	Instruments []instrumentResponse `json:"instruments"`
}

// Register handles POST /instruments.
func (h *InstrumentHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerInstrumentRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	inst, err := h.instrumentSvc.Register(service.RegisterInstrumentRequest{
		Name:        req.Name,
		Symbol:      req.Symbol,
		TotalShares: req.TotalShares,
		Price:       req.Price,
		Caller:      req.Caller,
	})
	if err != nil {
		mapInstrumentError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, buildInstrumentResponse(inst))
}

// Get handles GET /instruments/{symbol}.
func (h *InstrumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	inst, err := h.instrumentSvc.Get(symbol)
	if err != nil {
		mapInstrumentError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, buildInstrumentResponse(inst))
}

// List handles GET /instruments.
func (h *InstrumentHandler) List(w http.ResponseWriter, r *http.Request) {
	instruments := h.instrumentSvc.List()

	resp := instrumentListResponse{
		Instruments: make([]instrumentResponse, len(instruments)),
	}
	for i, inst := range instruments {
		resp.Instruments[i] = buildInstrumentResponse(inst)
	}

	WriteJSON(w, http.StatusOK, resp)
}

// buildInstrumentResponse converts a domain instrument to its response form.
func buildInstrumentResponse(inst *domain.Instrument) instrumentResponse {
	return instrumentResponse{
		Name:           inst.Name,
		Symbol:         inst.Symbol,
		Owner:          inst.Owner,
		TotalShares:    inst.TotalShares,
		ReferencePrice: inst.ReferencePrice,
		CreatedAt:      inst.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

// mapInstrumentError maps domain errors to HTTP responses for instrument
// endpoints.
func mapInstrumentError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		WriteError(w, http.StatusBadRequest, "validation_error", validationErr.Message)
		return
	}

	switch {
	case errors.Is(err, domain.ErrAlreadyRegistered):
		WriteError(w, http.StatusConflict, "already_registered", err.Error())
	case errors.Is(err, domain.ErrInvalidShareCount):
		WriteError(w, http.StatusBadRequest, "invalid_share_count", err.Error())
	case errors.Is(err, domain.ErrInvalidPrice):
		WriteError(w, http.StatusBadRequest, "invalid_price", err.Error())
	case errors.Is(err, domain.ErrInstrumentNotFound):
		WriteError(w, http.StatusNotFound, "instrument_not_found", err.Error())
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}
