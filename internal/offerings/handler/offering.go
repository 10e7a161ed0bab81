package handler

import (
	"net/http"

	"staybook/internal/offerings/service"
	httputil "staybook/pkg/http"
	"staybook/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

type OfferingHandler struct {
	service service.OfferingService
	log     *logger.Logger
}

func NewOfferingHandler(service service.OfferingService, log *logger.Logger) *OfferingHandler {
	return &OfferingHandler{
		service: service,
		log:     log,
	}
}

func (h *OfferingHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	offerings, err := h.service.GetAll(r.Context())
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WritePaginated(w, httputil.Page(offerings, limit, offset), len(offerings), limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *OfferingHandler) Search(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()
	results, err := h.service.Search(r.Context(), service.SearchCriteria{
		Location: query.Get("location"),
		RoomType: query.Get("room_type"),
		Date:     query.Get("date"),
	})
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}

	if err := httputil.WriteSuccess(w, results); err != nil {
		h.log.Error("failed to write success response", "handler", "Search", "operation", "WriteSuccess", "error", err)
	}
}

func (h *OfferingHandler) Locations(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	locations, err := h.service.Locations(r.Context())
	if err != nil {
		h.writeError(w, "Locations", err)
		return
	}

	if err := httputil.WriteSuccess(w, locations); err != nil {
		h.log.Error("failed to write success response", "handler", "Locations", "operation", "WriteSuccess", "error", err)
	}
}

func (h *OfferingHandler) RoomTypes(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	roomTypes, err := h.service.RoomTypes(r.Context())
	if err != nil {
		h.writeError(w, "RoomTypes", err)
		return
	}

	if err := httputil.WriteSuccess(w, roomTypes); err != nil {
		h.log.Error("failed to write success response", "handler", "RoomTypes", "operation", "WriteSuccess", "error", err)
	}
}

func (h *OfferingHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *OfferingHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/offerings", h.GetAll)
	router.GET("/api/v1/offerings/search", h.Search)
	router.GET("/api/v1/offerings/locations", h.Locations)
	router.GET("/api/v1/offerings/room-types", h.RoomTypes)
}
