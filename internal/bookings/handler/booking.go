package handler

import (
	"encoding/json"
	"net/http"

	"staybook/internal/bookings/service"
	apperrors "staybook/pkg/errors"
	httputil "staybook/pkg/http"
	"staybook/pkg/logger"
	"staybook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type AvailabilityResponse struct {
	HotelID   string `json:"hotel_id"`
	Date      string `json:"date"`
	RoomType  string `json:"room_type"`
	Available bool   `json:"available"`
}

type BookingHandler struct {
	service service.BookingService
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log,
	}
}

func (h *BookingHandler) Availability(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	params, err := httputil.RequiredQuery(r, "hotel_id", "date", "room_type")
	if err != nil {
		h.writeError(w, "Availability", err)
		return
	}

	available, err := h.service.IsAvailable(r.Context(), params["hotel_id"], params["date"], params["room_type"])
	if err != nil {
		h.writeError(w, "Availability", err)
		return
	}

	if err := httputil.WriteSuccess(w, AvailabilityResponse{
		HotelID:   params["hotel_id"],
		Date:      params["date"],
		RoomType:  params["room_type"],
		Available: available,
	}); err != nil {
		h.log.Error("failed to write success response", "handler", "Availability", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) Reserve(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var offering model.Offering
	if err := json.NewDecoder(r.Body).Decode(&offering); err != nil {
		h.writeError(w, "Reserve", apperrors.InvalidInput("Invalid request body"))
		return
	}

	record, err := h.service.Reserve(r.Context(), &offering)
	if err != nil {
		h.writeError(w, "Reserve", err)
		return
	}

	if err := httputil.WriteCreated(w, record); err != nil {
		h.log.Error("failed to write created response", "handler", "Reserve", "operation", "WriteCreated", "error", err)
	}
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	refresh, err := httputil.QueryBool(r, "refresh")
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	records, err := h.service.ListBookings(r.Context(), refresh)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	if err := httputil.WriteSuccess(w, records); err != nil {
		h.log.Error("failed to write success response", "handler", "List", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	key := ps.ByName("key")

	if err := h.service.Cancel(r.Context(), key); err != nil {
		h.writeError(w, "Cancel", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *BookingHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/availability", h.Availability)
	router.POST("/api/v1/bookings", h.Reserve)
	router.GET("/api/v1/bookings", h.List)
	router.DELETE("/api/v1/bookings/key/:key", h.Cancel)
}
