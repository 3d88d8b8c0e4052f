package booking

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"culturin/internal/modules/notification"
	"culturin/internal/modules/payment"
	"culturin/internal/pkg/response"
)

type Handler struct {
	service     *Service
	hub         *notification.Hub
	siteBaseURL string
}

func NewHandler(service *Service, hub *notification.Hub, siteBaseURL string) *Handler {
	return &Handler{service: service, hub: hub, siteBaseURL: siteBaseURL}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	sessions := rg.Group("/booking-sessions")
	{
		sessions.POST("", h.Start)
		sessions.GET("/:id", h.Get)
		sessions.DELETE("/:id", h.Cancel)
		sessions.POST("/:id/item", h.SelectItem)
		sessions.PUT("/:id/date", h.SetDate)
		sessions.PUT("/:id/time", h.SetTime)
		sessions.PUT("/:id/guests", h.SetGuests)
		sessions.POST("/:id/guests/increment", h.IncrementGuests)
		sessions.POST("/:id/guests/decrement", h.DecrementGuests)
		sessions.PUT("/:id/contact", h.SetContact)
		sessions.PUT("/:id/payment", h.SetPayment)
		sessions.POST("/:id/next", h.Next)
		sessions.POST("/:id/back", h.Back)
		sessions.GET("/:id/ws", h.Watch)
	}

	bookings := rg.Group("/bookings")
	{
		bookings.GET("/:reference", h.GetBooking)
		bookings.GET("/:reference/download", h.DownloadConfirmation)
	}
}

// RegisterPages mounts the HTML confirmation page outside the API prefix.
func (h *Handler) RegisterPages(r gin.IRoutes) {
	r.GET("/confirmation/:reference", h.ConfirmationPage)
}

func (h *Handler) Start(c *gin.Context) {
	var req StartRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
			return
		}
	}

	resp, err := h.service.Start(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	response.Success(c, http.StatusCreated, resp)
}

func (h *Handler) Get(c *gin.Context) {
	h.reply(c)(h.service.Get(c.Param("id")))
}

func (h *Handler) Cancel(c *gin.Context) {
	if err := h.service.Cancel(c.Param("id")); err != nil {
		h.fail(c, err, nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"cancelled": true})
}

func (h *Handler) SelectItem(c *gin.Context) {
	var req SelectItemRequest
	if !bind(c, &req) {
		return
	}
	h.reply(c)(h.service.SelectItem(c.Request.Context(), c.Param("id"), req.ExperienceID))
}

func (h *Handler) SetDate(c *gin.Context) {
	var req SetDateRequest
	if !bind(c, &req) {
		return
	}
	d, err := req.Parse(time.UTC)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "date must be YYYY-MM-DD")
		return
	}
	h.reply(c)(h.service.SetDate(c.Param("id"), d))
}

func (h *Handler) SetTime(c *gin.Context) {
	var req SetTimeRequest
	if !bind(c, &req) {
		return
	}
	h.reply(c)(h.service.SetTime(c.Param("id"), req.Time))
}

func (h *Handler) SetGuests(c *gin.Context) {
	var req SetGuestsRequest
	if !bind(c, &req) {
		return
	}
	h.reply(c)(h.service.SetGuests(c.Param("id"), req.Guests))
}

func (h *Handler) IncrementGuests(c *gin.Context) {
	h.reply(c)(h.service.IncrementGuests(c.Param("id")))
}

func (h *Handler) DecrementGuests(c *gin.Context) {
	h.reply(c)(h.service.DecrementGuests(c.Param("id")))
}

func (h *Handler) SetContact(c *gin.Context) {
	var req SetContactRequest
	if !bind(c, &req) {
		return
	}
	h.reply(c)(h.service.SetContact(c.Param("id"), Contact(req)))
}

func (h *Handler) SetPayment(c *gin.Context) {
	var req SetPaymentRequest
	if !bind(c, &req) {
		return
	}
	h.reply(c)(h.service.SetPayment(c.Param("id"), payment.Details(req)))
}

func (h *Handler) Next(c *gin.Context) {
	h.reply(c)(h.service.Next(c.Request.Context(), c.Param("id")))
}

func (h *Handler) Back(c *gin.Context) {
	h.reply(c)(h.service.Back(c.Param("id")))
}

// Watch streams the session's toasts over a websocket.
func (h *Handler) Watch(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.service.Get(id); err != nil {
		h.fail(c, err, nil)
		return
	}
	if h.hub == nil {
		response.Error(c, http.StatusNotImplemented, "WS_DISABLED", "Live updates are not enabled")
		return
	}
	conn, err := notification.Upgrade(c.Writer, c.Request)
	if err != nil {
		return
	}
	h.hub.ServeWS(conn, id)
}

func (h *Handler) GetBooking(c *gin.Context) {
	b, err := h.service.GetBooking(c.Request.Context(), c.Param("reference"))
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) DownloadConfirmation(c *gin.Context) {
	b, err := h.service.GetBooking(c.Request.Context(), c.Param("reference"))
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="culturin-`+b.Reference+`.txt"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(ConfirmationText(b)))
}

func (h *Handler) ConfirmationPage(c *gin.Context) {
	b, err := h.service.GetBooking(c.Request.Context(), c.Param("reference"))
	if errors.Is(err, ErrBookingNotFound) {
		c.Data(http.StatusNotFound, "text/html; charset=utf-8", []byte("<h1>Booking not found</h1>"))
		return
	}
	if err != nil {
		h.fail(c, err, nil)
		return
	}

	page, err := ConfirmationPage(b, h.siteBaseURL)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to render confirmation")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return false
	}
	return true
}

// reply writes the session state, or the mapped error with the state attached.
func (h *Handler) reply(c *gin.Context) func(*SessionResponse, error) {
	return func(resp *SessionResponse, err error) {
		if err != nil {
			h.fail(c, err, resp)
			return
		}
		response.Success(c, http.StatusOK, resp)
	}
}

func (h *Handler) fail(c *gin.Context, err error, resp *SessionResponse) {
	status, code := http.StatusInternalServerError, "INTERNAL_ERROR"
	message := "Something went wrong"

	var guard *GuardError
	var payErr *PaymentError
	switch {
	case errors.As(err, &guard):
		status, code, message = http.StatusUnprocessableEntity, "GUARD_FAILED", guard.Message
	case errors.As(err, &payErr):
		status, code, message = http.StatusPaymentRequired, "PAYMENT_FAILED", "Payment failed"
	case errors.Is(err, ErrSessionNotFound):
		status, code, message = http.StatusNotFound, "SESSION_NOT_FOUND", "Booking session not found"
	case errors.Is(err, ErrItemNotFound):
		status, code, message = http.StatusNotFound, "ITEM_NOT_FOUND", "Experience not found"
	case errors.Is(err, ErrBookingNotFound):
		status, code, message = http.StatusNotFound, "BOOKING_NOT_FOUND", "Booking not found"
	case errors.Is(err, ErrInvalidItem):
		status, code, message = http.StatusUnprocessableEntity, "INVALID_ITEM", "Experience cannot be booked"
	case errors.Is(err, ErrUnknownFlow), errors.Is(err, ErrInvalidDate), errors.Is(err, ErrInvalidTime):
		status, code, message = http.StatusBadRequest, "VALIDATION_ERROR", err.Error()
	case errors.Is(err, ErrCompleted):
		status, code, message = http.StatusConflict, "BOOKING_COMPLETED", "Booking is already confirmed"
	case errors.Is(err, ErrPaymentInFlight):
		status, code, message = http.StatusConflict, "PAYMENT_IN_FLIGHT", "Payment is already in progress"
	case errors.Is(err, ErrPersistence):
		status, code, message = http.StatusServiceUnavailable, "BOOKING_NOT_SAVED", "Booking could not be saved"
	default:
		_ = c.Error(err)
	}

	if resp != nil {
		response.ErrorWithDetails(c, status, code, message, resp)
		return
	}
	response.Error(c, status, code, message)
}
