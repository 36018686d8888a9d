package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"radisnap/services"
	"radisnap/store"
	"radisnap/types"
)

// BookingHandler handles programme booking endpoints
type BookingHandler struct {
	bookings store.BookingStore
	quota    *services.QuotaGate
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(bookings store.BookingStore, quota *services.QuotaGate) *BookingHandler {
	return &BookingHandler{
		bookings: bookings,
		quota:    quota,
	}
}

// ListBookings returns the bookings in a given status, most recent first
func (h *BookingHandler) ListBookings(c *gin.Context) {
	var status types.BookingStatus
	switch c.DefaultQuery("status", "reserved") {
	case "reserved":
		status = types.StatusReserved
	case "downloaded":
		status = types.StatusDownloaded
	case "cancelled":
		status = types.StatusCancelled
	case "error":
		status = types.StatusError
	case "downloading":
		status = types.StatusDownloading
	case "unset":
		status = types.StatusUnset
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "unknown status filter",
		})
		return
	}

	ids, err := h.bookings.GetAllByStatus(c.Request.Context(), status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to list bookings",
			"details": err.Error(),
		})
		return
	}

	records := make([]*types.BookingRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := h.bookings.Get(c.Request.Context(), id)
		if err != nil {
			log.Printf("Skipping booking %s: %v", id, err)
			continue
		}
		records = append(records, rec)
	}

	c.JSON(http.StatusOK, gin.H{
		"bookings": records,
		"total":    len(records),
	})
}

// GetBooking returns a single booking by ID
func (h *BookingHandler) GetBooking(c *gin.Context) {
	rec, err := h.bookings.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"booking": rec})
}

// CreateBooking stores a new booking in the UNSET state
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var rec types.BookingRecord
	if err := c.ShouldBindJSON(&rec); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid booking format",
			"details": err.Error(),
		})
		return
	}

	if !rec.Complete() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "booking is missing required fields",
		})
		return
	}

	rec.Status = types.StatusUnset
	id, err := h.bookings.Store(c.Request.Context(), &rec)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to store booking",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Booking stored successfully",
		"id":      id,
	})
}

// DeleteBooking removes a booking
func (h *BookingHandler) DeleteBooking(c *gin.Context) {
	if err := h.bookings.Remove(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Booking removed successfully"})
}

// Reserve marks a booking RESERVED if the coupon balance admits one more
func (h *BookingHandler) Reserve(c *gin.Context) {
	ctx := c.Request.Context()

	rec, err := h.bookings.Get(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if !rec.Status.IsReservable() {
		c.JSON(http.StatusConflict, gin.H{
			"error":  "booking cannot be reserved in its current state",
			"status": rec.Status.String(),
		})
		return
	}

	reserved, err := h.bookings.GetAllByStatus(ctx, types.StatusReserved)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ok, err := h.quota.CanReserve(ctx, len(reserved))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{
			"error": "not enough download coupons",
		})
		return
	}

	if _, err := h.bookings.UpdateStatus(ctx, rec.ID, types.StatusReserved); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Booking reserved successfully",
		"id":      rec.ID,
	})
}

// Unreserve returns a RESERVED booking to the UNSET state
func (h *BookingHandler) Unreserve(c *gin.Context) {
	ctx := c.Request.Context()

	rec, err := h.bookings.Get(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if rec.Status != types.StatusReserved {
		c.JSON(http.StatusConflict, gin.H{
			"error":  "booking is not reserved",
			"status": rec.Status.String(),
		})
		return
	}

	if _, err := h.bookings.UpdateStatus(ctx, rec.ID, types.StatusUnset); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Reservation released",
		"id":      rec.ID,
	})
}

// GetCoupons returns the current coupon balance
func (h *BookingHandler) GetCoupons(c *gin.Context) {
	balance, err := h.quota.Balance(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"balance": balance})
}

// GrantDailyCoupons performs the once-per-day coupon top-up
func (h *BookingHandler) GrantDailyCoupons(c *gin.Context) {
	ctx := c.Request.Context()

	if err := h.quota.GrantDaily(ctx, time.Now()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	balance, err := h.quota.Balance(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Daily coupons granted",
		"balance": balance,
	})
}
