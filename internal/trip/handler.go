package trip

import (
	"net/http"
	"strconv"

	"trip-planner/internal/errors"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for the shared trip document
type Handler struct {
	service Service
}

// NewHandler creates a new trip handler
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

type AddDayRequest struct {
	Date string `json:"date" binding:"required"`
}

type VoteRequest struct {
	Delta int `json:"delta"`
}

type AddPackingRequest struct {
	Category string `json:"category"`
	Text     string `json:"text" binding:"required"`
	Qty      int    `json:"qty"`
}

// GetItinerary returns the itinerary snapshot.
func (h *Handler) GetItinerary(c *gin.Context) {
	snap, err := h.service.Itinerary()
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// GetPacking returns the packing snapshot.
func (h *Handler) GetPacking(c *gin.Context) {
	snap, err := h.service.Packing()
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// AddDay appends an itinerary day. Admin only (enforced by route).
func (h *Handler) AddDay(c *gin.Context) {
	var form AddDayRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	snap, err := h.service.AddDay(form.Date)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// AddEvent creates an event inside a day.
func (h *Handler) AddEvent(c *gin.Context) {
	di, ok := indexParam(c, "di")
	if !ok {
		return
	}

	var form EventInput
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	snap, err := h.service.AddEvent(principal(c), di, form)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// EditEvent overwrites the provided fields of an event.
func (h *Handler) EditEvent(c *gin.Context) {
	di, ok := indexParam(c, "di")
	if !ok {
		return
	}
	ei, ok := indexParam(c, "ei")
	if !ok {
		return
	}

	var patch EventPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	snap, err := h.service.EditEvent(principal(c), di, ei, patch)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// VoteEvent casts, flips or retracts the caller's vote.
func (h *Handler) VoteEvent(c *gin.Context) {
	di, ok := indexParam(c, "di")
	if !ok {
		return
	}
	ei, ok := indexParam(c, "ei")
	if !ok {
		return
	}

	form := VoteRequest{Delta: 1}
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	if err := h.service.VoteEvent(principal(c), di, ei, form.Delta); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// DeleteEvent removes an event when the caller holds delete rights.
func (h *Handler) DeleteEvent(c *gin.Context) {
	di, ok := indexParam(c, "di")
	if !ok {
		return
	}
	ei, ok := indexParam(c, "ei")
	if !ok {
		return
	}

	snap, err := h.service.DeleteEvent(principal(c), di, ei)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// AddPackingItem appends a packing list entry.
func (h *Handler) AddPackingItem(c *gin.Context) {
	var form AddPackingRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	err := h.service.AddPackingItem(principal(c), PackingItemInput{
		Category: form.Category,
		Text:     form.Text,
		Qty:      form.Qty,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ToggleHeart toggles the caller's heart on an item.
func (h *Handler) ToggleHeart(c *gin.Context) {
	id, ok := indexParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.ToggleHeart(principal(c), id); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// DeletePackingItem removes an item for its owner or an admin.
func (h *Handler) DeletePackingItem(c *gin.Context) {
	id, ok := indexParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeletePackingItem(principal(c), id); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func principal(c *gin.Context) string {
	return c.GetString("username")
}

func indexParam(c *gin.Context, name string) (int, bool) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil {
		c.Error(errors.NotFound("Resource not found", err))
		c.Abort()
		return 0, false
	}
	return v, true
}
