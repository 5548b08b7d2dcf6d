package trip

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"trip-planner/internal/domain"
	"trip-planner/internal/errors"
	"trip-planner/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockService is a mock implementation of the Service interface
type MockService struct {
	mock.Mock
}

func (m *MockService) Itinerary() (*ItinerarySnapshot, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ItinerarySnapshot), args.Error(1)
}

func (m *MockService) Packing() (*PackingSnapshot, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*PackingSnapshot), args.Error(1)
}

func (m *MockService) Snapshots() (any, any, error) {
	args := m.Called()
	return args.Get(0), args.Get(1), args.Error(2)
}

func (m *MockService) BroadcastAll() {
	m.Called()
}

func (m *MockService) AddDay(date string) (*ItinerarySnapshot, error) {
	args := m.Called(date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ItinerarySnapshot), args.Error(1)
}

func (m *MockService) AddEvent(username string, di int, in EventInput) (*ItinerarySnapshot, error) {
	args := m.Called(username, di, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ItinerarySnapshot), args.Error(1)
}

func (m *MockService) EditEvent(username string, di, ei int, patch EventPatch) (*ItinerarySnapshot, error) {
	args := m.Called(username, di, ei, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ItinerarySnapshot), args.Error(1)
}

func (m *MockService) VoteEvent(username string, di, ei, delta int) error {
	args := m.Called(username, di, ei, delta)
	return args.Error(0)
}

func (m *MockService) DeleteEvent(username string, di, ei int) (*ItinerarySnapshot, error) {
	args := m.Called(username, di, ei)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ItinerarySnapshot), args.Error(1)
}

func (m *MockService) AddPackingItem(username string, in PackingItemInput) error {
	args := m.Called(username, in)
	return args.Error(0)
}

func (m *MockService) ToggleHeart(username string, itemID int) error {
	args := m.Called(username, itemID)
	return args.Error(0)
}

func (m *MockService) DeletePackingItem(username string, itemID int) error {
	args := m.Called(username, itemID)
	return args.Error(0)
}

func setupRouter(handler *Handler, username string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.ErrorHandler())
	router.Use(func(c *gin.Context) {
		c.Set("username", username)
		c.Next()
	})

	router.GET("/api/data", handler.GetItinerary)
	router.POST("/api/day/:di/event", handler.AddEvent)
	router.POST("/api/day/:di/event/:ei/vote", handler.VoteEvent)
	router.POST("/api/day/:di/event/:ei/delete", handler.DeleteEvent)
	router.POST("/api/packing/add", handler.AddPackingItem)
	return router
}

func doJSON(router *gin.Engine, method, path string, payload any) *httptest.ResponseRecorder {
	var body bytes.Buffer
	if payload != nil {
		json.NewEncoder(&body).Encode(payload)
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGetItinerary_Success(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter(handler, "alice")

	mockService.On("Itinerary").Return(&ItinerarySnapshot{
		Days: []domain.Day{{Date: "2026-07-01", Events: []domain.Event{}}},
		Meta: Meta{Participants: 3},
	}, nil)

	w := doJSON(router, "GET", "/api/data", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]any
	json.Unmarshal(w.Body.Bytes(), &response)
	meta := response["_meta"].(map[string]any)
	assert.Equal(t, float64(3), meta["participants"])
	mockService.AssertExpectations(t)
}

func TestAddEvent_Success(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter(handler, "alice")

	input := EventInput{Time: "09:00", Title: "Zoo"}
	mockService.On("AddEvent", "alice", 0, input).
		Return(&ItinerarySnapshot{Days: []domain.Day{}}, nil)

	w := doJSON(router, "POST", "/api/day/0/event", input)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestAddEvent_BadDayIndex(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter(handler, "alice")

	w := doJSON(router, "POST", "/api/day/xyz/event", EventInput{Title: "Zoo"})

	assert.Equal(t, http.StatusNotFound, w.Code)
	mockService.AssertNotCalled(t, "AddEvent")
}

func TestVoteEvent_PassesDelta(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter(handler, "bob")

	mockService.On("VoteEvent", "bob", 1, 2, -1).Return(nil)

	w := doJSON(router, "POST", "/api/day/1/event/2/vote", gin.H{"delta": -1})

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]any
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, true, response["ok"])
	mockService.AssertExpectations(t)
}

func TestDeleteEvent_ForbiddenSurfacesDetails(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter(handler, "bob")

	mockService.On("DeleteEvent", "bob", 0, 0).Return(nil,
		errors.Forbidden("Delete blocked", nil).WithDetails(map[string]any{
			"required_count": 2,
			"downs_count":    1,
		}))

	w := doJSON(router, "POST", "/api/day/0/event/0/delete", nil)

	assert.Equal(t, http.StatusForbidden, w.Code)
	var response map[string]any
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, "forbidden", response["code"])
	details := response["details"].(map[string]any)
	assert.Equal(t, float64(2), details["required_count"])
	assert.Equal(t, float64(1), details["downs_count"])
}

func TestAddPackingItem_MissingTextRejected(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter(handler, "alice")

	w := doJSON(router, "POST", "/api/packing/add", gin.H{"category": "snacks"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "AddPackingItem")
}
