package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/crazyskateface/workbrew-backend/internal/models"
	"github.com/crazyskateface/workbrew-backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPlaceService is a mock implementation of the PlaceManager interface
type MockPlaceService struct {
	mock.Mock
}

func (m *MockPlaceService) Get(ctx context.Context, id string) (*models.Place, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*models.Place), args.Error(1)
}

func (m *MockPlaceService) List(ctx context.Context) ([]models.Place, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Place), args.Error(1)
}

func (m *MockPlaceService) Create(ctx context.Context, place *models.Place) (*models.Place, error) {
	args := m.Called(ctx, place)
	return args.Get(0).(*models.Place), args.Error(1)
}

func (m *MockPlaceService) Update(ctx context.Context, id string, place *models.Place) (*models.Place, error) {
	args := m.Called(ctx, id, place)
	return args.Get(0).(*models.Place), args.Error(1)
}

func (m *MockPlaceService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func newPlaceRouter(svc PlaceManager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewPlaceHandler(svc)
	r := gin.New()
	r.GET("/places", h.List)
	r.POST("/places", h.Create)
	r.GET("/places/:id", h.Get)
	r.PUT("/places/:id", h.Update)
	r.DELETE("/places/:id", h.Delete)
	return r
}

func ritualPlace() *models.Place {
	return &models.Place{
		ID:        "ritual",
		Name:      "Ritual Coffee",
		Location:  &models.Location{Latitude: 37.776, Longitude: -122.417},
		Geohash:   "9q8yykftj",
		Amenities: []string{"wifi", "outlets"},
	}
}

func notFound(id string) error {
	return fmt.Errorf("%w: place %s", service.ErrNotFound, id)
}

func TestPlaceHandler_Get(t *testing.T) {
	tests := []struct {
		name           string
		id             string
		mockPlace      *models.Place
		mockError      error
		expectedStatus int
	}{
		{name: "found", id: "ritual", mockPlace: ritualPlace(), expectedStatus: http.StatusOK},
		{name: "not found", id: "missing", mockError: notFound("missing"), expectedStatus: http.StatusNotFound},
		{name: "store error", id: "ritual", mockError: assert.AnError, expectedStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := new(MockPlaceService)
			mockSvc.On("Get", mock.Anything, tt.id).Return(tt.mockPlace, tt.mockError)

			w := httptest.NewRecorder()
			newPlaceRouter(mockSvc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/places/"+tt.id, nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.mockPlace != nil {
				var got models.Place
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
				assert.Equal(t, *tt.mockPlace, got)
			}
			mockSvc.AssertExpectations(t)
		})
	}
}

func TestPlaceHandler_List(t *testing.T) {
	mockSvc := new(MockPlaceService)
	mockSvc.On("List", mock.Anything).Return([]models.Place{*ritualPlace()}, nil)

	w := httptest.NewRecorder()
	newPlaceRouter(mockSvc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/places", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var got []models.Place
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "ritual", got[0].ID)
}

func TestPlaceHandler_Create(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		mockPlace      *models.Place
		mockError      error
		callsService   bool
		expectedStatus int
	}{
		{
			name:           "created",
			body:           `{"name":"Ritual Coffee","location":{"latitude":37.776,"longitude":-122.417},"amenities":["wifi","outlets"]}`,
			mockPlace:      ritualPlace(),
			callsService:   true,
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "malformed body",
			body:           `{"name":`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid place",
			body:           `{"name":"","location":{"latitude":37.776,"longitude":-122.417}}`,
			mockError:      fmt.Errorf("%w: name cannot be empty", service.ErrInvalidArgument),
			callsService:   true,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := new(MockPlaceService)
			if tt.callsService {
				mockSvc.On("Create", mock.Anything, mock.AnythingOfType("*models.Place")).Return(tt.mockPlace, tt.mockError)
			}

			req := httptest.NewRequest(http.MethodPost, "/places", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			newPlaceRouter(mockSvc).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.callsService {
				mockSvc.AssertExpectations(t)
				sent := mockSvc.Calls[0].Arguments.Get(1).(*models.Place)
				assert.Equal(t, 37.776, sent.Location.Latitude)
			} else {
				mockSvc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestPlaceHandler_Update(t *testing.T) {
	body := `{"name":"Ritual Roasters","location":{"latitude":37.776,"longitude":-122.417}}`

	tests := []struct {
		name           string
		id             string
		mockPlace      *models.Place
		mockError      error
		expectedStatus int
	}{
		{name: "updated", id: "ritual", mockPlace: ritualPlace(), expectedStatus: http.StatusOK},
		{name: "not found", id: "missing", mockError: notFound("missing"), expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := new(MockPlaceService)
			mockSvc.On("Update", mock.Anything, tt.id, mock.AnythingOfType("*models.Place")).Return(tt.mockPlace, tt.mockError)

			req := httptest.NewRequest(http.MethodPut, "/places/"+tt.id, strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			newPlaceRouter(mockSvc).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			mockSvc.AssertExpectations(t)
		})
	}
}

func TestPlaceHandler_Delete(t *testing.T) {
	tests := []struct {
		name           string
		id             string
		mockError      error
		expectedStatus int
	}{
		{name: "deleted", id: "ritual", expectedStatus: http.StatusNoContent},
		{name: "not found", id: "missing", mockError: notFound("missing"), expectedStatus: http.StatusNotFound},
		{name: "store error", id: "ritual", mockError: assert.AnError, expectedStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := new(MockPlaceService)
			mockSvc.On("Delete", mock.Anything, tt.id).Return(tt.mockError)

			w := httptest.NewRecorder()
			newPlaceRouter(mockSvc).ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/places/"+tt.id, nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			mockSvc.AssertExpectations(t)
		})
	}
}
