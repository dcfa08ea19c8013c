package home

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/oakhaus/showroom/models"
)

type MockProducts struct {
	Products  []models.Product
	Err       error
	lastLimit int
}

func (m *MockProducts) GetLatest(_ context.Context, limit int) ([]models.Product, error) {
	m.lastLimit = limit
	return m.Products, m.Err
}

type MockProjects struct {
	Projects    []models.Project
	Err         error
	lastFilters models.ProjectFilters
}

func (m *MockProjects) List(_ context.Context, filters models.ProjectFilters) ([]models.Project, error) {
	m.lastFilters = filters
	return m.Projects, m.Err
}

func TestHandleGet(t *testing.T) {
	testCases := []struct {
		name               string
		products           *MockProducts
		projects           *MockProjects
		expectedStatusCode int
		checkResponse      func(t *testing.T, rec *httptest.ResponseRecorder)
	}{
		{
			name:               "Latest products and ongoing projects",
			products:           &MockProducts{Products: []models.Product{{ID: 7, Code: "ARM-01", IsMainVariant: true}}},
			projects:           &MockProjects{Projects: []models.Project{{ID: 2, Title: "Hotel lobby", Status: models.ProjectOngoing}}},
			expectedStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp Response
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
				require.Len(t, resp.Products, 1)
				assert.Equal(t, "ARM-01", resp.Products[0].Code)
				require.Len(t, resp.Projects, 1)
				assert.Equal(t, "Hotel lobby", resp.Projects[0].Title)
			},
		},
		{
			name:               "Empty store renders empty lists",
			products:           &MockProducts{},
			projects:           &MockProjects{},
			expectedStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.JSONEq(t, `{"products":[],"projects":[]}`, rec.Body.String())
			},
		},
		{
			name:               "Product store error",
			products:           &MockProducts{Err: errors.New("db down")},
			projects:           &MockProjects{},
			expectedStatusCode: http.StatusInternalServerError,
		},
		{
			name:               "Project store error",
			products:           &MockProducts{},
			projects:           &MockProjects{Err: errors.New("db down")},
			expectedStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewHomeHandler(tc.products, tc.projects, zap.NewNop())
			rec := httptest.NewRecorder()

			handler.HandleGet(rec, httptest.NewRequest(http.MethodGet, "/home", nil))

			assert.Equal(t, tc.expectedStatusCode, rec.Code)
			assert.Equal(t, latestProducts, tc.products.lastLimit)
			if tc.checkResponse != nil {
				tc.checkResponse(t, rec)
			}
			if tc.expectedStatusCode == http.StatusOK {
				assert.Equal(t, models.ProjectOngoing, tc.projects.lastFilters.Status)
			}
		})
	}
}
