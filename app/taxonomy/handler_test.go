package taxonomy

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// --- Mock Repository ---

type MockTagRepo struct {
	Themes     []string
	Categories []string
	ListErr    error
}

func (m *MockTagRepo) GetThemes(_ context.Context) ([]string, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return m.Themes, nil
}

func (m *MockTagRepo) GetCategories(_ context.Context) ([]string, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return m.Categories, nil
}

// --- Tests ---

func TestHandleGetTags(t *testing.T) {
	testCases := []struct {
		name               string
		path               string
		mockRepoSetup      func() *MockTagRepo
		expectedStatusCode int
		checkResponse      func(t *testing.T, rec *httptest.ResponseRecorder)
	}{
		{
			name: "Themes",
			path: "/themes",
			mockRepoSetup: func() *MockTagRepo {
				return &MockTagRepo{Themes: []string{"Modern", "Rustic"}, Categories: []string{"Chairs"}}
			},
			expectedStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp []TagResponse
				err := json.NewDecoder(rec.Body).Decode(&resp)
				assert.NoError(t, err)
				assert.Equal(t, []TagResponse{{Name: "Modern"}, {Name: "Rustic"}}, resp)
			},
		},
		{
			name: "Categories",
			path: "/categories",
			mockRepoSetup: func() *MockTagRepo {
				return &MockTagRepo{Themes: []string{"Modern"}, Categories: []string{"Chairs", "Sofas"}}
			},
			expectedStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp []TagResponse
				err := json.NewDecoder(rec.Body).Decode(&resp)
				assert.NoError(t, err)
				assert.Equal(t, []TagResponse{{Name: "Chairs"}, {Name: "Sofas"}}, resp)
			},
		},
		{
			name: "Empty list encodes as array",
			path: "/themes",
			mockRepoSetup: func() *MockTagRepo {
				return &MockTagRepo{}
			},
			expectedStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.JSONEq(t, `[]`, rec.Body.String())
			},
		},
		{
			name: "Repository error",
			path: "/categories",
			mockRepoSetup: func() *MockTagRepo {
				return &MockTagRepo{ListErr: errors.New("db down")}
			},
			expectedStatusCode: http.StatusInternalServerError,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var errResp map[string]string
				err := json.NewDecoder(rec.Body).Decode(&errResp)
				assert.NoError(t, err)
				assert.Equal(t, "failed to fetch categories", errResp["error"])
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			core, logs := observer.New(zap.ErrorLevel)
			handler := NewTaxonomyHandler(tc.mockRepoSetup(), zap.New(core))
			req := httptest.NewRequest("GET", tc.path, nil)
			rec := httptest.NewRecorder()

			// Act
			if tc.path == "/themes" {
				handler.HandleGetThemes(rec, req)
			} else {
				handler.HandleGetCategories(rec, req)
			}

			// Assert
			assert.Equal(t, tc.expectedStatusCode, rec.Code)
			if tc.expectedStatusCode == http.StatusInternalServerError {
				assert.Equal(t, 1, logs.Len(), "store error is logged")
			} else {
				assert.Zero(t, logs.Len())
			}
			if tc.checkResponse != nil {
				tc.checkResponse(t, rec)
			}
		})
	}
}
