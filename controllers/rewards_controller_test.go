package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rajvansh-1/starbucks-rewards-api/models"
	"github.com/Rajvansh-1/starbucks-rewards-api/services"
)

func TestGetMyRewards(t *testing.T) {
	db := setupTestDB(t)
	initTestServices(testConfig())

	customer := models.User{
		Auth0ID:       "auth0|rewards",
		Name:          "Rewards Customer",
		Email:         "rewards@example.com",
		Role:          models.RoleCustomer,
		Stars:         42,
		Tier:          models.TierGold,
		LifetimeSpend: 512.75,
	}
	require.NoError(t, db.Create(&customer).Error)

	router := setupTestRouter()
	router.GET("/rewards/me", mockAuthMiddleware(customer.Auth0ID, customer.Role, "token"), GetMyRewards)

	req := httptest.NewRequest(http.MethodGet, "/rewards/me", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code, "Response body: %s", w.Body.String())

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, response["success"].(bool))
	data := response["data"].(map[string]interface{})
	assert.Equal(t, float64(42), data["stars"])
	assert.Equal(t, models.TierGold, data["tier"])
	assert.Equal(t, 512.75, data["lifetime_spend"])
}

func TestGetMyRewards_ServedFromCacheUntilInvalidated(t *testing.T) {
	db := setupTestDB(t)
	initTestServices(testConfig())

	customer := models.User{
		Auth0ID: "auth0|cached",
		Name:    "Cached Customer",
		Email:   "cached@example.com",
		Role:    models.RoleCustomer,
		Stars:   10,
		Tier:    models.TierGreen,
	}
	require.NoError(t, db.Create(&customer).Error)

	router := setupTestRouter()
	router.GET("/rewards/me", mockAuthMiddleware(customer.Auth0ID, customer.Role, "token"), GetMyRewards)

	get := func() map[string]interface{} {
		req := httptest.NewRequest(http.MethodGet, "/rewards/me", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		return response["data"].(map[string]interface{})
	}

	// First read populates the cache
	assert.Equal(t, float64(10), get()["stars"])

	// A direct write the coordinator never saw is invisible until invalidation
	db.Model(&models.User{}).Where("id = ?", customer.ID).UpdateColumn("stars", 99)
	assert.Equal(t, float64(10), get()["stars"])

	services.GetCacheService().InvalidateCustomer(customer.ID)
	assert.Equal(t, float64(99), get()["stars"])
}

func TestGetCustomerRewards(t *testing.T) {
	db := setupTestDB(t)
	initTestServices(testConfig())

	customer := models.User{
		Auth0ID: "auth0|customer-acct",
		Name:    "Account Customer",
		Email:   "acct@example.com",
		Role:    models.RoleCustomer,
		Stars:   7,
		Tier:    models.TierGreen,
	}
	require.NoError(t, db.Create(&customer).Error)

	staff := models.User{
		Auth0ID: "auth0|staff-rewards",
		Name:    "Rewards Staff",
		Email:   "staffrewards@example.com",
		Role:    models.RoleStaff,
		Tier:    models.TierGreen,
	}
	require.NoError(t, db.Create(&staff).Error)

	tests := []struct {
		name           string
		user           *models.User
		customerID     string
		expectedStatus int
		expectedCode   string
	}{
		{"Staff reads a customer's rewards", &staff, fmt.Sprint(customer.ID), http.StatusOK, ""},
		{"Customer may not read others' rewards", &customer, fmt.Sprint(staff.ID), http.StatusForbidden, "FORBIDDEN"},
		{"Unknown customer", &staff, "99999", http.StatusNotFound, "CUSTOMER_NOT_FOUND"},
		{"Malformed customer id", &staff, "abc", http.StatusBadRequest, "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupTestRouter()
			router.GET("/rewards/:customerId", mockAuthMiddleware(tt.user.Auth0ID, tt.user.Role, "token"), GetCustomerRewards)

			req := httptest.NewRequest(http.MethodGet, "/rewards/"+tt.customerID, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code, "Response body: %s", w.Body.String())

			var response map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

			if tt.expectedStatus == http.StatusOK {
				data := response["data"].(map[string]interface{})
				assert.Equal(t, float64(7), data["stars"])
			} else {
				errorData := response["error"].(map[string]interface{})
				assert.Equal(t, tt.expectedCode, errorData["code"])
			}
		})
	}
}
