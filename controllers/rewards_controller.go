package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Rajvansh-1/starbucks-rewards-api/services"
)

// GetMyRewards handles GET /api/v1/rewards/me - returns the authenticated
// customer's star balance, tier and lifetime spend. The view is served
// read-through from the cache; every order or ledger mutation invalidates it.
func GetMyRewards(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	status, err := rewardsStatusFor(user.ID)
	if err != nil {
		respondOrderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    status,
	})
}

// GetCustomerRewards handles GET /api/v1/rewards/:customerId - staff/admin
// view of any customer's rewards status.
func GetCustomerRewards(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if !user.IsStaff() {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "You do not have permission to view this rewards account",
			},
		})
		return
	}

	customerID, err := strconv.ParseUint(c.Param("customerId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid customer id",
			},
		})
		return
	}

	status, rewardsErr := rewardsStatusFor(uint(customerID))
	if rewardsErr != nil {
		respondOrderError(c, rewardsErr)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    status,
	})
}

// rewardsStatusFor reads the rewards view through the cache. Misses fall
// through to the authoritative store and populate the cache.
func rewardsStatusFor(customerID uint) (*services.RewardsStatus, error) {
	cache := services.GetCacheService()
	key := services.RewardsStatusKey(customerID)

	if cache != nil {
		if cached, hit := cache.Get(key); hit {
			if status, ok := cached.(*services.RewardsStatus); ok {
				return status, nil
			}
		}
	}

	status, err := services.GetRewardsService().Status(customerID)
	if err != nil {
		return nil, err
	}

	if cache != nil {
		cache.Set(key, status)
	}

	return status, nil
}
