package testutil

import (
	"time"

	"creditbot/models"
)

// StringPtr returns a pointer to s
func StringPtr(s string) *string {
	return &s
}

// Int64Ptr returns a pointer to v
func Int64Ptr(v int64) *int64 {
	return &v
}

// IntPtr returns a pointer to v
func IntPtr(v int) *int {
	return &v
}

// CreateTestUser creates a test user with default values
func CreateTestUser(userID int64, username string) *models.User {
	now := time.Now()
	return &models.User{
		UserID:     userID,
		Username:   StringPtr(username),
		Credits:    5,
		JoinedAt:   now,
		LastActive: now,
	}
}

// CreateTestCode creates an active code without expiry
func CreateTestCode(code string, amount int64, maxUses int) *models.RedeemCode {
	return &models.RedeemCode{
		Code:     code,
		Amount:   amount,
		MaxUses:  maxUses,
		IsActive: true,
	}
}

// CreateTestCodeWithExpiry creates an active code created at the given instant
func CreateTestCodeWithExpiry(code string, amount int64, maxUses int, expiryMinutes int, createdAt time.Time) *models.RedeemCode {
	rc := CreateTestCode(code, amount, maxUses)
	rc.ExpiryMinutes = IntPtr(expiryMinutes)
	rc.CreatedAt = &createdAt
	return rc
}
