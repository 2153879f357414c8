package models_test

import (
	"testing"

	"github.com/meinhoongagan/servicemarket/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func ptr(f float64) *float64 { return &f }

// newWorker creates a worker with a saved location at lat/lng.
func newWorker(t *testing.T, gdb *gorm.DB, phone, name string, lat, lng float64) *models.User {
	t.Helper()
	u, _, err := models.FindOrCreateUserByPhone(gdb, phone)
	require.NoError(t, err)
	_, err = models.SetUserRole(gdb, u.ID, models.RoleWorker)
	require.NoError(t, err)
	_, err = models.UpdateUserProfile(gdb, u.ID, name)
	require.NoError(t, err)
	u, err = models.SetUserLocation(gdb, u.ID, models.UserLocation{
		Latitude:  ptr(lat),
		Longitude: ptr(lng),
		HouseNo:   "12",
		Apartment: "Green Park",
		Label:     models.LabelWork,
	})
	require.NoError(t, err)
	return u
}

func newCustomer(t *testing.T, gdb *gorm.DB, phone string) *models.User {
	t.Helper()
	u, _, err := models.FindOrCreateUserByPhone(gdb, phone)
	require.NoError(t, err)
	u, err = models.SetUserRole(gdb, u.ID, models.RoleCustomer)
	require.NoError(t, err)
	return u
}
