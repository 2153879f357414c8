package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

type Role string

const (
	RoleUnset    Role = ""
	RoleCustomer Role = "customer"
	RoleWorker   Role = "worker"
)

type LocationLabel string

const (
	LabelHome  LocationLabel = "Home"
	LabelWork  LocationLabel = "Work"
	LabelOther LocationLabel = "Other"
)

// UserLocation is the saved address of a user. Customers use it as the
// default booking address, workers as the origin of their services.
type UserLocation struct {
	Latitude     *float64      `json:"latitude"`
	Longitude    *float64      `json:"longitude"`
	HouseNo      string        `json:"houseNo"`
	Apartment    string        `json:"apartment"`
	Directions   string        `json:"directions"`
	Label        LocationLabel `json:"label"`
	ContactName  string        `json:"contactName"`
	ContactPhone string        `json:"contactPhone"`
}

func (l UserLocation) HasCoordinates() bool {
	return l.GeoAddress().HasCoordinates()
}

// AddressLine renders the street part of the location as "{houseNo}, {apartment}".
func (l UserLocation) AddressLine() string {
	return fmt.Sprintf("%s, %s", l.HouseNo, l.Apartment)
}

// GeoAddress copies the coordinates and synthesized address line.
func (l UserLocation) GeoAddress() GeoAddress {
	g := GeoAddress{Address: l.AddressLine()}
	if l.Latitude != nil {
		g.Latitude = floatPtr(*l.Latitude)
	}
	if l.Longitude != nil {
		g.Longitude = floatPtr(*l.Longitude)
	}
	return g
}

type User struct {
	ID        uint         `json:"id" gorm:"primaryKey"`
	Phone     string       `json:"phone" gorm:"uniqueIndex;not null"`
	Name      string       `json:"name"`
	Role      Role         `json:"role" gorm:"type:varchar(16);index"`
	IsActive  bool         `json:"isActive" gorm:"default:true"`
	Location  UserLocation `json:"location" gorm:"embedded;embeddedPrefix:location_"`
	Rating    float64      `json:"rating"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// GetUser loads a user by ID.
func GetUser(tx *gorm.DB, id uint) (*User, error) {
	var user User
	if err := tx.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("User")
		}
		return nil, err
	}
	return &user, nil
}

func GetUserByPhone(tx *gorm.DB, phone string) (*User, error) {
	var user User
	if err := tx.Where("phone = ?", strings.TrimSpace(phone)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("User")
		}
		return nil, err
	}
	return &user, nil
}

// FindOrCreateUserByPhone returns the user owning phone, creating an empty
// active account on first contact. created reports whether a row was inserted.
func FindOrCreateUserByPhone(tx *gorm.DB, phone string) (user *User, created bool, err error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, false, newError(ErrValidation, "Phone number is required")
	}

	var existing User
	err = tx.Where("phone = ?", phone).First(&existing).Error
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	fresh := User{Phone: phone, IsActive: true}
	if err := tx.Create(&fresh).Error; err != nil {
		// Lost a race with a concurrent first request for the same phone.
		if lookupErr := tx.Where("phone = ?", phone).First(&existing).Error; lookupErr == nil {
			return &existing, false, nil
		}
		return nil, false, err
	}
	return &fresh, true, nil
}

// SetUserLocation replaces the whole location sub-document.
func SetUserLocation(tx *gorm.DB, id uint, loc UserLocation) (*User, error) {
	switch loc.Label {
	case "", LabelHome, LabelWork, LabelOther:
	default:
		return nil, newError(ErrValidation, "Invalid location label %q", loc.Label)
	}
	if (loc.Latitude == nil) != (loc.Longitude == nil) {
		return nil, newError(ErrValidation, "Latitude and longitude must be set together")
	}
	if loc.Latitude != nil && !loc.HasCoordinates() {
		return nil, newError(ErrValidation, "Invalid coordinates")
	}

	user, err := GetUser(tx, id)
	if err != nil {
		return nil, err
	}
	user.Location = loc
	if err := tx.Save(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// SetUserRole records the onboarding choice between customer and worker.
func SetUserRole(tx *gorm.DB, id uint, role Role) (*User, error) {
	if role != RoleCustomer && role != RoleWorker {
		return nil, newError(ErrValidation, "Role must be customer or worker")
	}
	user, err := GetUser(tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Model(user).Update("role", role).Error; err != nil {
		return nil, err
	}
	user.Role = role
	return user, nil
}

// UpdateUserProfile changes the display name.
func UpdateUserProfile(tx *gorm.DB, id uint, name string) (*User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, newError(ErrValidation, "Name is required")
	}
	user, err := GetUser(tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Model(user).Update("name", name).Error; err != nil {
		return nil, err
	}
	user.Name = name
	return user, nil
}

// ToggleUserActive flips the soft-disable flag.
func ToggleUserActive(tx *gorm.DB, id uint) (*User, error) {
	user, err := GetUser(tx, id)
	if err != nil {
		return nil, err
	}
	next := !user.IsActive
	if err := tx.Model(user).Update("is_active", next).Error; err != nil {
		return nil, err
	}
	user.IsActive = next
	return user, nil
}

// DeleteUser hard-deletes the account. Services and bookings that point at
// it are left alone.
func DeleteUser(tx *gorm.DB, id uint) error {
	res := tx.Delete(&User{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound("User")
	}
	return nil
}
