package models

import (
	"errors"
	"strings"
	"time"

	"github.com/meinhoongagan/servicemarket/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service is a listing offered by a worker.
//
// WorkerName and Location are a snapshot of the worker taken when the
// listing was created (or last refreshed, see SnapshotAt). They do not follow
// later changes to the worker; RefreshServiceSnapshot re-copies them.
type Service struct {
	ID             uint            `json:"id" gorm:"primaryKey"`
	Name           string          `json:"name" gorm:"not null"`
	Category       string          `json:"category" gorm:"index"`
	SubCategories  StringList      `json:"subCategories"`
	Price          decimal.Decimal `json:"price" gorm:"type:decimal(12,2)"`
	Description    string          `json:"description"`
	WorkerID       uint            `json:"workerId" gorm:"index"`
	Worker         *User           `json:"worker" gorm:"foreignKey:WorkerID"`
	WorkerName     string          `json:"workerName"`
	Location       GeoAddress      `json:"location" gorm:"embedded;embeddedPrefix:location_"`
	Images         StringList      `json:"images"`
	Videos         StringList      `json:"videos"`
	CoverageRadius float64         `json:"coverageRadius"`
	SnapshotAt     time.Time       `json:"snapshotAt"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`

	// DistanceKm is filled by location searches only.
	DistanceKm *float64 `json:"distanceKm,omitempty" gorm:"-"`
}

// ServiceInput is the whitelisted payload for a new listing.
type ServiceInput struct {
	Name           string
	Category       string
	SubCategories  []string
	Price          decimal.Decimal
	Description    string
	Images         []string
	Videos         []string
	CoverageRadius float64
}

// ServiceUpdate lists the fields a worker may change; nil means unchanged.
type ServiceUpdate struct {
	Name           *string
	Category       *string
	SubCategories  *[]string
	Price          *decimal.Decimal
	Description    *string
	Images         *[]string
	Videos         *[]string
	CoverageRadius *float64
}

// CreateService stamps a new listing with the worker's current name and
// location. The worker must exist and must have saved coordinates.
func CreateService(tx *gorm.DB, in ServiceInput, workerID uint, defaultRadiusKm float64) (*Service, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, newError(ErrValidation, "Service name is required")
	}
	if in.Price.IsNegative() {
		return nil, newError(ErrValidation, "Price cannot be negative")
	}
	if in.CoverageRadius < 0 {
		return nil, newError(ErrValidation, "Coverage radius cannot be negative")
	}

	worker, err := GetUser(tx, workerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, notFound("Worker")
		}
		return nil, err
	}
	if !worker.Location.HasCoordinates() {
		return nil, newError(ErrValidation, "Worker location is not set")
	}

	radius := in.CoverageRadius
	if radius == 0 {
		radius = defaultRadiusKm
	}

	service := Service{
		Name:           strings.TrimSpace(in.Name),
		Category:       strings.TrimSpace(in.Category),
		SubCategories:  CleanList(in.SubCategories),
		Price:          in.Price,
		Description:    in.Description,
		WorkerID:       worker.ID,
		WorkerName:     worker.Name,
		Location:       worker.Location.GeoAddress(),
		Images:         CleanList(in.Images),
		Videos:         CleanList(in.Videos),
		CoverageRadius: radius,
		SnapshotAt:     time.Now().UTC(),
	}
	if err := tx.Create(&service).Error; err != nil {
		return nil, err
	}
	service.Worker = worker
	return &service, nil
}

// GetService loads a listing with its worker.
func GetService(tx *gorm.DB, id uint) (*Service, error) {
	var service Service
	if err := tx.Preload("Worker").First(&service, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("Service")
		}
		return nil, err
	}
	return &service, nil
}

// SearchServices returns every listing in storage order. When both lat and
// lng are given, only listings whose coverage circle contains the point are
// kept, and listings without a usable location are dropped.
func SearchServices(tx *gorm.DB, lat, lng *float64) ([]Service, error) {
	services := []Service{}
	if err := tx.Preload("Worker").Order("id ASC").Find(&services).Error; err != nil {
		return nil, err
	}
	if lat == nil || lng == nil {
		return services, nil
	}
	return FilterByCoverage(services, *lat, *lng), nil
}

// FilterByCoverage keeps the services that reach the point (lat, lng).
func FilterByCoverage(services []Service, lat, lng float64) []Service {
	matched := make([]Service, 0, len(services))
	if !utils.ValidCoordinates(lat, lng) {
		return matched
	}
	for _, s := range services {
		if !s.Location.HasCoordinates() {
			continue
		}
		d := utils.DistanceKm(lat, lng, *s.Location.Latitude, *s.Location.Longitude)
		if d <= s.CoverageRadius {
			s.DistanceKm = &d
			matched = append(matched, s)
		}
	}
	return matched
}

func ListServicesByWorker(tx *gorm.DB, workerID uint) ([]Service, error) {
	services := []Service{}
	err := tx.Preload("Worker").Where("worker_id = ?", workerID).Order("id ASC").Find(&services).Error
	return services, err
}

// UpdateService applies the non-nil fields of in.
func UpdateService(tx *gorm.DB, id uint, in ServiceUpdate) (*Service, error) {
	service, err := GetService(tx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, newError(ErrValidation, "Service name is required")
		}
		updates["name"] = name
	}
	if in.Category != nil {
		updates["category"] = strings.TrimSpace(*in.Category)
	}
	if in.SubCategories != nil {
		updates["sub_categories"] = CleanList(*in.SubCategories)
	}
	if in.Price != nil {
		if in.Price.IsNegative() {
			return nil, newError(ErrValidation, "Price cannot be negative")
		}
		updates["price"] = *in.Price
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.Images != nil {
		updates["images"] = CleanList(*in.Images)
	}
	if in.Videos != nil {
		updates["videos"] = CleanList(*in.Videos)
	}
	if in.CoverageRadius != nil {
		if *in.CoverageRadius < 0 {
			return nil, newError(ErrValidation, "Coverage radius cannot be negative")
		}
		updates["coverage_radius"] = *in.CoverageRadius
	}
	if len(updates) == 0 {
		return service, nil
	}

	if err := tx.Model(&Service{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, err
	}
	return GetService(tx, id)
}

// RefreshServiceSnapshot re-copies the worker's current name and location
// onto the listing.
func RefreshServiceSnapshot(tx *gorm.DB, id uint) (*Service, error) {
	service, err := GetService(tx, id)
	if err != nil {
		return nil, err
	}
	if service.Worker == nil {
		return nil, notFound("Worker")
	}
	if !service.Worker.Location.HasCoordinates() {
		return nil, newError(ErrValidation, "Worker location is not set")
	}

	loc := service.Worker.Location.GeoAddress()
	err = tx.Model(&Service{}).Where("id = ?", id).Updates(map[string]interface{}{
		"worker_name":        service.Worker.Name,
		"location_latitude":  loc.Latitude,
		"location_longitude": loc.Longitude,
		"location_address":   loc.Address,
		"snapshot_at":        time.Now().UTC(),
	}).Error
	if err != nil {
		return nil, err
	}
	return GetService(tx, id)
}

// DeleteService removes a listing. Bookings that reference it keep the ID.
func DeleteService(tx *gorm.DB, id uint) error {
	res := tx.Delete(&Service{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound("Service")
	}
	return nil
}
