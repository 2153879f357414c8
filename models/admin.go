package models

import (
	"gorm.io/gorm"
)

// UserWithBookingCount is a row of the admin user table.
type UserWithBookingCount struct {
	User
	BookingCount int64 `json:"bookingCount"`
}

// UserDetail is a user together with every booking they take part in.
type UserDetail struct {
	User             *User     `json:"user"`
	CustomerBookings []Booking `json:"customerBookings"`
	WorkerBookings   []Booking `json:"workerBookings"`
	Services         []Service `json:"services"`
}

// Stats is the dashboard summary.
type Stats struct {
	Users           int64                   `json:"users"`
	UsersByRole     map[string]int64        `json:"usersByRole"`
	Services        int64                   `json:"services"`
	Categories      int64                   `json:"categories"`
	Bookings        int64                   `json:"bookings"`
	BookingsByState map[BookingStatus]int64 `json:"bookingsByStatus"`
}

// ListUsersWithBookingCount counts bookings where the user is either party.
// An empty role lists everybody.
func ListUsersWithBookingCount(tx *gorm.DB, role Role, limit, offset int) ([]UserWithBookingCount, int64, error) {
	base := tx.Model(&User{})
	if role != "" {
		base = base.Where("users.role = ?", role)
	}
	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := tx.Model(&User{}).
		Select("users.*, COUNT(bookings.id) AS booking_count").
		Joins("LEFT JOIN bookings ON bookings.customer_id = users.id OR bookings.worker_id = users.id").
		Group("users.id").
		Order("users.id ASC")
	if role != "" {
		q = q.Where("users.role = ?", role)
	}
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}

	rows := []UserWithBookingCount{}
	if err := q.Scan(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func GetUserDetail(tx *gorm.DB, id uint) (*UserDetail, error) {
	user, err := GetUser(tx, id)
	if err != nil {
		return nil, err
	}
	asCustomer, err := ListBookingsForUser(tx, id, string(RoleCustomer))
	if err != nil {
		return nil, err
	}
	asWorker, err := ListBookingsForUser(tx, id, string(RoleWorker))
	if err != nil {
		return nil, err
	}
	services, err := ListServicesByWorker(tx, id)
	if err != nil {
		return nil, err
	}
	return &UserDetail{
		User:             user,
		CustomerBookings: asCustomer,
		WorkerBookings:   asWorker,
		Services:         services,
	}, nil
}

// ListAllServices is the admin listing, newest first.
func ListAllServices(tx *gorm.DB, limit, offset int) ([]Service, int64, error) {
	var total int64
	if err := tx.Model(&Service{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	q := tx.Preload("Worker").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}
	services := []Service{}
	if err := q.Find(&services).Error; err != nil {
		return nil, 0, err
	}
	return services, total, nil
}

type groupCount struct {
	GroupKey string
	Total    int64
}

func GetStats(tx *gorm.DB) (*Stats, error) {
	stats := &Stats{
		UsersByRole:     map[string]int64{},
		BookingsByState: map[BookingStatus]int64{},
	}
	if err := tx.Model(&User{}).Count(&stats.Users).Error; err != nil {
		return nil, err
	}
	if err := tx.Model(&Service{}).Count(&stats.Services).Error; err != nil {
		return nil, err
	}
	if err := tx.Model(&Category{}).Count(&stats.Categories).Error; err != nil {
		return nil, err
	}
	if err := tx.Model(&Booking{}).Count(&stats.Bookings).Error; err != nil {
		return nil, err
	}

	var roles []groupCount
	if err := tx.Model(&User{}).Select("role AS group_key, COUNT(*) AS total").Group("role").Scan(&roles).Error; err != nil {
		return nil, err
	}
	for _, r := range roles {
		key := r.GroupKey
		if key == "" {
			key = "unset"
		}
		stats.UsersByRole[key] = r.Total
	}

	for status := range bookingTransitions {
		stats.BookingsByState[status] = 0
	}
	var statuses []groupCount
	if err := tx.Model(&Booking{}).Select("status AS group_key, COUNT(*) AS total").Group("status").Scan(&statuses).Error; err != nil {
		return nil, err
	}
	for _, s := range statuses {
		stats.BookingsByState[BookingStatus(s.GroupKey)] = s.Total
	}
	return stats, nil
}
