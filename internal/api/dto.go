package api

import (
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/meletis/propflow/internal/apperr"
	"github.com/meletis/propflow/internal/models"
)

var phonePattern = regexp.MustCompile(`^[+]?[\d\s\-()]+$`)

// dateLayouts are the accepted timestamp formats, tried in order.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// parseDate parses a timestamp in any accepted layout. Layouts without
// a zone are taken as local time.
func parseDate(field, raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, apperr.Invalid(field, "is required")
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperr.Invalid(field, "must be a valid timestamp")
}

// AppointmentRequest is the request body for creating or updating an
// appointment. Dates arrive as strings so malformed input fails with a
// field error instead of a JSON decode error.
type AppointmentRequest struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	StartDate      string `json:"startDate"`
	EndDate        string `json:"endDate"`
	Status         string `json:"status"`
	Notes          string `json:"notes"`
	ClientID       *int64 `json:"clientId"`
	PropertyID     *int64 `json:"propertyId"`
	AssignedUserID *int64 `json:"assignedUserId"`
}

// Validate checks field-level constraints.
func (r AppointmentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(3, 100)),
		validation.Field(&r.Description, validation.Length(0, 500)),
		validation.Field(&r.StartDate, validation.Required),
		validation.Field(&r.EndDate, validation.Required),
		validation.Field(&r.Status, validation.In(models.AppointmentStatuses()...)),
		validation.Field(&r.Notes, validation.Length(0, 1000)),
	)
}

// ToModel validates and converts the request into a domain appointment.
func (r AppointmentRequest) ToModel() (*models.Appointment, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	start, err := parseDate("startDate", r.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate("endDate", r.EndDate)
	if err != nil {
		return nil, err
	}
	return &models.Appointment{
		Title:          r.Title,
		Description:    r.Description,
		StartDate:      start,
		EndDate:        end,
		Status:         models.AppointmentStatus(r.Status),
		Notes:          r.Notes,
		ClientID:       r.ClientID,
		PropertyID:     r.PropertyID,
		AssignedUserID: r.AssignedUserID,
	}, nil
}

// ClientRequest is the request body for creating or updating a client.
type ClientRequest struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Nationality    string `json:"nationality"`
	PassportNumber string `json:"passport_number"`
}

// Validate checks field-level constraints.
func (r ClientRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Required, validation.Length(2, 100)),
		validation.Field(&r.LastName, validation.Required, validation.Length(2, 100)),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Phone, validation.Match(phonePattern)),
		validation.Field(&r.Nationality, validation.Length(0, 100)),
		validation.Field(&r.PassportNumber, validation.Length(3, 50)),
	)
}

// ToModel validates and converts the request into a domain client.
func (r ClientRequest) ToModel() (*models.Client, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &models.Client{
		FirstName:      r.FirstName,
		LastName:       r.LastName,
		Email:          r.Email,
		Phone:          r.Phone,
		Nationality:    r.Nationality,
		PassportNumber: r.PassportNumber,
	}, nil
}

// PropertyRequest is the request body for creating or updating a
// property listing.
type PropertyRequest struct {
	Title       string  `json:"title"`
	Address     string  `json:"address"`
	City        string  `json:"city"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Status      string  `json:"status"`
	ClientID    *int64  `json:"clientId"`
}

// Validate checks field-level constraints.
func (r PropertyRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(3, 200)),
		validation.Field(&r.Address, validation.Required, validation.Length(1, 500)),
		validation.Field(&r.City, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Price, validation.Min(0.0)),
		validation.Field(&r.Status, validation.In(models.PropertyStatuses()...)),
		validation.Field(&r.Description, validation.Length(0, 2000)),
	)
}

// ToModel validates and converts the request into a domain property.
// A missing status defaults to available.
func (r PropertyRequest) ToModel() (*models.Property, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	status := models.PropertyStatus(r.Status)
	if status == "" {
		status = models.PropertyAvailable
	}
	return &models.Property{
		Title:       r.Title,
		Address:     r.Address,
		City:        r.City,
		Price:       r.Price,
		Description: r.Description,
		Status:      status,
		ClientID:    r.ClientID,
	}, nil
}

// UserRequest is the request body for creating or updating a staff
// account. Password is required on create and optional on update,
// where an empty value keeps the current hash.
type UserRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	IsActive *bool  `json:"is_active"`
}

// Validate checks field-level constraints. requirePassword is true on
// create.
func (r UserRequest) Validate(requirePassword bool) error {
	passwordRules := []validation.Rule{validation.Length(8, 128)}
	if requirePassword {
		passwordRules = append([]validation.Rule{validation.Required}, passwordRules...)
	}
	return validation.ValidateStruct(&r,
		validation.Field(&r.FullName, validation.Required, validation.Length(2, 200)),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, passwordRules...),
		validation.Field(&r.Role, validation.Required,
			validation.In(models.RoleAdmin, models.RoleAgent)),
	)
}

// LoginRequest is the request body for POST /api/users/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks field-level constraints.
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}
