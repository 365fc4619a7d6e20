// Package models defines the domain records for PropFlow.
package models

import "time"

// AppointmentStatus is the lifecycle state of an appointment.
// Transitions are not restricted: any status may be set on update.
type AppointmentStatus string

// Appointment statuses.
const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusNoShow    AppointmentStatus = "no_show"
)

// AppointmentStatuses lists every valid status, for validation rules.
func AppointmentStatuses() []interface{} {
	return []interface{}{
		string(StatusScheduled),
		string(StatusConfirmed),
		string(StatusCompleted),
		string(StatusCancelled),
		string(StatusNoShow),
	}
}

// Valid reports whether s is a known appointment status.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// Appointment is the central entity: a meeting over a time range,
// optionally linked to a client, a property, and an assigned agent.
// All three links survive deletion of the referenced record (set null).
type Appointment struct {
	ID             int64             `json:"id"`
	Title          string            `json:"title"`
	Description    string            `json:"description,omitempty"`
	StartDate      time.Time         `json:"startDate"`
	EndDate        time.Time         `json:"endDate"`
	Status         AppointmentStatus `json:"status"`
	Notes          string            `json:"notes,omitempty"`
	ClientID       *int64            `json:"clientId"`
	PropertyID     *int64            `json:"propertyId"`
	AssignedUserID *int64            `json:"assignedUserId"`
	Revision       int64             `json:"revision"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// Client is a prospective buyer interested in properties.
type Client struct {
	ID             int64     `json:"id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone,omitempty"`
	Nationality    string    `json:"nationality,omitempty"`
	PassportNumber string    `json:"passport_number,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// FullName returns the client's display name.
func (c Client) FullName() string {
	return c.FirstName + " " + c.LastName
}

// PropertyStatus is the sale state of a property listing.
type PropertyStatus string

// Property statuses.
const (
	PropertyAvailable PropertyStatus = "available"
	PropertyReserved  PropertyStatus = "reserved"
	PropertySold      PropertyStatus = "sold"
)

// PropertyStatuses lists every valid property status, for validation rules.
func PropertyStatuses() []interface{} {
	return []interface{}{
		string(PropertyAvailable),
		string(PropertyReserved),
		string(PropertySold),
	}
}

// Property is a real-estate listing, optionally owned by a client.
type Property struct {
	ID          int64          `json:"id"`
	Title       string         `json:"title"`
	Address     string         `json:"address"`
	City        string         `json:"city"`
	Price       float64        `json:"price"`
	Description string         `json:"description,omitempty"`
	Status      PropertyStatus `json:"status"`
	ClientID    *int64         `json:"clientId"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// User roles.
const (
	RoleAdmin = "admin"
	RoleAgent = "agent"
)

// User is a staff account. PasswordHash is never serialized.
type User struct {
	ID           int64     `json:"id"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// DocumentType classifies an uploaded attachment.
type DocumentType string

// Document types.
const (
	DocPassport     DocumentType = "passport"
	DocVisa         DocumentType = "visa"
	DocContract     DocumentType = "contract"
	DocFinancial    DocumentType = "financial"
	DocPropertyDeed DocumentType = "property_deed"
	DocOther        DocumentType = "other"
)

// Valid reports whether t is a known document type.
func (t DocumentType) Valid() bool {
	switch t {
	case DocPassport, DocVisa, DocContract, DocFinancial, DocPropertyDeed, DocOther:
		return true
	}
	return false
}

// Document is a stored file attached to an appointment and/or a client.
// The record and the underlying file live and die together: deleting the
// owning appointment removes both.
type Document struct {
	ID            int64        `json:"id"`
	Filename      string       `json:"filename"`
	OriginalName  string       `json:"originalName"`
	Path          string       `json:"path"`
	Checksum      string       `json:"checksum,omitempty"`
	Type          DocumentType `json:"type"`
	ClientID      *int64       `json:"clientId"`
	AppointmentID *int64       `json:"appointmentId"`
	UploadedBy    *int64       `json:"uploadedBy"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}
