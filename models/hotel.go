// ABOUTME: Typed hotel entities stored in the remote collections
// ABOUTME: Converts rooms, reservations, guests, staff, services, payments, and tasks to and from Records
package models

import (
	"encoding/json"
	"strconv"

	"github.com/shopspring/decimal"
)

// Room statuses.
const (
	RoomAvailable   = "Available"
	RoomOccupied    = "Occupied"
	RoomMaintenance = "Maintenance"
)

// Reservation statuses.
const (
	ReservationConfirmed  = "Confirmed"
	ReservationPending    = "Pending"
	ReservationCheckedIn  = "Checked In"
	ReservationCheckedOut = "Checked Out"
	ReservationCancelled  = "Cancelled"
)

// Payment statuses and methods.
const (
	PaymentCompleted = "Completed"
	PaymentPending   = "Pending"
	PaymentFailed    = "Failed"
	PaymentRefunded  = "Refunded"

	MethodCreditCard    = "Credit Card"
	MethodDebitCard     = "Debit Card"
	MethodCash          = "Cash"
	MethodBankTransfer  = "Bank Transfer"
	MethodDigitalWallet = "Digital Wallet"
)

// Work statuses shared by housekeeping tasks and maintenance requests.
const (
	WorkPending    = "Pending"
	WorkInProgress = "In Progress"
	WorkCompleted  = "Completed"
	WorkCancelled  = "Cancelled"
)

// Maintenance priorities.
const (
	PriorityLow      = "Low"
	PriorityMedium   = "Medium"
	PriorityHigh     = "High"
	PriorityCritical = "Critical"
)

// Room is an entry of the rooms catalog.
type Room struct {
	ID           string
	Name         string
	Price        decimal.Decimal
	Image        string
	Description  string
	RoomType     string
	MaxOccupancy int
	Status       string
}

func (r Room) ToRecord() Record {
	rec := NewRecord(r.ID)
	rec.Set("itemName", r.Name)
	rec.Set("itemPrice", Money(r.Price))
	rec.Set("itemImage", r.Image)
	rec.Set("itemDescription", r.Description)
	rec.Set("roomType", r.RoomType)
	rec.Set("maxOccupancy", Int(r.MaxOccupancy))
	rec.Set("roomStatus", r.Status)
	return rec
}

func RoomFromRecord(rec Record) Room {
	return Room{
		ID:           rec.ID,
		Name:         rec.String("itemName"),
		Price:        DecimalField(rec, "itemPrice"),
		Image:        rec.String("itemImage"),
		Description:  rec.String("itemDescription"),
		RoomType:     rec.String("roomType"),
		MaxOccupancy: IntField(rec, "maxOccupancy"),
		Status:       rec.String("roomStatus"),
	}
}

// Reservation books a guest into a room for a date range.
type Reservation struct {
	ID                string
	ReservationNumber string
	GuestName         string
	RoomNumber        string
	CheckInDate       string
	CheckOutDate      string
	Status            string
}

func (r Reservation) ToRecord() Record {
	rec := NewRecord(r.ID)
	rec.Set("reservationNumber", r.ReservationNumber)
	rec.Set("guestName", r.GuestName)
	rec.Set("roomNumber", r.RoomNumber)
	rec.Set("checkInDate", r.CheckInDate)
	rec.Set("checkOutDate", r.CheckOutDate)
	rec.Set("status", r.Status)
	return rec
}

func ReservationFromRecord(rec Record) Reservation {
	return Reservation{
		ID:                rec.ID,
		ReservationNumber: rec.String("reservationNumber"),
		GuestName:         rec.String("guestName"),
		RoomNumber:        rec.String("roomNumber"),
		CheckInDate:       rec.String("checkInDate"),
		CheckOutDate:      rec.String("checkOutDate"),
		Status:            rec.String("status"),
	}
}

// Guest is a person staying at the hotel.
type Guest struct {
	ID                   string
	FullName             string
	Email                string
	PhoneNumber          string
	DateOfBirth          string
	Address              string
	IdentificationNumber string
	SpecialRequests      string
}

func (g Guest) ToRecord() Record {
	rec := NewRecord(g.ID)
	rec.Set("fullName", g.FullName)
	rec.Set("email", g.Email)
	rec.Set("phoneNumber", g.PhoneNumber)
	rec.Set("dateOfBirth", g.DateOfBirth)
	rec.Set("address", g.Address)
	rec.Set("identificationNumber", g.IdentificationNumber)
	rec.Set("specialRequests", g.SpecialRequests)
	return rec
}

func GuestFromRecord(rec Record) Guest {
	return Guest{
		ID:                   rec.ID,
		FullName:             rec.String("fullName"),
		Email:                rec.String("email"),
		PhoneNumber:          rec.String("phoneNumber"),
		DateOfBirth:          rec.String("dateOfBirth"),
		Address:              rec.String("address"),
		IdentificationNumber: rec.String("identificationNumber"),
		SpecialRequests:      rec.String("specialRequests"),
	}
}

// StaffMember is an employee with a shift.
type StaffMember struct {
	ID             string
	FullName       string
	JobTitle       string
	Department     string
	Email          string
	PhoneNumber    string
	ShiftStartTime string
	ShiftEndTime   string
}

func (s StaffMember) ToRecord() Record {
	rec := NewRecord(s.ID)
	rec.Set("fullName", s.FullName)
	rec.Set("jobTitle", s.JobTitle)
	rec.Set("department", s.Department)
	rec.Set("email", s.Email)
	rec.Set("phoneNumber", s.PhoneNumber)
	rec.Set("shiftStartTime", s.ShiftStartTime)
	rec.Set("shiftEndTime", s.ShiftEndTime)
	return rec
}

func StaffMemberFromRecord(rec Record) StaffMember {
	return StaffMember{
		ID:             rec.ID,
		FullName:       rec.String("fullName"),
		JobTitle:       rec.String("jobTitle"),
		Department:     rec.String("department"),
		Email:          rec.String("email"),
		PhoneNumber:    rec.String("phoneNumber"),
		ShiftStartTime: rec.String("shiftStartTime"),
		ShiftEndTime:   rec.String("shiftEndTime"),
	}
}

// HotelService is a bookable extra such as spa or room service.
type HotelService struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Available   bool
	Image       string
	Duration    string
}

func (s HotelService) ToRecord() Record {
	rec := NewRecord(s.ID)
	rec.Set("itemName", s.Name)
	rec.Set("itemDescription", s.Description)
	rec.Set("itemPrice", Money(s.Price))
	rec.Set("isAvailable", s.Available)
	rec.Set("itemImage", s.Image)
	rec.Set("serviceDuration", s.Duration)
	return rec
}

func HotelServiceFromRecord(rec Record) HotelService {
	return HotelService{
		ID:          rec.ID,
		Name:        rec.String("itemName"),
		Description: rec.String("itemDescription"),
		Price:       DecimalField(rec, "itemPrice"),
		Available:   BoolField(rec, "isAvailable"),
		Image:       rec.String("itemImage"),
		Duration:    rec.String("serviceDuration"),
	}
}

// Payment records money received or refunded.
type Payment struct {
	ID                   string
	Amount               decimal.Decimal
	PaymentDate          string
	PaymentMethod        string
	Status               string
	TransactionReference string
}

func (p Payment) ToRecord() Record {
	rec := NewRecord(p.ID)
	rec.Set("amount", Money(p.Amount))
	rec.Set("paymentDate", p.PaymentDate)
	rec.Set("paymentMethod", p.PaymentMethod)
	rec.Set("status", p.Status)
	rec.Set("transactionReference", p.TransactionReference)
	return rec
}

func PaymentFromRecord(rec Record) Payment {
	return Payment{
		ID:                   rec.ID,
		Amount:               DecimalField(rec, "amount"),
		PaymentDate:          rec.String("paymentDate"),
		PaymentMethod:        rec.String("paymentMethod"),
		Status:               rec.String("status"),
		TransactionReference: rec.String("transactionReference"),
	}
}

// HousekeepingTask is cleaning work assigned to a room.
type HousekeepingTask struct {
	ID              string
	TaskDescription string
	RoomNumber      string
	Status          string
	AssignedStaff   string
	DueDate         string
	Notes           string
}

func (t HousekeepingTask) ToRecord() Record {
	rec := NewRecord(t.ID)
	rec.Set("taskDescription", t.TaskDescription)
	rec.Set("roomNumber", t.RoomNumber)
	rec.Set("status", t.Status)
	rec.Set("assignedStaff", t.AssignedStaff)
	rec.Set("dueDate", t.DueDate)
	rec.Set("notes", t.Notes)
	return rec
}

func HousekeepingTaskFromRecord(rec Record) HousekeepingTask {
	return HousekeepingTask{
		ID:              rec.ID,
		TaskDescription: rec.String("taskDescription"),
		RoomNumber:      rec.String("roomNumber"),
		Status:          rec.String("status"),
		AssignedStaff:   rec.String("assignedStaff"),
		DueDate:         rec.String("dueDate"),
		Notes:           rec.String("notes"),
	}
}

// MaintenanceRequest is a reported repair.
type MaintenanceRequest struct {
	ID                 string
	IssueDescription   string
	LocationRoomNumber string
	PriorityLevel      string
	RepairStatus       string
	DateReported       string
	DateResolved       string
}

func (m MaintenanceRequest) ToRecord() Record {
	rec := NewRecord(m.ID)
	rec.Set("issueDescription", m.IssueDescription)
	rec.Set("locationRoomNumber", m.LocationRoomNumber)
	rec.Set("priorityLevel", m.PriorityLevel)
	rec.Set("repairStatus", m.RepairStatus)
	rec.Set("dateReported", m.DateReported)
	rec.Set("dateResolved", m.DateResolved)
	return rec
}

func MaintenanceRequestFromRecord(rec Record) MaintenanceRequest {
	return MaintenanceRequest{
		ID:                 rec.ID,
		IssueDescription:   rec.String("issueDescription"),
		LocationRoomNumber: rec.String("locationRoomNumber"),
		PriorityLevel:      rec.String("priorityLevel"),
		RepairStatus:       rec.String("repairStatus"),
		DateReported:       rec.String("dateReported"),
		DateResolved:       rec.String("dateResolved"),
	}
}

// Money encodes a decimal as a JSON number literal.
func Money(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

// Int encodes an integer as a JSON number literal.
func Int(n int) json.Number {
	return json.Number(strconv.Itoa(n))
}

// DecimalField reads a numeric field as a decimal. Missing or malformed values are zero.
func DecimalField(rec Record, key string) decimal.Decimal {
	switch v := rec.Fields[key].(type) {
	case decimal.Decimal:
		return v
	case float64:
		return decimal.NewFromFloat(v)
	case int:
		return decimal.NewFromInt(int64(v))
	}
	d, err := decimal.NewFromString(rec.String(key))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// IntField reads a numeric field as an int, truncating fractions.
func IntField(rec Record, key string) int {
	return int(DecimalField(rec, key).IntPart())
}

// BoolField reads a boolean field. Strings "true" and "yes" count as true.
func BoolField(rec Record, key string) bool {
	switch v := rec.Fields[key].(type) {
	case bool:
		return v
	case string:
		return v == "true" || v == "yes"
	}
	return false
}
