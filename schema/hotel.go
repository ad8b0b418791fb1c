// ABOUTME: Schemas for the eight hotel collections with their date rules
// ABOUTME: Field lists, defaults, option vocabularies, and list columns per screen
package schema

import (
	"time"

	"github.com/harperreed/innkeep/models"
	"github.com/harperreed/innkeep/validation"
)

// Rule messages shown to staff when a submission is blocked.
const (
	MsgCheckInPast        = "Check-in date cannot be in the past"
	MsgCheckOutBeforeIn   = "Check-out date must be after check-in date"
	MsgDueDatePast        = "Due date cannot be in the past"
	MsgReportedInFuture   = "Reported date cannot be in the future"
	MsgResolvedBeforeSeen = "Resolved date cannot be before reported date"
)

var (
	roomStatuses        = []string{models.RoomAvailable, models.RoomOccupied, models.RoomMaintenance}
	reservationStatuses = []string{models.ReservationConfirmed, models.ReservationPending, models.ReservationCheckedIn, models.ReservationCheckedOut, models.ReservationCancelled}
	paymentStatuses     = []string{models.PaymentCompleted, models.PaymentPending, models.PaymentFailed, models.PaymentRefunded}
	paymentMethods      = []string{models.MethodCreditCard, models.MethodDebitCard, models.MethodCash, models.MethodBankTransfer, models.MethodDigitalWallet}
	taskStatuses        = []string{models.WorkPending, models.WorkInProgress, models.WorkCompleted}
	repairStatuses      = []string{models.WorkPending, models.WorkInProgress, models.WorkCompleted, models.WorkCancelled}
	priorities          = []string{models.PriorityLow, models.PriorityMedium, models.PriorityHigh, models.PriorityCritical}
)

var registry = map[string]*Schema{
	models.CollectionRooms: {
		Collection: models.CollectionRooms,
		Title:      "Rooms",
		Singular:   "room",
		Fields: []Field{
			{Key: "itemName", Label: "Room Name", Kind: KindText, Required: true},
			{Key: "itemPrice", Label: "Price per Night", Kind: KindMoney, Required: true},
			{Key: "maxOccupancy", Label: "Max Occupancy", Kind: KindNumber, Required: true},
			{Key: "roomType", Label: "Room Type", Kind: KindText, Required: true},
			{Key: "roomStatus", Label: "Status", Kind: KindChoice, Options: roomStatuses, Default: models.RoomAvailable},
			{Key: "itemDescription", Label: "Description", Kind: KindLongText, Required: true},
			{Key: "itemImage", Label: "Image URL", Kind: KindImage},
		},
		Headline: []string{"itemName"},
		Columns:  []string{"itemName", "roomType", "itemPrice", "maxOccupancy", "roomStatus"},
	},
	models.CollectionReservations: {
		Collection: models.CollectionReservations,
		Title:      "Reservations",
		Singular:   "reservation",
		Fields: []Field{
			{Key: "reservationNumber", Label: "Reservation Number", Kind: KindText, Required: true},
			{Key: "roomNumber", Label: "Room Number", Kind: KindText, Required: true},
			{Key: "guestName", Label: "Guest Name", Kind: KindText, Required: true},
			{Key: "checkInDate", Label: "Check-in Date", Kind: KindDate, Required: true},
			{Key: "checkOutDate", Label: "Check-out Date", Kind: KindDate, Required: true},
			{Key: "status", Label: "Status", Kind: KindChoice, Options: reservationStatuses, Default: models.ReservationConfirmed},
		},
		Rules:    []Rule{reservationDates},
		Headline: []string{"reservationNumber", "guestName"},
		Columns:  []string{"reservationNumber", "guestName", "roomNumber", "checkInDate", "checkOutDate", "status"},
	},
	models.CollectionGuests: {
		Collection: models.CollectionGuests,
		Title:      "Guests",
		Singular:   "guest",
		Fields: []Field{
			{Key: "fullName", Label: "Full Name", Kind: KindText, Required: true},
			{Key: "email", Label: "Email", Kind: KindText, Required: true},
			{Key: "phoneNumber", Label: "Phone Number", Kind: KindText, Required: true},
			{Key: "dateOfBirth", Label: "Date of Birth", Kind: KindDate, Required: true},
			{Key: "identificationNumber", Label: "ID Number", Kind: KindText, Required: true},
			{Key: "address", Label: "Address", Kind: KindLongText, Required: true},
			{Key: "specialRequests", Label: "Special Requests", Kind: KindLongText},
		},
		Rules:    []Rule{validEmail},
		Headline: []string{"fullName"},
		Columns:  []string{"fullName", "email", "phoneNumber", "identificationNumber"},
	},
	models.CollectionStaff: {
		Collection: models.CollectionStaff,
		Title:      "Staff",
		Singular:   "staff member",
		Fields: []Field{
			{Key: "fullName", Label: "Full Name", Kind: KindText, Required: true},
			{Key: "jobTitle", Label: "Job Title", Kind: KindText, Required: true},
			{Key: "department", Label: "Department", Kind: KindText, Required: true},
			{Key: "email", Label: "Email", Kind: KindText, Required: true},
			{Key: "phoneNumber", Label: "Phone Number", Kind: KindText, Required: true},
			{Key: "shiftStartTime", Label: "Shift Start", Kind: KindTime, Required: true},
			{Key: "shiftEndTime", Label: "Shift End", Kind: KindTime, Required: true},
		},
		Rules:    []Rule{validEmail},
		Headline: []string{"fullName", "jobTitle"},
		Columns:  []string{"fullName", "jobTitle", "department", "shiftStartTime", "shiftEndTime"},
	},
	models.CollectionServices: {
		Collection: models.CollectionServices,
		Title:      "Services",
		Singular:   "service",
		Fields: []Field{
			{Key: "itemName", Label: "Service Name", Kind: KindText, Required: true},
			{Key: "itemPrice", Label: "Price", Kind: KindMoney, Required: true},
			{Key: "serviceDuration", Label: "Duration", Kind: KindText, Required: true},
			{Key: "itemDescription", Label: "Description", Kind: KindLongText, Required: true},
			{Key: "isAvailable", Label: "Available", Kind: KindBool, Default: "true"},
			{Key: "itemImage", Label: "Image URL", Kind: KindImage},
		},
		Headline: []string{"itemName"},
		Columns:  []string{"itemName", "itemPrice", "serviceDuration", "isAvailable"},
	},
	models.CollectionPayments: {
		Collection: models.CollectionPayments,
		Title:      "Payments",
		Singular:   "payment",
		Fields: []Field{
			{Key: "amount", Label: "Amount", Kind: KindMoney, Required: true},
			{Key: "paymentDate", Label: "Payment Date", Kind: KindDate, Required: true},
			{Key: "paymentMethod", Label: "Payment Method", Kind: KindChoice, Options: paymentMethods, Default: models.MethodCreditCard},
			{Key: "status", Label: "Status", Kind: KindChoice, Options: paymentStatuses, Default: models.PaymentCompleted},
			{Key: "transactionReference", Label: "Transaction Reference", Kind: KindText, Required: true},
		},
		Headline: []string{"transactionReference", "amount"},
		Columns:  []string{"transactionReference", "amount", "paymentDate", "paymentMethod", "status"},
	},
	models.CollectionHousekeepingTasks: {
		Collection: models.CollectionHousekeepingTasks,
		Title:      "Housekeeping",
		Singular:   "task",
		Fields: []Field{
			{Key: "taskDescription", Label: "Task Description", Kind: KindLongText, Required: true},
			{Key: "roomNumber", Label: "Room Number", Kind: KindText, Required: true},
			{Key: "assignedStaff", Label: "Assigned Staff", Kind: KindText, Required: true},
			{Key: "status", Label: "Status", Kind: KindChoice, Options: taskStatuses, Default: models.WorkPending},
			{Key: "dueDate", Label: "Due Date", Kind: KindDate, Required: true},
			{Key: "notes", Label: "Notes", Kind: KindLongText},
		},
		Rules:    []Rule{dueDate},
		Headline: []string{"taskDescription"},
		Columns:  []string{"taskDescription", "roomNumber", "assignedStaff", "dueDate", "status"},
	},
	models.CollectionMaintenanceRequests: {
		Collection: models.CollectionMaintenanceRequests,
		Title:      "Maintenance",
		Singular:   "request",
		Fields: []Field{
			{Key: "issueDescription", Label: "Issue Description", Kind: KindLongText, Required: true},
			{Key: "locationRoomNumber", Label: "Location / Room", Kind: KindText, Required: true},
			{Key: "priorityLevel", Label: "Priority", Kind: KindChoice, Options: priorities, Default: models.PriorityMedium},
			{Key: "repairStatus", Label: "Status", Kind: KindChoice, Options: repairStatuses, Default: models.WorkPending},
			{Key: "dateReported", Label: "Date Reported", Kind: KindDateTime, Required: true},
			{Key: "dateResolved", Label: "Date Resolved", Kind: KindDateTime},
		},
		Rules:    []Rule{maintenanceDates},
		Headline: []string{"issueDescription"},
		Columns:  []string{"issueDescription", "locationRoomNumber", "priorityLevel", "repairStatus", "dateReported"},
	},
}

// For returns the schema of a collection.
func For(collection string) (*Schema, bool) {
	s, ok := registry[collection]
	return s, ok
}

// All returns every schema in navigation order.
func All() []*Schema {
	out := make([]*Schema, 0, len(models.Collections))
	for _, name := range models.Collections {
		out = append(out, registry[name])
	}
	return out
}

func reservationDates(rec models.Record, now time.Time) error {
	in, err := validation.ParseDate("checkInDate", rec.String("checkInDate"))
	if err != nil {
		return err
	}
	out, err := validation.ParseDate("checkOutDate", rec.String("checkOutDate"))
	if err != nil {
		return err
	}
	if err := validation.NotInPast("checkInDate", in, now, MsgCheckInPast); err != nil {
		return err
	}
	return validation.Ordered("checkOutDate", in, out, true, MsgCheckOutBeforeIn)
}

func dueDate(rec models.Record, now time.Time) error {
	due, err := validation.ParseDate("dueDate", rec.String("dueDate"))
	if err != nil {
		return err
	}
	return validation.NotInPast("dueDate", due, now, MsgDueDatePast)
}

func maintenanceDates(rec models.Record, now time.Time) error {
	reported, err := validation.ParseDate("dateReported", rec.String("dateReported"))
	if err != nil {
		return err
	}
	if err := validation.NotInFuture("dateReported", reported, now, MsgReportedInFuture); err != nil {
		return err
	}
	if rec.String("dateResolved") == "" {
		return nil
	}
	resolved, err := validation.ParseDate("dateResolved", rec.String("dateResolved"))
	if err != nil {
		return err
	}
	return validation.Ordered("dateResolved", reported, resolved, false, MsgResolvedBeforeSeen)
}

func validEmail(rec models.Record, _ time.Time) error {
	return validation.Email("email", rec.String("email"))
}
