// ABOUTME: Tests for form schemas and per-collection rules
// ABOUTME: Covers date ranges, past due dates, required fields, conversions, and summaries
package schema

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/harperreed/innkeep/models"
	"github.com/harperreed/innkeep/validation"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jan1 = time.Date(2025, 1, 1, 9, 0, 0, 0, time.Local)

func reservationForm(in, out string) map[string]string {
	return map[string]string{
		"reservationNumber": "R-100",
		"roomNumber":        "204",
		"guestName":         "Ada Lovelace",
		"checkInDate":       in,
		"checkOutDate":      out,
	}
}

func mustSchema(t *testing.T, name string) *Schema {
	t.Helper()
	s, ok := For(name)
	require.True(t, ok, "schema for %s", name)
	return s
}

func TestReservationCheckoutBeforeCheckinRejected(t *testing.T) {
	s := mustSchema(t, models.CollectionReservations)

	_, err := s.Build("r1", reservationForm("2025-01-10", "2025-01-09"), jan1)
	require.Error(t, err)
	assert.True(t, validation.IsValidation(err))
	assert.EqualError(t, err, MsgCheckOutBeforeIn)
}

func TestReservationSameDayCheckoutRejected(t *testing.T) {
	s := mustSchema(t, models.CollectionReservations)

	_, err := s.Build("r1", reservationForm("2025-01-10", "2025-01-10"), jan1)
	assert.EqualError(t, err, MsgCheckOutBeforeIn)
}

func TestReservationValidRangeProceeds(t *testing.T) {
	s := mustSchema(t, models.CollectionReservations)

	rec, err := s.Build("r1", reservationForm("2025-01-10", "2025-01-12"), jan1)
	require.NoError(t, err)
	assert.Equal(t, "r1", rec.ID)
	assert.Equal(t, "2025-01-10", rec.String("checkInDate"))
	assert.Equal(t, "2025-01-12", rec.String("checkOutDate"))
	assert.Equal(t, models.ReservationConfirmed, rec.String("status"))
}

func TestReservationCheckInPastRejected(t *testing.T) {
	s := mustSchema(t, models.CollectionReservations)

	_, err := s.Build("r1", reservationForm("2024-12-31", "2025-01-02"), jan1)
	assert.EqualError(t, err, MsgCheckInPast)
}

func TestHousekeepingPastDueDateRejected(t *testing.T) {
	s := mustSchema(t, models.CollectionHousekeepingTasks)

	values := map[string]string{
		"taskDescription": "Turn down 204",
		"roomNumber":      "204",
		"assignedStaff":   "Sam",
		"dueDate":         "2024-12-30",
	}
	_, err := s.Build("t1", values, jan1)
	assert.EqualError(t, err, "Due date cannot be in the past")

	values["dueDate"] = "2025-01-01"
	rec, err := s.Build("t1", values, jan1)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-01", rec.String("dueDate"))
}

func TestMaintenanceDates(t *testing.T) {
	s := mustSchema(t, models.CollectionMaintenanceRequests)
	values := map[string]string{
		"issueDescription":   "Leaking tap",
		"locationRoomNumber": "101",
		"dateReported":       "2025-01-02T08:00",
	}

	_, err := s.Build("m1", values, jan1)
	assert.EqualError(t, err, MsgReportedInFuture)

	values["dateReported"] = "2024-12-30T08:00"
	values["dateResolved"] = "2024-12-29T08:00"
	_, err = s.Build("m1", values, jan1)
	assert.EqualError(t, err, MsgResolvedBeforeSeen)

	values["dateResolved"] = "2024-12-31T10:30"
	rec, err := s.Build("m1", values, jan1)
	require.NoError(t, err)
	assert.Equal(t, "2024-12-31T10:30", rec.String("dateResolved"))
}

func TestBuildRequiredField(t *testing.T) {
	s := mustSchema(t, models.CollectionGuests)

	_, err := s.Build("g1", map[string]string{"fullName": "  "}, jan1)
	require.Error(t, err)
	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "fullName", verr.Field)
	assert.Equal(t, "Full Name is required", verr.Message)
}

func TestBuildConvertsTypes(t *testing.T) {
	s := mustSchema(t, models.CollectionRooms)

	rec, err := s.Build("room-1", map[string]string{
		"itemName":        "Garden Suite",
		"itemPrice":       "$189.5",
		"maxOccupancy":    "3",
		"roomType":        "Suite",
		"roomStatus":      "occupied",
		"itemDescription": "Faces the garden",
		"ignored":         "dropped",
	}, jan1)
	require.NoError(t, err)

	assert.Equal(t, json.Number("189.5"), rec.Fields["itemPrice"])
	assert.Equal(t, json.Number("3"), rec.Fields["maxOccupancy"])
	assert.Equal(t, models.RoomOccupied, rec.String("roomStatus"))
	assert.NotContains(t, rec.Fields, "ignored")
	assert.NotContains(t, rec.Fields, "itemImage")
}

func TestBuildRejectsBadValues(t *testing.T) {
	s := mustSchema(t, models.CollectionRooms)
	base := map[string]string{
		"itemName":        "Garden Suite",
		"itemPrice":       "189",
		"maxOccupancy":    "3",
		"roomType":        "Suite",
		"itemDescription": "Faces the garden",
	}

	tests := []struct {
		key, value, want string
	}{
		{"itemPrice", "cheap", "Price per Night must be a number"},
		{"itemPrice", "-5", "Price per Night cannot be negative"},
		{"maxOccupancy", "2.5", "Max Occupancy must be a whole number"},
		{"roomStatus", "Closed", "Status must be one of: Available, Occupied, Maintenance"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			values := map[string]string{}
			for k, v := range base {
				values[k] = v
			}
			values[tt.key] = tt.value
			_, err := s.Build("room-1", values, jan1)
			assert.EqualError(t, err, tt.want)
		})
	}
}

func TestFormValuesRoundTrip(t *testing.T) {
	s := mustSchema(t, models.CollectionServices)
	values := s.Defaults()
	values["itemName"] = "Spa"
	values["itemPrice"] = "45.00"
	values["serviceDuration"] = "60 min"
	values["itemDescription"] = "Massage"

	rec, err := s.Build("svc-1", values, jan1)
	require.NoError(t, err)
	assert.True(t, models.BoolField(rec, "isAvailable"))

	back := s.FormValues(rec)
	assert.Equal(t, "Spa", back["itemName"])
	assert.Equal(t, "45", back["itemPrice"])
	assert.Equal(t, "true", back["isAvailable"])

	again, err := s.Build("svc-1", back, jan1)
	require.NoError(t, err)
	assert.Equal(t, rec.Fields, again.Fields)
}

func TestSummaryAndRow(t *testing.T) {
	s := mustSchema(t, models.CollectionPayments)
	rec := models.Payment{
		ID:                   "p1",
		Amount:               mustDecimal(t, "120.5"),
		PaymentDate:          "2025-01-05",
		PaymentMethod:        models.MethodCash,
		Status:               models.PaymentCompleted,
		TransactionReference: "TX-9",
	}.ToRecord()

	title, lines := s.Summary(rec)
	assert.Equal(t, "TX-9 · $120.50", title)
	assert.Contains(t, lines, Line{Label: "Payment Date", Value: "Jan 5, 2025"})
	assert.Equal(t, []string{"TX-9", "$120.50", "Jan 5, 2025", "Cash", "Completed"}, s.Row(rec))
	assert.Equal(t, []string{"Transaction Reference", "Amount", "Payment Date", "Payment Method", "Status"}, s.ColumnLabels())
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestAllSchemasInNavigationOrder(t *testing.T) {
	all := All()
	require.Len(t, all, len(models.Collections))
	for i, s := range all {
		assert.Equal(t, models.Collections[i], s.Collection)
		assert.NotEmpty(t, s.Columns)
		for _, col := range s.Columns {
			_, ok := s.Field(col)
			assert.True(t, ok, "%s column %s", s.Collection, col)
		}
	}
}
