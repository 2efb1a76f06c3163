package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsCriticalBoundary(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	threshold := 30 * time.Minute

	atThreshold := &Ticket{Status: TicketStatusOpen, CreatedAt: now.Add(-threshold)}
	assert.False(t, atThreshold.IsCritical(now, threshold))

	past := &Ticket{Status: TicketStatusOpen, CreatedAt: now.Add(-threshold - time.Nanosecond)}
	assert.True(t, past.IsCritical(now, threshold))

	ongoing := &Ticket{Status: TicketStatusOngoing, CreatedAt: now.Add(-24 * time.Hour)}
	assert.False(t, ongoing.IsCritical(now, threshold))
}

func TestParseTicketStatus(t *testing.T) {
	for _, status := range TicketStatuses {
		parsed, err := ParseTicketStatus(int(status))
		require.NoError(t, err)
		assert.Equal(t, status, parsed)
	}
	_, err := ParseTicketStatus(7)
	assert.Error(t, err)
	assert.Equal(t, "Cancelled", TicketStatusCancelled.String())
}

func TestParseTicketAction(t *testing.T) {
	action, ok := ParseTicketAction(" onProcess ")
	require.True(t, ok)
	assert.Equal(t, ActionOngoing, action)

	_, ok = ParseTicketAction("archive")
	assert.False(t, ok)
}

func TestCloneIsDeep(t *testing.T) {
	rating := 3
	original := &Ticket{TicketNumber: "TKTSPRT-2025-001", Rating: &rating, AssignedTo: stringPtr("T1")}
	clone := original.Clone()
	*clone.Rating = 5
	*clone.AssignedTo = "T2"
	assert.Equal(t, 3, *original.Rating)
	assert.Equal(t, "T1", *original.AssignedTo)
}

func TestLogMetadataRoundTrip(t *testing.T) {
	ticket := &Ticket{TicketNumber: "TKTSPRT-2025-009", RequesterID: "E1", Status: TicketStatusResolved}
	actor := &Actor{EmployeeID: "T1", Name: "Tech", Roles: NewRoleSet(RoleSupportTechnician)}

	body, err := json.Marshal(NewLogMetadata(ticket, actor))
	require.NoError(t, err)

	var decoded LogMetadata
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, LogMetadataVersion, decoded.Version)
	assert.Equal(t, "TKTSPRT-2025-009", decoded.Ticket.TicketNumber)
	assert.Equal(t, int(TicketStatusResolved), decoded.Ticket.Status)
	assert.Equal(t, []string{"SUPPORT_TECHNICIAN"}, decoded.Actor.Roles)
}

func TestLogMetadataLegacyLayout(t *testing.T) {
	legacy := `{"ticket_number":"TKTSPRT-2023-118","requester_id":"E7","status":2,"details":"VPN down",
		"employee":{"employee_id":"T3","name":"Old Tech"}}`

	var decoded LogMetadata
	require.NoError(t, json.Unmarshal([]byte(legacy), &decoded))
	assert.Equal(t, 0, decoded.Version)
	assert.Equal(t, "TKTSPRT-2023-118", decoded.Ticket.TicketNumber)
	assert.Equal(t, "VPN down", decoded.Ticket.Details)
	assert.Equal(t, 2, decoded.Ticket.Status)
	assert.Equal(t, "T3", decoded.Actor.EmployeeID)
}

func stringPtr(v string) *string { return &v }
