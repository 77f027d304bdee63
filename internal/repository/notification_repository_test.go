package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeNotification(t *testing.T) {
	at := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	n := decodeNotification(map[string]string{
		"id":         "n1",
		"user_id":    "u1",
		"message":    "Ticket TCK-1 validated",
		"read":       "1",
		"created_at": "1709285400000000000",
		"ticket_id":  "t1",
	})

	assert.Equal(t, "n1", n.ID)
	assert.True(t, n.Read)
	assert.Equal(t, at, n.CreatedAt)
	require.NotNil(t, n.TicketID)
	assert.Equal(t, "t1", *n.TicketID)

	bare := decodeNotification(map[string]string{"id": "n2", "read": "0"})
	assert.False(t, bare.Read)
	assert.Nil(t, bare.TicketID)
}
