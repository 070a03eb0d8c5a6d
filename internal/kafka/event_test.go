package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent_Fields(t *testing.T) {
	type AccountData struct {
		AccountID string `json:"account_id"`
		Email     string `json:"email"`
	}

	data := AccountData{AccountID: "acc-123", Email: "teguh@example.com"}
	event, err := NewEvent("account.registered", "acc-123", "account", "taskman-api", data)
	require.NoError(t, err)

	assert.NotEmpty(t, event.EventID, "EventID should be a non-empty UUID")
	assert.Equal(t, "account.registered", event.EventType)
	assert.Equal(t, "acc-123", event.SubjectID)
	assert.Equal(t, "account", event.SubjectType)
	assert.Equal(t, "taskman-api", event.Source)
	assert.WithinDuration(t, time.Now().UTC(), event.Timestamp, 2*time.Second)

	var roundTripped AccountData
	require.NoError(t, event.UnmarshalData(&roundTripped))
	assert.Equal(t, data, roundTripped)
}

func TestNewEvent_UniqueIDs(t *testing.T) {
	a, err := NewEvent("account.registered", "acc-1", "account", "taskman-api", nil)
	require.NoError(t, err)
	b, err := NewEvent("account.registered", "acc-1", "account", "taskman-api", nil)
	require.NoError(t, err)
	assert.NotEqual(t, a.EventID, b.EventID)
}

func TestNewEvent_InvalidData(t *testing.T) {
	// Channels are not serializable to JSON.
	_, err := NewEvent("test.event", "sub-1", "test", "taskman-api", make(chan int))
	require.Error(t, err)
}

func TestEvent_WithCorrelationID(t *testing.T) {
	event, err := NewEvent("invite.accepted", "ws-1", "workspace", "taskman-api", nil)
	require.NoError(t, err)

	event.WithCorrelationID("corr-abc")
	assert.Equal(t, "corr-abc", event.CorrelationID)
}

func TestEvent_Marshal_RoundTrip(t *testing.T) {
	original, err := NewEvent("account.verified", "acc-456", "account", "taskman-api",
		map[string]string{"email": "teguh@example.com"})
	require.NoError(t, err)
	original.WithCorrelationID("corr-xyz")

	raw, err := original.Marshal()
	require.NoError(t, err)

	var decoded Event
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, original.EventID, decoded.EventID)
	assert.Equal(t, original.EventType, decoded.EventType)
	assert.Equal(t, original.SubjectID, decoded.SubjectID)
	assert.Equal(t, "corr-xyz", decoded.CorrelationID)

	var payload map[string]string
	require.NoError(t, decoded.UnmarshalData(&payload))
	assert.Equal(t, "teguh@example.com", payload["email"])
}
