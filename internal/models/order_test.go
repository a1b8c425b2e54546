package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var placed = time.Date(2026, time.October, 14, 3, 30, 0, 0, time.UTC)

func TestTimestampJSONEncodings(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		valid bool
	}{
		{"iso string", `"2026-10-14T09:00:00+05:30"`, true},
		{"epoch millis", `1791948600000`, true},
		{"seconds document", `{"seconds":1791948600,"nanoseconds":0}`, true},
		{"underscore seconds", `{"_seconds":1791948600,"_nanoseconds":0}`, true},
		{"garbage string", `"next tuesday"`, false},
		{"null", `null`, false},
		{"empty document", `{}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var o Order
			require.NoError(t, json.Unmarshal([]byte(`{"timestamp":`+tt.raw+`}`), &o))
			assert.Equal(t, tt.valid, o.Timestamp.Valid())
			if tt.valid {
				assert.True(t, o.Timestamp.Time().Equal(placed), o.Timestamp.Time())
			}
		})
	}
}

func TestTimestampJSONRoundTrip(t *testing.T) {
	out, err := json.Marshal(NewTimestamp(placed))
	require.NoError(t, err)
	assert.JSONEq(t, `"2026-10-14T03:30:00Z"`, string(out))

	out, err = json.Marshal(Timestamp{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}

func TestTimestampBSONEncodings(t *testing.T) {
	tests := []struct {
		name  string
		value any
		valid bool
	}{
		{"datetime", primitive.NewDateTimeFromTime(placed), true},
		{"epoch millis", placed.UnixMilli(), true},
		{"iso string", "2026-10-14T03:30:00Z", true},
		{"seconds document", bson.M{"seconds": placed.Unix(), "nanoseconds": 0}, true},
		{"unsupported type", true, false},
		{"garbage string", "soon", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := bson.Marshal(bson.M{"timestamp": tt.value})
			require.NoError(t, err)
			var o Order
			require.NoError(t, bson.Unmarshal(raw, &o))
			assert.Equal(t, tt.valid, o.Timestamp.Valid())
			if tt.valid {
				assert.True(t, o.Timestamp.Time().Equal(placed), o.Timestamp.Time())
			}
		})
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in    string
		want  OrderStatus
		known bool
	}{
		{"Placed", StatusPlaced, true},
		{" Out For Delivery ", StatusOutForDelivery, true},
		{"out-for-delivery", StatusOutForDelivery, true},
		{"canceled", StatusCancelled, true},
		{"DELIVERED", StatusDelivered, true},
		{"", StatusPlaced, false},
		{"shipped", StatusPlaced, false},
	}
	for _, tt := range tests {
		got, known := ParseStatus(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.known, known, tt.in)
		assert.Equal(t, tt.want, NormalizeStatus(tt.in), tt.in)
	}
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusPlaced, StatusHarvested))
	assert.True(t, CanTransition(StatusPlaced, StatusDelivered))
	assert.True(t, CanTransition(StatusOutForDelivery, StatusCancelled))
	assert.False(t, CanTransition(StatusHarvested, StatusPlaced))
	assert.False(t, CanTransition(StatusHarvested, StatusHarvested))
	assert.False(t, CanTransition(StatusDelivered, StatusCancelled))
	assert.False(t, CanTransition(StatusCancelled, StatusPlaced))
}

func TestDisplayID(t *testing.T) {
	id, err := primitive.ObjectIDFromHex("65f1a2b3c4d5e6f7a8b9c0d1")
	require.NoError(t, err)

	assert.Equal(t, "A8B9C0D1", Order{ID: id}.DisplayID())
	assert.Equal(t, "HRV-1042", Order{ID: id, OrderID: "HRV-1042"}.DisplayID())
	assert.Empty(t, Order{}.DisplayID())
}

func TestPlacedAtFallsBackToDate(t *testing.T) {
	o := Order{Date: "2026-10-14T03:30:00Z"}
	got, ok := o.PlacedAt()
	require.True(t, ok)
	assert.True(t, got.Equal(placed))

	_, ok = Order{Date: "Oct 14, 2026"}.PlacedAt()
	assert.False(t, ok, "a calendar date is not an instant")
}

func TestParseDateKey(t *testing.T) {
	want := time.Date(2026, time.October, 14, 0, 0, 0, 0, time.UTC)
	for _, s := range []string{"Oct 14, 2026", "October 14, 2026", "2026-10-14", "10/14/2026", "2026-10-14T03:30:00Z"} {
		got, ok := ParseDateKey(s)
		require.True(t, ok, s)
		assert.True(t, got.Equal(want), s)
	}
	_, ok := ParseDateKey("Unknown Date")
	assert.False(t, ok)
}

func TestZonelessTimestampFloats(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)

	ts, ok := ParseTimestamp("2026-10-14T09:00:00.250")
	require.True(t, ok)
	assert.True(t, ts.Floating())
	assert.True(t, ts.In(ist).Time().Equal(placed.Add(250*time.Millisecond)))

	zoned, ok := ParseTimestamp("2026-10-14T03:30:00Z")
	require.True(t, ok)
	assert.False(t, zoned.Floating())
	assert.True(t, zoned.In(ist).Time().Equal(placed))

	got, ok := Order{Date: "2026-10-14 09:00:00"}.PlacedAtIn(ist)
	require.True(t, ok)
	assert.True(t, got.Equal(placed))

	out, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.JSONEq(t, `"2026-10-14T09:00:00.25"`, string(out))
	var back Timestamp
	require.NoError(t, json.Unmarshal(out, &back))
	assert.True(t, back.Floating())
}
