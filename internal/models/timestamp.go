package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Timestamp is an order placement instant as it arrives from the document
// store. Writers have stored it as BSON datetimes, ISO strings, epoch
// milliseconds and Firestore-style {seconds, nanoseconds} documents, so
// decoding accepts all of them. A value that cannot be interpreted decodes
// without error and reports Valid() == false.
//
// ISO strings without an offset are wall-clock times in the store's zone.
// They stay floating, held as UTC wall clock, until In pins them to a zone.
type Timestamp struct {
	t        time.Time
	ok       bool
	floating bool
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{t: t, ok: !t.IsZero()}
}

func (ts Timestamp) Time() time.Time { return ts.t }

func (ts Timestamp) Valid() bool { return ts.ok }

// Floating reports whether the value was written without a zone offset.
func (ts Timestamp) Floating() bool { return ts.floating }

// In returns the instant in loc. A floating value keeps its wall clock and
// takes loc as its zone; any other value is converted.
func (ts Timestamp) In(loc *time.Location) Timestamp {
	if !ts.ok || loc == nil {
		return ts
	}
	if ts.floating {
		y, m, d := ts.t.Date()
		return NewTimestamp(time.Date(y, m, d, ts.t.Hour(), ts.t.Minute(), ts.t.Second(), ts.t.Nanosecond(), loc))
	}
	return NewTimestamp(ts.t.In(loc))
}

var zonedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
}

// Parsing accepts a fractional second even though the layouts omit it.
var floatingLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

const floatingFormat = "2006-01-02T15:04:05.999999999"

// ParseTimestamp parses the string encodings seen in stored orders.
func ParseTimestamp(s string) (Timestamp, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Timestamp{}, false
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NewTimestamp(t), true
		}
	}
	for _, layout := range floatingLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			ts := NewTimestamp(t)
			ts.floating = true
			return ts, true
		}
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return NewTimestamp(time.UnixMilli(ms)), true
	}
	return Timestamp{}, false
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if !ts.ok {
		return []byte("null"), nil
	}
	if ts.floating {
		return json.Marshal(ts.t.Format(floatingFormat))
	}
	return json.Marshal(ts.t.Format(time.RFC3339Nano))
}

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	*ts = Timestamp{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		*ts, _ = ParseTimestamp(s)
	case '{':
		var doc struct {
			Seconds     *int64 `json:"seconds"`
			Nanoseconds int64  `json:"nanoseconds"`
			USeconds    *int64 `json:"_seconds"`
			UNanos      int64  `json:"_nanoseconds"`
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil
		}
		switch {
		case doc.Seconds != nil:
			*ts = NewTimestamp(time.Unix(*doc.Seconds, doc.Nanoseconds))
		case doc.USeconds != nil:
			*ts = NewTimestamp(time.Unix(*doc.USeconds, doc.UNanos))
		}
	default:
		if ms, err := strconv.ParseFloat(string(data), 64); err == nil {
			*ts = NewTimestamp(time.UnixMilli(int64(ms)))
		}
	}
	return nil
}

func (ts Timestamp) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if !ts.ok {
		return bsontype.Null, nil, nil
	}
	if ts.floating {
		return bson.MarshalValue(ts.t.Format(floatingFormat))
	}
	return bson.MarshalValue(ts.t)
}

func (ts *Timestamp) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	*ts = Timestamp{}
	rv := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.DateTime:
		if ms, ok := rv.DateTimeOK(); ok {
			*ts = NewTimestamp(time.UnixMilli(ms))
		}
	case bsontype.Timestamp:
		if sec, _, ok := rv.TimestampOK(); ok {
			*ts = NewTimestamp(time.Unix(int64(sec), 0))
		}
	case bsontype.String:
		if s, ok := rv.StringValueOK(); ok {
			*ts, _ = ParseTimestamp(s)
		}
	case bsontype.Int64:
		if ms, ok := rv.Int64OK(); ok {
			*ts = NewTimestamp(time.UnixMilli(ms))
		}
	case bsontype.Double:
		if ms, ok := rv.DoubleOK(); ok {
			*ts = NewTimestamp(time.UnixMilli(int64(ms)))
		}
	case bsontype.EmbeddedDocument:
		doc, ok := rv.DocumentOK()
		if !ok {
			return nil
		}
		sec, ok := lookupInt(doc, "seconds", "_seconds")
		if !ok {
			return nil
		}
		nanos, _ := lookupInt(doc, "nanoseconds", "_nanoseconds")
		*ts = NewTimestamp(time.Unix(sec, nanos))
	}
	return nil
}

func lookupInt(doc bson.Raw, keys ...string) (int64, bool) {
	for _, k := range keys {
		v, err := doc.LookupErr(k)
		if err != nil {
			continue
		}
		if n, ok := v.AsInt64OK(); ok {
			return n, true
		}
		if f, ok := v.DoubleOK(); ok {
			return int64(f), true
		}
	}
	return 0, false
}
