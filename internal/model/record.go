package model

// StateUnspecified is the governorate assigned when a probe point cannot be
// placed inside any known boundary (or carries no usable coordinates).
const StateUnspecified = "Unspecified"

// TrafficRecord is one GPS probe sample from the traffic table.
// Fields that the source CSV may omit or mangle are pointers: a nil value
// means the field was missing or unparsable, which is distinct from zero.
type TrafficRecord struct {
	ID       int64    `json:"id"`
	Date     *string  `json:"date"` // ISO calendar date, YYYY-MM-DD
	Time     *string  `json:"time"` // free-text clock value, stored as received
	Lon      *float64 `json:"lon"`
	Lat      *float64 `json:"lat"`
	Course   *float64 `json:"course"`
	Velocity *float64 `json:"velocity"`
	OSMID    *string  `json:"osm_id"`
	State    string   `json:"state"`
}
