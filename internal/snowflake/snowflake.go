package snowflake

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Discord epoch: January 1, 2015 00:00:00 UTC.
const epoch int64 = 1420070400000

const timestampShift = 22

// ID is a Discord snowflake that marshals to/from JSON as a string.
type ID int64

func (id ID) Int64() int64 {
	return int64(id)
}

func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// IsZero reports whether the ID is unset.
func (id ID) IsZero() bool {
	return id == 0
}

// Timestamp returns the creation time encoded in the snowflake.
func (id ID) Timestamp() time.Time {
	return ExtractTimestamp(int64(id))
}

func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatInt(int64(id), 10))
}

func (id *ID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = 0
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// The backend occasionally sends raw numbers.
		var n int64
		if nerr := json.Unmarshal(data, &n); nerr != nil {
			return fmt.Errorf("snowflake: cannot unmarshal %s: %w", string(data), err)
		}
		*id = ID(n)
		return nil
	}
	if s == "" {
		*id = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("snowflake: invalid id string %q: %w", s, err)
	}
	*id = ID(n)
	return nil
}

// Parse parses a decimal snowflake, as submitted from forms and path params.
func Parse(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("snowflake: empty id")
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("snowflake: invalid id %q", s)
	}
	if n <= 0 {
		return 0, fmt.Errorf("snowflake: id must be positive, got %d", n)
	}
	return ID(n), nil
}

// ParseOptional is like Parse but maps an empty string to the zero ID.
func ParseOptional(s string) (ID, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	return Parse(s)
}

// ExtractTimestamp returns the wall-clock time embedded in a snowflake ID.
func ExtractTimestamp(id int64) time.Time {
	ms := (id >> timestampShift) + epoch
	return time.UnixMilli(ms).UTC()
}
