package ledger

import (
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrUnparseable is returned for raw check-in entries that are not a date
var ErrUnparseable = errors.New("unparseable check-in entry")

// Timestamp is a serialized timestamp as document stores export it
type Timestamp struct {
	Seconds     int64 `json:"seconds"`
	Nanoseconds int64 `json:"nanoseconds"`
}

// Time converts the Timestamp into a time.Time
func (t Timestamp) Time() time.Time {
	return time.Unix(t.Seconds, t.Nanoseconds).UTC()
}

var stringLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Normalize converts heterogeneous raw entries into a Set. Entries that cannot be parsed are
// skipped and reported in the returned errors.
func Normalize(raw []interface{}) (Set, []error) {
	set := Set{}
	var errs []error

	for index, entry := range raw {
		t, err := parse(entry)
		if err != nil {
			errs = append(errs, fmt.Errorf("entry %d: %w", index, err))
			continue
		}

		set = Insert(set, t)
	}

	return set, errs
}

func parse(entry interface{}) (time.Time, error) {
	switch value := entry.(type) {
	case time.Time:
		if value.IsZero() {
			return time.Time{}, fmt.Errorf("%w: zero time", ErrUnparseable)
		}
		return value, nil
	case *time.Time:
		if value == nil {
			return time.Time{}, fmt.Errorf("%w: nil time", ErrUnparseable)
		}
		return parse(*value)
	case Timestamp:
		return value.Time(), nil
	case *Timestamp:
		if value == nil {
			return time.Time{}, fmt.Errorf("%w: nil timestamp", ErrUnparseable)
		}
		return value.Time(), nil
	case primitive.DateTime:
		return value.Time(), nil
	case int64:
		return time.UnixMilli(value).UTC(), nil
	case float64:
		return time.UnixMilli(int64(value)).UTC(), nil
	case string:
		return parseString(value)
	case map[string]interface{}:
		return parseTimestampMap(value)
	case primitive.M:
		return parseTimestampMap(value)
	}

	return time.Time{}, fmt.Errorf("%w: unsupported type %T", ErrUnparseable, entry)
}

func parseString(value string) (time.Time, error) {
	for _, layout := range stringLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseable, value)
}

func parseTimestampMap(value map[string]interface{}) (time.Time, error) {
	seconds, ok := lookupNumber(value, "seconds", "_seconds")
	if !ok {
		return time.Time{}, fmt.Errorf("%w: timestamp without seconds", ErrUnparseable)
	}

	nanoseconds, _ := lookupNumber(value, "nanoseconds", "_nanoseconds")

	return Timestamp{Seconds: seconds, Nanoseconds: nanoseconds}.Time(), nil
}

func lookupNumber(value map[string]interface{}, keys ...string) (int64, bool) {
	for _, key := range keys {
		switch number := value[key].(type) {
		case float64:
			return int64(number), true
		case int64:
			return number, true
		case int32:
			return int64(number), true
		case int:
			return int64(number), true
		}
	}

	return 0, false
}
