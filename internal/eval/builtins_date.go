package eval

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/module/scripthost/internal/value"
)

// newDateValue implements `new Date(...)` per §6.3. value.Date stores an
// epoch-millisecond int64 copied by value (§3.2), so every component this
// harness computes from a Date is derived fresh from that epoch rather than
// from any mutable calendar state — dates are always interpreted in UTC,
// sidestepping a host-timezone model the original spec leaves unspecified.
func newDateValue(args []value.Value) value.Value {
	switch len(args) {
	case 0:
		return value.Date(time.Now().UTC().UnixMilli())
	case 1:
		switch a := args[0].(type) {
		case value.Date:
			return a
		case value.String:
			return value.Date(parseDateString(string(a)))
		default:
			return value.Date(int64(ToFloat64(a)))
		}
	default:
		get := func(i, def int) int {
			if i >= len(args) {
				return def
			}
			return int(ToFloat64(args[i]))
		}
		year := get(0, 1970)
		month := get(1, 0)
		day := get(2, 1)
		hour := get(3, 0)
		minute := get(4, 0)
		sec := get(5, 0)
		ms := get(6, 0)
		t := time.Date(year, time.Month(month+1), day, hour, minute, sec, ms*int(time.Millisecond), time.UTC)
		return value.Date(t.UnixMilli())
	}
}

// parseDateString accepts RFC3339 and a handful of common JS date-string
// forms; anything unrecognized yields the NaN-epoch sentinel (Invalid Date).
func parseDateString(s string) int64 {
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05.000Z",
		"2006-01-02T15:04:05",
		"2006-01-02",
		"2006-01-02 15:04:05",
		time.RFC1123,
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().UnixMilli()
		}
	}
	return invalidDateEpoch
}

// invalidDateEpoch marks an unparseable date, mirroring `NaN` as the time
// value of an Invalid Date (toISOString etc. report it via isInvalidDate).
const invalidDateEpoch = int64(-1) << 62

func isInvalidDate(d value.Date) bool { return int64(d) == invalidDateEpoch }

func (ev *Evaluator) dateTime(d value.Date) time.Time {
	return time.UnixMilli(int64(d)).UTC()
}

// dispatchDateMethod implements the Date.prototype surface (§6.3). Setters
// return the recomputed epoch (the real spec's contract) but, because
// value.Date is copied by value, they cannot mutate a Date another binding
// already holds — the idiomatic pattern here is `d = new Date(d.setX(...))`.
func (ev *Evaluator) dispatchDateMethod(d value.Date, method string, args []value.Value) (value.Value, bool, error) {
	if isInvalidDate(d) {
		switch method {
		case "toISOString", "toDateString", "toTimeString", "toString", "toJSON", "toLocaleDateString", "toLocaleTimeString", "toLocaleString":
			return value.String("Invalid Date"), true, nil
		case "getTime", "valueOf":
			return value.Float(math.NaN()), true, nil
		}
	}
	t := ev.dateTime(d)
	switch method {
	case "getTime", "valueOf":
		return value.Number(int64(d)), true, nil
	case "getFullYear", "getUTCFullYear":
		return value.Number(t.Year()), true, nil
	case "getMonth", "getUTCMonth":
		return value.Number(int(t.Month()) - 1), true, nil
	case "getDate", "getUTCDate":
		return value.Number(t.Day()), true, nil
	case "getDay", "getUTCDay":
		return value.Number(int(t.Weekday())), true, nil
	case "getHours", "getUTCHours":
		return value.Number(t.Hour()), true, nil
	case "getMinutes", "getUTCMinutes":
		return value.Number(t.Minute()), true, nil
	case "getSeconds", "getUTCSeconds":
		return value.Number(t.Second()), true, nil
	case "getMilliseconds", "getUTCMilliseconds":
		return value.Number(t.Nanosecond() / int(time.Millisecond)), true, nil
	case "getTimezoneOffset":
		return value.Number(0), true, nil
	case "setFullYear":
		return value.Number(setDateField(t, args, 0, 0, 0).UnixMilli()), true, nil
	case "setMonth":
		return value.Number(setDateField(t, args, 1, 0, 0).UnixMilli()), true, nil
	case "setDate":
		return value.Number(setDateField(t, args, 2, 0, 0).UnixMilli()), true, nil
	case "setHours":
		return value.Number(setDateField(t, args, 3, 0, 0).UnixMilli()), true, nil
	case "setMinutes":
		return value.Number(setDateField(t, args, 4, 0, 0).UnixMilli()), true, nil
	case "setSeconds":
		return value.Number(setDateField(t, args, 5, 0, 0).UnixMilli()), true, nil
	case "setMilliseconds":
		return value.Number(setDateField(t, args, 6, 0, 0).UnixMilli()), true, nil
	case "setTime":
		return value.Number(int64(ToFloat64(firstArg(args)))), true, nil
	case "toISOString", "toJSON":
		return value.String(t.Format("2006-01-02T15:04:05.000Z")), true, nil
	case "toDateString":
		return value.String(t.Format("Mon Jan 02 2006")), true, nil
	case "toTimeString":
		return value.String(t.Format("15:04:05 GMT+0000 (Coordinated Universal Time)")), true, nil
	case "toLocaleDateString":
		return value.String(t.Format("1/2/2006")), true, nil
	case "toLocaleTimeString":
		return value.String(t.Format("3:04:05 PM")), true, nil
	case "toLocaleString", "toString":
		return value.String(t.Format("Mon Jan 02 2006 15:04:05 GMT+0000 (Coordinated Universal Time)")), true, nil
	case "toUTCString":
		return value.String(t.Format("Mon, 02 Jan 2006 15:04:05 GMT")), true, nil
	default:
		return nil, false, nil
	}
}

// setDateField rebuilds t with one calendar component (identified by slot:
// 0=year,1=month,2=day,3=hour,4=min,5=sec,6=ms) replaced by args[0], with
// any further args overriding the following components left-to-right —
// mirroring setFullYear(y, m, d) etc's multi-arg form.
func setDateField(t time.Time, args []value.Value, slot int, _ int, _ int) time.Time {
	year, month, day := t.Year(), int(t.Month())-1, t.Day()
	hour, minute, sec, ms := t.Hour(), t.Minute(), t.Second(), t.Nanosecond()/int(time.Millisecond)
	fields := []*int{&year, &month, &day, &hour, &minute, &sec, &ms}
	for i := 0; i < len(args) && slot+i < len(fields); i++ {
		*fields[slot+i] = int(ToFloat64(args[i]))
	}
	return time.Date(year, time.Month(month+1), day, hour, minute, sec, ms*int(time.Millisecond), time.UTC)
}

func dateParseLiteral(s string) value.Value {
	return value.Number(int64(parseDateString(s)))
}

func dateNowValue() value.Value {
	return value.Number(time.Now().UTC().UnixMilli())
}

func formatDateDebug(d value.Date) string {
	return fmt.Sprintf("Date(%s)", strconv.FormatInt(int64(d), 10))
}
