/*
Package attendance turns a month of daily attendance marks into day counts.

PURPOSE:
  A timesheet (Record) holds one DayStatus per calendar day for one
  employee and one PayPeriod, plus optional captured overtime minutes.
  The Aggregator reduces it to the counts the payroll engine consumes.

THE WORKED-DAY RULE:
  Exactly two statuses count as worked: Worked and Holiday (paid public
  holiday). Absent, OnLeave, Sick and Suspended do not. Unset days do not.
  CountsAsWorked is the single place this rule lives.

  Leave days are NOT counted here: the payroll engine asks the leave
  ledger how many leave days are charged to the month.

SEE ALSO:
  - record.go: Record, Mark, Lock
  - aggregate.go: Aggregate, Aggregator
  - service.go: timesheet entry operations
*/
package attendance

import (
	"fmt"
	"strings"

	"github.com/warp/payroll-engine/generic"
)

// DayStatus is the attendance mark for one day.
type DayStatus uint8

const (
	StatusUnset DayStatus = iota
	StatusWorked
	StatusAbsent
	StatusOnLeave
	StatusSick
	StatusHoliday
	StatusSuspended
)

// AllStatuses lists every settable status in display order.
var AllStatuses = []DayStatus{
	StatusWorked, StatusAbsent, StatusOnLeave, StatusSick, StatusHoliday, StatusSuspended,
}

var statusNames = map[DayStatus]string{
	StatusUnset:     "unset",
	StatusWorked:    "worked",
	StatusAbsent:    "absent",
	StatusOnLeave:   "leave",
	StatusSick:      "sick",
	StatusHoliday:   "holiday",
	StatusSuspended: "suspended",
}

var statusCodes = map[DayStatus]string{
	StatusUnset:     "",
	StatusWorked:    "W",
	StatusAbsent:    "A",
	StatusOnLeave:   "L",
	StatusSick:      "S",
	StatusHoliday:   "H",
	StatusSuspended: "X",
}

// CountsAsWorked reports whether a day with this status is a paid worked day.
func (s DayStatus) CountsAsWorked() bool {
	return s == StatusWorked || s == StatusHoliday
}

func (s DayStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

// Code is the one-letter timesheet code, "" for unset.
func (s DayStatus) Code() string { return statusCodes[s] }

// ParseDayStatus accepts a name ("worked") or a code ("W"), case-insensitive.
// The empty string parses as StatusUnset.
func ParseDayStatus(s string) (DayStatus, error) {
	v := strings.TrimSpace(s)
	if v == "" {
		return StatusUnset, nil
	}
	for status, name := range statusNames {
		if strings.EqualFold(v, name) || strings.EqualFold(v, statusCodes[status]) {
			return status, nil
		}
	}
	return StatusUnset, generic.NewValidation("status", "unknown day status %q", s)
}

func (s DayStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *DayStatus) UnmarshalText(b []byte) error {
	parsed, err := ParseDayStatus(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
