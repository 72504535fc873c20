package usecase

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/xuri/excelize/v2"
)

var errEmptyDate = errors.New("date value is empty")

// maxExcelSerial is 9999-12-31 in the 1900 date system.
const maxExcelSerial = 2958465

// ParseDate reads a date cell. Plain numbers within the spreadsheet serial
// range are taken as serial dates; anything else goes through the layout
// guesser. Values without a zone are read in loc.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return time.Time{}, errEmptyDate
	}
	if loc == nil {
		loc = time.UTC
	}

	if serial, err := strconv.ParseFloat(v, 64); err == nil && serial > 0 && serial <= maxExcelSerial {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, err
		}
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc), nil
	}

	return dateparse.ParseIn(v, loc)
}
