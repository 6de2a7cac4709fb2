package record

import (
	"fmt"
	"time"
)

// Date is a calendar date without a time-of-day component.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	year, month, day := t.Date()
	return Date{Year: year, Month: month, Day: day}
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool {
	return d == Date{}
}

// Record is an immutable version value stamped with the date and time it was derived.
// Its textual form is always the version string.
type Record struct {
	version string
	date    Date
	time    time.Time
}

// Option customizes a Record at construction.
type Option func(*Record)

// WithDate overrides the record date.
func WithDate(d Date) Option {
	return func(r *Record) {
		r.date = d
	}
}

// WithTime overrides the record timestamp.
func WithTime(t time.Time) Option {
	return func(r *Record) {
		r.time = t
	}
}

// New builds a Record. The timestamp defaults to now (UTC) and the date defaults to
// the calendar date of the timestamp.
func New(version string, opts ...Option) Record {
	r := Record{version: version}
	for _, opt := range opts {
		opt(&r)
	}
	if r.time.IsZero() {
		r.time = time.Now().UTC()
	}
	if r.date.IsZero() {
		r.date = DateOf(r.time)
	}
	return r
}

// Version returns the version string.
func (r Record) Version() string {
	return r.version
}

// Date returns the calendar date the version was derived on.
func (r Record) Date() Date {
	return r.date
}

// Time returns the timestamp the version was derived at.
func (r Record) Time() time.Time {
	return r.time
}

func (r Record) String() string {
	return r.version
}

// GoString keeps %#v output identical to %v.
func (r Record) GoString() string {
	return r.version
}

// MarshalText implements encoding.TextMarshaler.
func (r Record) MarshalText() ([]byte, error) {
	return []byte(r.version), nil
}
