package versionfile

import (
	"bytes"
	"strconv"
	"strings"
	"text/template"
	"time"
)

var fileTemplate = template.Must(template.New("version").Parse(`# coding=utf-8
import time
from datetime import date
from propane_distribution import version_class

# Generated from Git tag metadata by 'propane version'. Source distributions
# ship a pre-generated copy of this file.

__version__ = '{{.Version}}'
__date__ = date({{.Year}}, {{.Month}}, {{.Day}})
__time__ = time.gmtime({{.Time}})

version = version_class(__version__, __date__, __time__)
`))

type fileData struct {
	Version string
	Year    int
	Month   int
	Day     int
	Time    string
}

// Git ref names cannot hold backslashes, so only quotes need escaping.
var literalEscaper = strings.NewReplacer(`'`, `\'`)

// render produces the generated file body for version stamped at now.
func render(version string, now time.Time) ([]byte, error) {
	year, month, day := now.Date()
	data := fileData{
		Version: literalEscaper.Replace(version),
		Year:    year,
		Month:   int(month),
		Day:     day,
		Time:    formatEpoch(now),
	}

	var buf bytes.Buffer
	if err := fileTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatEpoch(t time.Time) string {
	seconds := float64(t.UnixMicro()) / 1e6
	return strconv.FormatFloat(seconds, 'f', 6, 64)
}

func parseEpoch(value string) (time.Time, bool) {
	seconds, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return time.Time{}, false
	}
	whole := int64(seconds)
	micros := int64((seconds-float64(whole))*1e6 + 0.5)
	return time.Unix(whole, micros*int64(time.Microsecond)).UTC(), true
}

func unescapeLiteral(value string) string {
	return strings.ReplaceAll(value, `\'`, `'`)
}
