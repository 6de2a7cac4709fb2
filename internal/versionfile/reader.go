package versionfile

import (
	"bufio"
	"errors"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/launchbynttdata/launch-propane/internal/domain/record"
)

var (
	versionLine = regexp.MustCompile(`^__version__ = '((?:[^'\\]|\\'|\\)+)'`)
	dateLine    = regexp.MustCompile(`^__date__ = date\((\d+), (\d+), (\d+)\)`)
	timeLine    = regexp.MustCompile(`^__time__ = time\.gmtime\(([0-9.]+)\)`)
)

// ReadVersion returns the version recorded in the file at path. A missing or
// unreadable file, or one without a version assignment, yields ("", false).
func ReadVersion(path string) (string, bool) {
	fields, ok := scan(path)
	if !ok || !fields.hasVersion {
		return "", false
	}
	return fields.version, true
}

// ReadRecord reconstructs the full record from the file at path. Missing date or
// time literals fall back to the record defaults.
func ReadRecord(path string) (record.Record, bool) {
	fields, ok := scan(path)
	if !ok || !fields.hasVersion {
		return record.Record{}, false
	}

	var opts []record.Option
	if fields.hasDate {
		opts = append(opts, record.WithDate(fields.date))
	}
	if fields.hasTime {
		opts = append(opts, record.WithTime(fields.time))
	}
	return record.New(fields.version, opts...), true
}

type scannedFields struct {
	version    string
	hasVersion bool
	date       record.Date
	hasDate    bool
	time       time.Time
	hasTime    bool
}

func scan(path string) (scannedFields, bool) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return scannedFields{}, false
	}
	defer func() {
		_ = file.Close()
	}()

	var fields scannedFields
	reader := bufio.NewReader(file)
	for {
		line, err := reader.ReadString('\n')
		fields.consume(strings.TrimRight(line, "\r\n"))
		if err != nil {
			if !errors.Is(err, io.EOF) && !fields.hasVersion {
				return scannedFields{}, false
			}
			break
		}
	}
	return fields, true
}

func (f *scannedFields) consume(line string) {
	if !f.hasVersion {
		if match := versionLine.FindStringSubmatch(line); match != nil {
			f.version = unescapeLiteral(match[1])
			f.hasVersion = true
			return
		}
	}
	if !f.hasDate {
		if match := dateLine.FindStringSubmatch(line); match != nil {
			f.date, f.hasDate = parseDate(match[1:])
			return
		}
	}
	if !f.hasTime {
		if match := timeLine.FindStringSubmatch(line); match != nil {
			f.time, f.hasTime = parseEpoch(match[1])
		}
	}
}

func parseDate(parts []string) (record.Date, bool) {
	if len(parts) != 3 {
		return record.Date{}, false
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return record.Date{}, false
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return record.Date{}, false
	}
	day, err := strconv.Atoi(parts[2])
	if err != nil || day < 1 || day > 31 {
		return record.Date{}, false
	}
	return record.Date{Year: year, Month: time.Month(month), Day: day}, true
}
