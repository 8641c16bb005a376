package apt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/go-logr/logr"
)

const (
	keyPackage      = "Package"
	keyVersion      = "Version"
	keyArchitecture = "Architecture"
	keyFilename     = "Filename"
)

// maxLineSize guards against indices with absurdly long lines.
const maxLineSize = 1024 * 1024

// ParseRecords reads a Packages index and returns one Record per
// stanza. Stanzas are separated by blank lines; a line starting with
// whitespace continues the previous field. A stanza missing Package or
// Version is dropped with a warning rather than failing the whole
// source.
func ParseRecords(ctx context.Context, r io.Reader) ([]Record, error) {
	log := logr.FromContextOrDiscard(ctx)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	var (
		out     []Record
		fields  map[string]string
		lastKey string
		stanza  int
	)
	flush := func() {
		if fields == nil {
			return
		}
		stanza++
		rec, ok := newRecord(fields)
		if !ok {
			log.V(1).Info("dropping stanza missing Package or Version", "stanza", stanza)
		} else {
			out = append(out, rec)
		}
		fields = nil
		lastKey = ""
	}

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		if line[0] == ' ' || line[0] == '\t' {
			// continuation of the previous field
			if lastKey == "" {
				log.V(1).Info("ignoring continuation line outside a field", "line", line)
				continue
			}
			fields[lastKey] += "\n" + strings.TrimSpace(line)
			continue
		}
		key, value, found := strings.Cut(line, ":")
		if !found {
			log.V(1).Info("ignoring malformed line", "line", line)
			continue
		}
		if fields == nil {
			fields = map[string]string{}
		}
		lastKey = key
		fields[key] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading index: %w", err)
	}
	flush()

	return out, nil
}

// newRecord lifts the four well-known keys out of the stanza and keeps
// the remainder as-is. Package and Version are mandatory.
func newRecord(fields map[string]string) (Record, bool) {
	if fields[keyPackage] == "" || fields[keyVersion] == "" {
		return Record{}, false
	}
	rec := Record{
		Package:      fields[keyPackage],
		Version:      fields[keyVersion],
		Architecture: fields[keyArchitecture],
		Filename:     fields[keyFilename],
		Fields:       map[string]string{},
	}
	for k, v := range fields {
		switch k {
		case keyPackage, keyVersion, keyArchitecture, keyFilename:
		default:
			rec.Fields[k] = v
		}
	}
	return rec, true
}
