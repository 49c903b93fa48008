package dataset

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"jit-rca/internal/records"
	"jit-rca/internal/timeofday"

	"github.com/rs/zerolog/log"
)

const maxLineBytes = 4 * 1024 * 1024

// aliases maps planning-system export headers (lower-cased) to canonical column names.
var aliases = map[string]string{
	"date_dos":        records.ColDate,
	"cnr_tour":        records.ColRouteID,
	"cnr_cust":        records.ColCustomerID,
	"rfx activity":    records.ColActivityCode,
	"nm_short_unload": records.ColStopName,
	"win from":        records.ColWindowFrom,
	"win until":       records.ColWindowUntil,
	"planned":         records.ColPlannedArrival,
	"actual":          records.ColActualArrival,
	"p_depart":        records.ColPlannedDeparture,
	"a_depart":        records.ColActualDeparture,
	"durationp":       records.ColPlannedDuration,
	"durationa":       records.ColActualDuration,
	"duration_a":      records.ColActualDuration,
}

// CanonicalColumn maps a source header to its canonical column name. Unknown headers are
// returned trimmed and lower-cased.
func CanonicalColumn(header string) string {
	h := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(header, "\ufeff")))
	if c, ok := aliases[h]; ok {
		return c
	}
	return h
}

// ImportFile reads a CSV or JSONL file, chosen by extension.
func ImportFile(path string) ([]records.OrderRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return ReadCSV(f)
	case ".jsonl", ".ndjson":
		return ReadJSONL(f)
	default:
		return nil, fmt.Errorf("unsupported file type %q (want .csv or .jsonl)", filepath.Ext(path))
	}
}

// ReadCSV parses a delimited export with a header row. Comma and semicolon delimiters are
// detected from the header line. Missing required columns yield a *records.ValidationError.
func ReadCSV(r io.Reader) ([]records.OrderRecord, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(4096)
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		head = head[:i]
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	if bytes.Count(head, []byte{';'}) > bytes.Count(head, []byte{','}) {
		cr.Comma = ';'
	}

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, records.ValidateColumns(nil)
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = CanonicalColumn(h)
	}
	if err := records.ValidateColumns(columns); err != nil {
		return nil, err
	}

	var out []records.OrderRecord
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		values := make(map[string]string, len(columns))
		for i, c := range columns {
			if i < len(row) {
				values[c] = row[i]
			}
		}
		out = append(out, fromValues(values))
	}

	log.Debug().Int("records", len(out)).Msg("CSV parsed")
	return out, nil
}

// ReadJSONL parses one JSON object per line. Keys are canonicalized like CSV headers and the
// union of keys over all lines must cover the required columns.
func ReadJSONL(r io.Reader) ([]records.OrderRecord, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	seen := make(map[string]bool)
	var rows []map[string]string
	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}

		var raw map[string]any
		if err := json.Unmarshal(text, &raw); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		values := make(map[string]string, len(raw))
		for k, v := range raw {
			c := CanonicalColumn(k)
			seen[c] = true
			values[c] = stringify(v)
		}
		rows = append(rows, values)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading JSONL: %w", err)
	}

	columns := make([]string, 0, len(seen))
	for c := range seen {
		columns = append(columns, c)
	}
	if err := records.ValidateColumns(columns); err != nil {
		return nil, err
	}

	out := make([]records.OrderRecord, 0, len(rows))
	for _, v := range rows {
		out = append(out, fromValues(v))
	}
	return out, nil
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		b, _ := json.Marshal(x)
		return string(b)
	}
}

func fromValues(v map[string]string) records.OrderRecord {
	return records.OrderRecord{
		Date:             strings.TrimSpace(v[records.ColDate]),
		RouteID:          strings.TrimSpace(v[records.ColRouteID]),
		CustomerID:       strings.TrimSpace(v[records.ColCustomerID]),
		ActivityCode:     strings.TrimSpace(v[records.ColActivityCode]),
		StopName:         strings.TrimSpace(v[records.ColStopName]),
		WindowFrom:       strings.TrimSpace(v[records.ColWindowFrom]),
		WindowUntil:      strings.TrimSpace(v[records.ColWindowUntil]),
		PlannedArrival:   strings.TrimSpace(v[records.ColPlannedArrival]),
		ActualArrival:    strings.TrimSpace(v[records.ColActualArrival]),
		PlannedDeparture: strings.TrimSpace(v[records.ColPlannedDeparture]),
		ActualDeparture:  strings.TrimSpace(v[records.ColActualDeparture]),
		PlannedDuration:  parseMinutes(v[records.ColPlannedDuration]),
		ActualDuration:   parseMinutes(v[records.ColActualDuration]),
		Reason:           strings.TrimSpace(v[records.ColReason]),
	}
}

// parseMinutes reads a numeric duration. Blanks, sentinels and garbage become nil;
// a decimal comma is accepted.
func parseMinutes(s string) *float64 {
	if timeofday.IsBlank(s) {
		return nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
