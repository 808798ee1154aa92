// Package ingest adapts external booking sources into batches for the
// reservation reconciler: platform CSV exports uploaded by staff and the
// iCal feeds configured on each cabin.  It also renders the per-cabin iCal
// export consumed by the platforms.
package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/iliyamo/cabin-booking/internal/booking"
)

// MaxCSVBytes bounds an uploaded export.
const MaxCSVBytes = 10 << 20

// ErrMissingColumns is returned when the header lacks a required column.
var ErrMissingColumns = errors.New("csv header is missing required columns")

type column int

const (
	colStatus column = iota
	colGuest
	colCheckIn
	colCheckOut
	colUnit
	colCode
	colContact
	colEarnings
)

// headerAliases lists the header titles of each column.  Exports come in
// Portuguese or English depending on the host account, sometimes with
// the accents stripped.
var headerAliases = map[column][]string{
	colStatus:   {"status"},
	colGuest:    {"nome do hóspede", "nome do hospede", "guest name", "guest"},
	colCheckIn:  {"data de início", "data de inicio", "data de check-in", "start date", "check-in"},
	colCheckOut: {"data de término", "data de termino", "data de check-out", "end date", "checkout", "check-out"},
	colUnit:     {"anúncio", "anuncio", "listing"},
	colCode:     {"código de confirmação", "codigo de confirmacao", "confirmation code"},
	colContact:  {"entrar em contato", "contact"},
	colEarnings: {"ganhos", "ganhos brutos", "earnings"},
}

var headerColumns = func() map[string]column {
	m := make(map[string]column)
	for c, names := range headerAliases {
		for _, n := range names {
			m[n] = c
		}
	}
	return m
}()

var dateLayouts = []string{"02/01/2006", "2/1/2006", time.DateOnly}

// ParseCSV reads a platform reservations export into a CSV batch.  The
// input may be UTF-8 (with or without BOM) or Windows-1252.  Rows with
// unreadable dates are counted in Batch.Malformed rather than failing the
// upload.
func ParseCSV(r io.Reader) (booking.Batch, error) {
	const op = "ingest.ParseCSV"
	batch := booking.Batch{Source: booking.SourceCSV}

	raw, err := io.ReadAll(io.LimitReader(r, MaxCSVBytes+1))
	if err != nil {
		return batch, fmt.Errorf("%s: %w", op, err)
	}
	if len(raw) > MaxCSVBytes {
		return batch, fmt.Errorf("%s: export larger than %d bytes", op, MaxCSVBytes)
	}
	text, err := decodeText(raw)
	if err != nil {
		return batch, fmt.Errorf("%s: %w", op, err)
	}

	cr := csv.NewReader(strings.NewReader(text))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	cr.Comma = sniffComma(text)

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return batch, fmt.Errorf("%s: empty export", op)
		}
		return batch, fmt.Errorf("%s: %w", op, err)
	}
	idx := indexHeader(header)
	for _, c := range []column{colCheckIn, colCheckOut, colUnit} {
		if _, ok := idx[c]; !ok {
			return batch, fmt.Errorf("%s: %w", op, ErrMissingColumns)
		}
	}

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			batch.Malformed++
			continue
		}
		if blankRecord(rec) {
			continue
		}
		get := func(c column) string {
			i, ok := idx[c]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		in, errIn := parseDate(get(colCheckIn))
		out, errOut := parseDate(get(colCheckOut))
		if errIn != nil || errOut != nil {
			batch.Malformed++
			continue
		}
		batch.Events = append(batch.Events, booking.ExternalEvent{
			GuestName:    get(colGuest),
			Phone:        get(colContact),
			CheckIn:      in,
			CheckOut:     out,
			UnitRef:      get(colUnit),
			ExternalCode: get(colCode),
			Earnings:     get(colEarnings),
			RawStatus:    get(colStatus),
		})
	}
	return batch, nil
}

func decodeText(raw []byte) (string, error) {
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	if utf8.Valid(raw) {
		return string(raw), nil
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// sniffComma picks ';' when the header line uses it, as spreadsheet
// exports in pt-BR locales do.
func sniffComma(text string) rune {
	line, _, _ := strings.Cut(text, "\n")
	if strings.Count(line, ";") > strings.Count(line, ",") {
		return ';'
	}
	return ','
}

func indexHeader(header []string) map[column]int {
	idx := make(map[column]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.Trim(h, "\"")))
		if c, ok := headerColumns[key]; ok {
			if _, seen := idx[c]; !seen {
				idx[c] = i
			}
		}
	}
	return idx
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

func blankRecord(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
