package xlsx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/lorrc/caller-panel/internal/core/domain"
	"github.com/lorrc/caller-panel/internal/core/ports"
)

// column identifies a field of a call-log row.
type column int

const (
	colCallID column = iota
	colCallLogID
	colDirection
	colCallerName
	colCallerNumber
	colCallerEmail
	colCalleeName
	colCalleeNumber
	colCalleeEmail
	colDuration
	colDateTime
	colResult
)

// headerAliases maps normalized header text onto columns. Headers are
// lower-cased with spaces, dashes and underscores removed before lookup.
var headerAliases = map[string]column{
	"callid":          colCallID,
	"id":              colCallID,
	"calllogid":       colCallLogID,
	"logid":           colCallLogID,
	"direction":       colDirection,
	"callername":      colCallerName,
	"fromname":        colCallerName,
	"callernumber":    colCallerNumber,
	"callerphone":     colCallerNumber,
	"from":            colCallerNumber,
	"fromnumber":      colCallerNumber,
	"calleremail":     colCallerEmail,
	"fromemail":       colCallerEmail,
	"calleename":      colCalleeName,
	"toname":          colCalleeName,
	"calleenumber":    colCalleeNumber,
	"calleephone":     colCalleeNumber,
	"to":              colCalleeNumber,
	"tonumber":        colCalleeNumber,
	"calleeemail":     colCalleeEmail,
	"toemail":         colCalleeEmail,
	"duration":        colDuration,
	"durationseconds": colDuration,
	"durations":       colDuration,
	"datetime":        colDateTime,
	"date":            colDateTime,
	"starttime":       colDateTime,
	"result":          colResult,
	"status":          colResult,
}

// ErrNoIDColumn is returned when the header row names no call identifier.
var ErrNoIDColumn = errors.New("no call id column in header row")

// CallLogImporter reads call-log spreadsheets exported from the telephony
// admin console. Only the first sheet is read and its first row must be the
// header.
type CallLogImporter struct {
	logger *slog.Logger
}

var _ ports.CallLogImporter = (*CallLogImporter)(nil)

func NewCallLogImporter(logger *slog.Logger) *CallLogImporter {
	return &CallLogImporter{logger: logger.With("component", "xlsx_importer")}
}

// Import parses the workbook in r into raw call records. Rows without any
// value are skipped; every other row becomes a record, including rows
// without an id, which the call log later drops as invalid.
func (i *CallLogImporter) Import(ctx context.Context, r io.Reader) ([]domain.RawCallRecord, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, errors.New("sheet is empty")
	}

	index := mapHeader(rows[0])
	if _, ok := index[colCallID]; !ok {
		if _, ok := index[colCallLogID]; !ok {
			return nil, ErrNoIDColumn
		}
	}

	records := make([]domain.RawCallRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if isBlank(row) {
			continue
		}
		records = append(records, toRecord(row, index))
	}

	i.logger.Debug("call log imported", "sheet", sheets[0], "rows", len(rows)-1, "records", len(records))
	return records, nil
}

func normalizeHeader(h string) string {
	return strings.NewReplacer(" ", "", "_", "", "-", "", "(", "", ")", "").Replace(strings.ToLower(strings.TrimSpace(h)))
}

// mapHeader returns the position of each recognised column. The first
// occurrence of a column wins.
func mapHeader(header []string) map[column]int {
	index := make(map[column]int)
	for pos, h := range header {
		col, ok := headerAliases[normalizeHeader(h)]
		if !ok {
			continue
		}
		if _, seen := index[col]; !seen {
			index[col] = pos
		}
	}
	return index
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func toRecord(row []string, index map[column]int) domain.RawCallRecord {
	cell := func(c column) string {
		pos, ok := index[c]
		if !ok || pos >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[pos])
	}

	return domain.RawCallRecord{
		CallID:    domain.FlexString(cell(colCallID)),
		CallLogID: domain.FlexString(cell(colCallLogID)),
		Direction: strings.ToLower(cell(colDirection)),
		Caller:    party(cell(colCallerName), cell(colCallerNumber), cell(colCallerEmail)),
		Callee:    party(cell(colCalleeName), cell(colCalleeNumber), cell(colCalleeEmail)),
		Duration:  domain.ParseSeconds(cell(colDuration)),
		DateTime:  cell(colDateTime),
		Result:    cell(colResult),
	}
}

// party returns nil when the row carries nothing about that side.
func party(name, number, email string) *domain.Party {
	if name == "" && number == "" && email == "" {
		return nil
	}
	return &domain.Party{Name: name, Number: number, Email: email}
}
