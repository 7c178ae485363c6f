package verify

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"heritage/internal/audit"
	"heritage/internal/protocol/models"
	dErrors "heritage/pkg/domain-errors"
	"heritage/pkg/seed"
)

// entriesPerPage bounds one printed page of the ledger table.
const entriesPerPage = 25

// PrintableLedger is the physical-retention rendering: its own header,
// footer, and pagination metadata, structurally separate from the on-screen
// view. Entries run in chronological append order, the source of truth for
// causality, rather than the screen's newest-first convention.
type PrintableLedger struct {
	RecordID    string
	Seed        string
	GeneratedAt time.Time
	Statement   string
	Pages       []LedgerPage
	TotalPages  int
}

// LedgerPage is one printed page of audit rows.
type LedgerPage struct {
	Number  int
	Entries []audit.Entry
}

var printableTemplate = template.Must(template.New("ledger").Funcs(template.FuncMap{
	"pad": func(width int, s string) string {
		if len(s) > width {
			return s[:width]
		}
		return s + strings.Repeat(" ", width-len(s))
	},
	"stamp": func(t time.Time) string { return t.UTC().Format("2006-01-02 15:04:05Z") },
}).Parse(`==============================================================================
                     SUCCESSION PROTOCOL - CUSTODY LEDGER
==============================================================================
Record:      {{.RecordID}}
Seed:        {{.Seed}}
Generated:   {{stamp .GeneratedAt}}
Status:      {{.Statement}}
------------------------------------------------------------------------------
{{range .Pages}}{{$page := .}}{{pad 21 "TIMESTAMP"}} {{pad 30 "ACTION"}} {{pad 34 "DETAILS"}} {{pad 8 "ACTOR"}} ORIGIN
{{range .Entries}}{{pad 21 (stamp .Time)}} {{pad 30 (printf "%s" .Action)}} {{pad 34 .Details}} {{pad 8 .Actor}} {{.Origin}}
{{end}}                                                       -- page {{$page.Number}} of {{$.TotalPages}} --
{{end}}------------------------------------------------------------------------------
This ledger is append-only. Entries are never edited or removed. Retain this
document with the physical designation bearing the seed above.
==============================================================================
`))

// BuildPrintableLedger assembles the physical-retention document model.
func BuildPrintableLedger(record models.SuccessionRecord, ledger []audit.Entry, generatedAt time.Time) PrintableLedger {
	// The ledger arrives newest-first from the store; print order is
	// chronological.
	chrono := make([]audit.Entry, len(ledger))
	for i, entry := range ledger {
		chrono[len(ledger)-1-i] = entry
	}

	var pages []LedgerPage
	for start := 0; start < len(chrono); start += entriesPerPage {
		end := min(start+entriesPerPage, len(chrono))
		pages = append(pages, LedgerPage{Number: len(pages) + 1, Entries: chrono[start:end]})
	}
	if len(pages) == 0 {
		pages = []LedgerPage{{Number: 1}}
	}

	return PrintableLedger{
		RecordID:    record.ID.String(),
		Seed:        seed.Format(record.Data.ProtocolSeed),
		GeneratedAt: generatedAt,
		Statement:   statement(record),
		Pages:       pages,
		TotalPages:  len(pages),
	}
}

// RenderPrintable produces the plain-text document.
func RenderPrintable(record models.SuccessionRecord, ledger []audit.Entry, generatedAt time.Time) (string, error) {
	doc := BuildPrintableLedger(record, ledger, generatedAt)
	var buf bytes.Buffer
	if err := printableTemplate.Execute(&buf, doc); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("render ledger for %s", doc.RecordID))
	}
	return buf.String(), nil
}
