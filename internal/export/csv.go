// Package export renders the family roster and the period report as CSV
// files for spreadsheet software.
//
// Files start with a UTF-8 byte-order mark and rows are joined with "\n"
// without a trailing newline, so N records yield N+1 lines. Quoting is
// decided per column: free text is always quoted with embedded quotes
// doubled, while identifiers, enums and counts are written bare.
package export

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"gestaosocial/internal/core"
)

const (
	BOM         = "\ufeff"
	ContentType = "text/csv; charset=utf-8"
)

var ErrNothingToExport = errors.New("nothing to export")

var rosterHeader = []string{
	"ID", "Codigo", "Nome da Familia", "Responsavel", "Status", "Telefone", "WhatsApp",
	"Bairro", "Endereco", "Qtd Membros", "Membro Igreja", "Congregacao", "Necessidade Principal",
}

var reportHeader = []string{
	"Data", "Tipo de Registro", "Categoria/Item", "Descricao", "Valor (R$)", "Destino/Origem", "Responsavel",
}

// Quote wraps s in double quotes, doubling any quote inside it.
func Quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

type table struct {
	b strings.Builder
}

func newTable(header []string) *table {
	t := &table{}
	t.b.WriteString(BOM)
	t.b.WriteString(strings.Join(header, ","))
	return t
}

func (t *table) row(fields ...string) {
	t.b.WriteByte('\n')
	t.b.WriteString(strings.Join(fields, ","))
}

func (t *table) bytes() []byte {
	return []byte(t.b.String())
}

func yesNo(v bool) string {
	if v {
		return "Sim"
	}
	return "Não"
}

// rosterQuoted marks the free-text roster columns.
var rosterQuoted = []bool{false, false, true, true, false, true, true, true, true, false, false, true, true}

// RosterHeader returns the roster column names.
func RosterHeader() []string {
	return slices.Clone(rosterHeader)
}

// RosterFields returns the unquoted roster cells of f in header order.
func RosterFields(f core.Family) []string {
	return []string{
		f.ID,
		f.Code,
		f.Name,
		f.ResponsibleName,
		string(f.Status),
		f.Phone,
		f.WhatsApp,
		f.Neighborhood,
		f.Address,
		strconv.Itoa(len(f.Members)),
		yesNo(f.ChurchMember),
		f.Congregation,
		f.MainNeed,
	}
}

// Roster renders every family, one per row.
func Roster(families []core.Family) ([]byte, error) {
	if len(families) == 0 {
		return nil, ErrNothingToExport
	}
	t := newTable(rosterHeader)
	for _, f := range families {
		fields := RosterFields(f)
		for i, quoted := range rosterQuoted {
			if quoted {
				fields[i] = Quote(fields[i])
			}
		}
		t.row(fields...)
	}
	return t.bytes(), nil
}

// Report renders consolidated report rows. Dates are dd/mm/yyyy and amounts
// use a decimal comma; aid rows leave the amount empty.
func Report(rows []core.ReportRow) []byte {
	t := newTable(reportHeader)
	for _, r := range rows {
		amount := ""
		if r.Amount != nil {
			amount = r.Amount.Comma()
		}
		t.row(
			r.Date.BR(),
			r.Kind,
			Quote(r.Title),
			Quote(r.Description),
			Quote(amount),
			Quote(r.Counterpart),
			Quote(r.Responsible),
		)
	}
	return t.bytes()
}

func RosterFilename(now time.Time) string {
	return fmt.Sprintf("relatorio_familias_%s.csv", now.Format("2006-01-02"))
}

func ReportFilename(p core.Period) string {
	return fmt.Sprintf("relatorio_geral_%d_%d.csv", p.Year, int(p.Month))
}
