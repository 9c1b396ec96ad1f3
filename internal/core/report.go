package core

import (
	"fmt"
	"sort"
)

type ReportView string

const (
	ReportAll       ReportView = "all"
	ReportAid       ReportView = "aid"
	ReportFinancial ReportView = "financial"
)

const (
	LabelDonation = "Doação"
	LabelIncome   = "Entrada"
	LabelExpense  = "Saída"

	CounterpartIncome  = "Igreja (Receita)"
	CounterpartExpense = "Despesa Social"
)

// ReportRow is one line of the consolidated period report. Amount is nil for
// aid rows.
type ReportRow struct {
	ID          string `json:"id"`
	Date        Date   `json:"date"`
	Kind        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Counterpart string `json:"target"`
	Responsible string `json:"responsible"`
	Amount      *Money `json:"amount"`
	FamilyID    string `json:"familyId,omitempty"`
}

// Report bundles the consolidated rows with the period's cash summary.
type Report struct {
	Period  Period        `json:"-"`
	View    ReportView    `json:"view"`
	Summary PeriodSummary `json:"summary"`
	Rows    []ReportRow   `json:"rows"`
}

func ParseReportView(s string) (ReportView, error) {
	switch v := ReportView(s); v {
	case "":
		return ReportAll, nil
	case ReportAll, ReportAid, ReportFinancial:
		return v, nil
	}
	return "", fmt.Errorf("invalid report view %q", s)
}

// AidRecords returns every Aid history record dated within p, tagged with
// its family.
func AidRecords(families []Family, p Period) []ReportRow {
	var out []ReportRow
	for _, f := range families {
		for _, r := range f.History {
			if r.Type != HistoryAid || !p.Contains(r.Date) {
				continue
			}
			out = append(out, ReportRow{
				ID:          r.ID,
				Date:        r.Date,
				Kind:        LabelDonation,
				Title:       r.Title,
				Description: r.Description,
				Counterpart: f.Name,
				Responsible: r.Responsible,
				FamilyID:    f.ID,
			})
		}
	}
	return out
}

func transactionRow(t Transaction) ReportRow {
	amount := t.Amount
	row := ReportRow{
		ID:          t.ID,
		Date:        t.Date,
		Kind:        LabelIncome,
		Title:       t.Category,
		Description: t.Description,
		Counterpart: CounterpartIncome,
		Responsible: t.Responsible,
		Amount:      &amount,
	}
	if t.Type == Expense {
		row.Kind = LabelExpense
		row.Counterpart = CounterpartExpense
	}
	return row
}

// ConsolidateReport merges aid records and ledger entries for the period,
// newest first. Rows with the same date keep aid-before-financial order.
func ConsolidateReport(families []Family, txs []Transaction, p Period, view ReportView) Report {
	rep := Report{Period: p, View: view, Summary: Summarize(txs, p), Rows: []ReportRow{}}
	if view == ReportAll || view == ReportAid {
		rep.Rows = append(rep.Rows, AidRecords(families, p)...)
	}
	if view == ReportAll || view == ReportFinancial {
		for _, t := range InPeriod(txs, p) {
			rep.Rows = append(rep.Rows, transactionRow(t))
		}
	}
	sort.SliceStable(rep.Rows, func(i, j int) bool {
		return rep.Rows[i].Date.After(rep.Rows[j].Date.Time)
	})
	return rep
}
