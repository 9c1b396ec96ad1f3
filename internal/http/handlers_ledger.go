package http

import (
	"net/http"

	"gestaosocial/internal/core"
	applog "gestaosocial/internal/log"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	typ := core.TransactionType(r.URL.Query().Get("type"))
	if typ != "" && typ != "All" && !typ.IsValid() {
		writeError(w, r, invalid(core.ErrInvalidTxType))
		return
	}
	txs := core.FilterByType(s.store.Transactions(), typ)
	if txs == nil {
		txs = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var draft core.TransactionDraft
	if err := decodeJSON(w, r, &draft); err != nil {
		writeError(w, r, err)
		return
	}
	t, err := core.NewTransaction(draft)
	if err != nil {
		writeError(w, r, invalid(err))
		return
	}
	if err := s.store.AddTransaction(r.Context(), t); err != nil {
		writeError(w, r, err)
		return
	}
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Transaction recorded",
		applog.FieldTxID, t.ID,
		"type", t.Type,
		"amount_cents", t.Amount.Cents)
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.RemoveTransaction(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Transaction removed", applog.FieldTxID, id)
	w.WriteHeader(http.StatusNoContent)
}

type financialView struct {
	Period              string               `json:"period"`
	TotalBalance        core.Money           `json:"totalBalance"`
	TotalBalanceDisplay string               `json:"totalBalanceDisplay"`
	BalanceDisplay      string               `json:"balanceDisplay"`
	Summary             core.PeriodSummary   `json:"summary"`
	Categories   []core.CategoryTotal `json:"categories"`
	Chart        []core.ChartPoint    `json:"chart"`
	Transactions []core.Transaction   `json:"transactions"`
}

// handleFinancial is the ledger page for one month: totals, per-category
// breakdown and the income/expense chart.
func (s *Server) handleFinancial(w http.ResponseWriter, r *http.Request) {
	p, err := parsePeriod(r, s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	txs := s.store.Transactions()
	summary := core.Summarize(txs, p)
	cats := core.CategoryTotals(txs, p)
	if cats == nil {
		cats = []core.CategoryTotal{}
	}
	total := core.TotalBalance(txs)
	writeJSON(w, http.StatusOK, financialView{
		Period:              p.String(),
		TotalBalance:        total,
		TotalBalanceDisplay: total.BRL(),
		BalanceDisplay:      summary.Balance.BRL(),
		Summary:             summary,
		Categories:          cats,
		Chart:               core.CashFlowChart(summary),
		Transactions:        core.InPeriod(txs, p),
	})
}
