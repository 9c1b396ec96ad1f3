package http

import (
	"context"
	"net/http"
	"time"

	"gestaosocial/internal/core"
	"gestaosocial/internal/state"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady is ready once the backend answers and the initial session
// check has settled.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := map[string]any{}

	if err := s.ping(ctx); err != nil {
		checks["backend"] = "failed: " + err.Error()
		status, code = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["backend"] = "ok"
	}

	auth := s.store.AuthState()
	checks["auth"] = auth.String()
	if auth == state.AuthUnknown {
		status, code = "not_ready", http.StatusServiceUnavailable
	}

	checks["cache"] = map[string]int{
		"dashboard_entries": s.dashCache.Size(),
		"report_entries":    s.reportCache.Size(),
		"csv_entries":       s.csvCache.Size(),
	}
	rl := s.rateLimiter.GetMetrics()
	checks["rate_limiter"] = map[string]int64{
		"active_clients": rl.ClientCount,
		"rejected":       rl.Rejected,
	}
	tm := s.traceMiddleware.GetMetrics()
	checks["requests"] = map[string]int64{
		"total":         tm.TotalRequests,
		"server_errors": tm.ServerErrors,
	}

	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"revision":  s.store.Revision(),
		"checks":    checks,
	})
}

type settingsView struct {
	Theme             string   `json:"theme"`
	Email             string   `json:"email,omitempty"`
	AidTypes          []string `json:"aidTypes"`
	IncomeCategories  []string `json:"incomeCategories"`
	ExpenseCategories []string `json:"expenseCategories"`
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	view := settingsView{
		Theme:             string(s.store.Theme()),
		Email:             s.currentAuth(r).Email,
		IncomeCategories:  core.CategoriesFor(core.Income),
		ExpenseCategories: core.CategoriesFor(core.Expense),
	}
	for _, a := range core.AidTypes() {
		view.AidTypes = append(view.AidTypes, a.Label())
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleToggleTheme(w http.ResponseWriter, r *http.Request) {
	theme := s.store.ToggleTheme()
	writeJSON(w, http.StatusOK, map[string]string{"theme": string(theme)})
}
