package http

import (
	"net/http"

	"gestaosocial/internal/cache"
	"gestaosocial/internal/core"
	"gestaosocial/internal/export"
	applog "gestaosocial/internal/log"
)

const (
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeJSON = "application/json; charset=utf-8"
)

type dashboardView struct {
	core.DashboardStats
	TotalBalanceDisplay string `json:"totalBalanceDisplay"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	rev := s.store.Revision()
	stats := cache.GetOrCompute[core.DashboardStats](s.dashCache, cache.RevisionKey(rev, "dashboard"), func() core.DashboardStats {
		applog.FromContext(r.Context()).DebugContext(r.Context(), "Dashboard cache miss", applog.FieldRevision, rev)
		return core.Dashboard(s.store.Families(), s.store.Transactions())
	})
	writeJSON(w, http.StatusOK, dashboardView{DashboardStats: stats, TotalBalanceDisplay: stats.TotalBalance.BRL()})
}

// report returns the consolidated report for the request's period and view
// with the revision it is cached under. The revision is read before the
// data, so cached rows are never older than their key.
func (s *Server) report(r *http.Request) (core.Report, uint64, error) {
	p, err := parsePeriod(r, s.now())
	if err != nil {
		return core.Report{}, 0, err
	}
	view, err := core.ParseReportView(r.URL.Query().Get("view"))
	if err != nil {
		return core.Report{}, 0, invalid(err)
	}
	rev := s.store.Revision()
	key := cache.RevisionKey(rev, "report", p.String(), string(view))
	return cache.GetOrCompute[core.Report](s.reportCache, key, func() core.Report {
		return core.ConsolidateReport(s.store.Families(), s.store.Transactions(), p, view)
	}), rev, nil
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	rep, _, err := s.report(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Period string `json:"period"`
		core.Report
	}{Period: rep.Period.String(), Report: rep})
}

func (s *Server) handleExportReport(w http.ResponseWriter, r *http.Request) {
	rep, rev, err := s.report(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	key := cache.RevisionKey(rev, "report.csv", rep.Period.String(), string(rep.View))
	body := cache.GetOrCompute[[]byte](s.csvCache, key, func() []byte {
		return export.Report(rep.Rows)
	})
	writeDownload(w, contentTypeCSV, export.ReportFilename(rep.Period), body)
}

func (s *Server) handleExportFamilies(w http.ResponseWriter, r *http.Request) {
	body, err := export.Roster(s.store.Families())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeDownload(w, contentTypeCSV, export.RosterFilename(s.now()), body)
}

func (s *Server) handleExportBackup(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	body, err := export.BackupJSON(s.store.Families(), s.store.Transactions(), now)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeDownload(w, contentTypeJSON, export.BackupFilename(now), body)
}
