package core

import "sort"

// AidCount is one bar of the aid histogram.
type AidCount struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
	Color string `json:"fill"`
}

// histogramSeed lists the aid types always present in the histogram, even
// with a zero count. Other only appears when recorded.
var histogramSeed = []AidType{AidFoodBasket, AidClothes, AidMedicine, AidGas, AidFinancial, AidSpiritual}

// AidHistogram counts Aid history records across all families by title.
// Known aid types keep their color; custom titles use the Other color. The
// result is sorted by count, descending, ties keeping seed then first-seen
// order.
func AidHistogram(families []Family) []AidCount {
	index := make(map[string]int, len(histogramSeed))
	out := make([]AidCount, 0, len(histogramSeed))
	for _, a := range histogramSeed {
		index[a.Label()] = len(out)
		out = append(out, AidCount{Name: a.Label(), Color: a.Color()})
	}

	for _, f := range families {
		for _, r := range f.History {
			if r.Type != HistoryAid {
				continue
			}
			i, ok := index[r.Title]
			if !ok {
				i = len(out)
				index[r.Title] = i
				out = append(out, AidCount{Name: r.Title, Color: AidType(r.Title).Color()})
			}
			out[i].Value++
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Value > out[j].Value })
	return out
}

// DashboardStats is the overview shown after login.
type DashboardStats struct {
	TotalFamilies    int        `json:"totalFamilies"`
	CriticalFamilies int        `json:"criticalFamilies"`
	TotalBalance     Money      `json:"totalBalance"`
	MonthlyAid       []AidCount `json:"monthlyAid"`
}

func Dashboard(families []Family, txs []Transaction) DashboardStats {
	stats := DashboardStats{
		TotalFamilies: len(families),
		TotalBalance:  TotalBalance(txs),
		MonthlyAid:    AidHistogram(families),
	}
	for _, f := range families {
		if f.Status == StatusCritical {
			stats.CriticalFamilies++
		}
	}
	return stats
}
