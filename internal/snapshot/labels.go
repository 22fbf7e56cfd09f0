package snapshot

import "github.com/seenimoa/fairvalue/pkg/models"

// Candidate row labels, tried in order. Providers label the same line item
// differently across companies and vintages.
var (
	freeCashFlowLabels = []string{"Free Cash Flow"}

	operatingCashFlowLabels = []string{
		"Operating Cash Flow",
		"Total Cash From Operating Activities",
		"Cash Flow From Continuing Operating Activities",
	}

	// latestOperatingCashFlowLabels feeds metadata only.
	latestOperatingCashFlowLabels = []string{
		"Operating Cash Flow",
		"Total Cash From Operating Activities",
	}

	capexLabels = []string{
		"Capital Expenditure",
		"Capital Expenditures",
		"Net PPE Purchase And Sale",
	}

	netIncomeLabels = []string{
		"Net Income",
		"Net Income Common Stockholders",
		"Net Income Including Noncontrolling Interests",
	}

	incomeDepreciationLabels = []string{
		"Depreciation & Amortization",
		"Depreciation And Amortization",
		"Depreciation Amortization Depletion",
		"Reconciled Depreciation",
	}

	cashFlowDepreciationLabels = []string{
		"Depreciation & Amortization",
		"Depreciation And Amortization",
		"Depreciation Amortization Depletion",
	}

	revenueLabels = []string{"Total Revenue", "Operating Revenue"}

	sharesLabels = []string{"Ordinary Shares Number", "Preferred Shares", "Preferred Shares Number", "Common Stock"}
)

// RowValues returns a copy of the first row in st matching one of labels.
// When none match it returns one zero per period and false. An empty
// statement yields an empty slice and false.
func RowValues(st *models.Statement, labels []string) ([]float64, bool) {
	if st.Empty() {
		return []float64{}, false
	}
	for _, label := range labels {
		if row, ok := st.Rows[label]; ok {
			out := make([]float64, len(row))
			copy(out, row)
			return out, true
		}
	}
	return make([]float64, st.Columns()), false
}

// LatestValue returns the most recent period's value for the first matching
// label, or 0 and false.
func LatestValue(st *models.Statement, labels []string) (float64, bool) {
	if st.Empty() {
		return 0, false
	}
	for _, label := range labels {
		if row, ok := st.Rows[label]; ok {
			if len(row) == 0 {
				return 0, true
			}
			return row[0], true
		}
	}
	return 0, false
}

// freeCashFlow prefers a reported free-cash-flow row that is not all zeros,
// otherwise derives operating cash flow minus capex per period.
func freeCashFlow(cf *models.Statement) []float64 {
	if cf.Empty() {
		return []float64{}
	}
	if fcf, ok := RowValues(cf, freeCashFlowLabels); ok && anyNonZero(fcf) {
		return fcf
	}
	op, _ := RowValues(cf, operatingCashFlowLabels)
	capex, _ := RowValues(cf, capexLabels)
	n := min(len(op), len(capex))
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = op[i] - capex[i]
	}
	return out
}

// ownerEarnings is net income plus D&A minus capex, aligned over the
// periods both tables share. D&A comes from the income statement when
// present there, else from the cash-flow statement.
func ownerEarnings(income, cf *models.Statement) []float64 {
	if income.Empty() || cf.Empty() {
		return []float64{}
	}
	ni, _ := RowValues(income, netIncomeLabels)
	dep, ok := RowValues(income, incomeDepreciationLabels)
	if !ok {
		dep, _ = RowValues(cf, cashFlowDepreciationLabels)
	}
	capex, _ := RowValues(cf, capexLabels)

	n := min(len(ni), len(dep), len(capex))
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = ni[i] + dep[i] - capex[i]
	}
	return out
}

const nearZero = 1e-9

func anyNonZero(values []float64) bool {
	for _, v := range values {
		if v > nearZero || v < -nearZero {
			return true
		}
	}
	return false
}
