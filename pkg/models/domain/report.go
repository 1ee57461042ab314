package domain

// ReportParameters is the snapshot of the parameter form.
type ReportParameters struct {
	BudgetYears          []int
	FundCodes            []string
	DeptIDs              []string
	ReportName           string
	MeasuresRequestedRev []string
	MeasuresRequestedExp []string
}

// BudgetYear returns the first selected year, or 0 when none is set.
func (p ReportParameters) BudgetYear() int {
	if len(p.BudgetYears) == 0 {
		return 0
	}
	return p.BudgetYears[0]
}

// ReportDetectionResult is produced fresh for every backend response.
type ReportDetectionResult struct {
	HasReport bool
	Message   string
	ReportURL *string
	Filename  *string
}

type ResponseKind string

const (
	ResponseEmpty   ResponseKind = "empty"
	ResponseText    ResponseKind = "text"
	ResponseTabular ResponseKind = "tabular"
	ResponseMessage ResponseKind = "message"
	ResponseSession ResponseKind = "session"
)

// BackendResponse is the classified shape of a report or chat response.
// Kind is decided once when the payload is decoded.
type BackendResponse struct {
	Kind      ResponseKind
	Text      string
	Rows      []map[string]any
	Report    string
	Reply     string
	SessionID string
}

// ReportOutcome pairs a detection result with the tabular rows that came
// with it, if any. Rows are not a file-backed report.
type ReportOutcome struct {
	Detection ReportDetectionResult
	Rows      []map[string]any
}

// SignalsReport reports whether the outcome carried a report of either kind.
func (o ReportOutcome) SignalsReport() bool {
	return o.Detection.HasReport || len(o.Rows) > 0
}
