package report

import (
	"net/url"
	"strings"
)

const DefaultChartFileName = "report_summary.json"

// URLBuilder knows the report storage path scheme.
type URLBuilder struct {
	BaseURL       string
	ChartFileName string
}

func NewURLBuilder(baseURL, chartFileName string) URLBuilder {
	if chartFileName == "" {
		chartFileName = DefaultChartFileName
	}
	return URLBuilder{
		BaseURL:       strings.TrimRight(baseURL, "/"),
		ChartFileName: chartFileName,
	}
}

// ReportURL is <base>/load/outputs/<user>/<session>/<filename>.
func (b URLBuilder) ReportURL(userName, sessionID, filename string) string {
	return b.join("load", "outputs", userName, sessionID, filename)
}

// ChartURL is <base>/charts/outputs/<user>/<session>/<chart file>.
func (b URLBuilder) ChartURL(userName, sessionID string) string {
	name := b.ChartFileName
	if name == "" {
		name = DefaultChartFileName
	}
	return b.join("charts", "outputs", userName, sessionID, name)
}

func (b URLBuilder) join(segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	return strings.TrimRight(b.BaseURL, "/") + "/" + strings.Join(escaped, "/")
}
