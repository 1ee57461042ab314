package report

import (
	"testing"

	"github.com/de-tools/report-assistant/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const base = "https://reports.example.com"

func newTestClassifier() *Classifier {
	return NewClassifier(NewURLBuilder(base+"/", ""))
}

func TestClassifier_Classify(t *testing.T) {
	loc := Location{UserName: "alice", SessionID: "s1"}

	tests := []struct {
		name         string
		resp         domain.BackendResponse
		wantReport   bool
		wantMessage  string
		wantURL      string
		wantFilename string
	}{
		{
			name:        "text_for_output rows",
			resp:        domain.BackendResponse{Kind: domain.ResponseTabular, Rows: []map[string]any{{"text_for_output": "Hello"}}},
			wantMessage: "Hello",
		},
		{
			name: "text_for_output joined and trimmed",
			resp: domain.BackendResponse{Kind: domain.ResponseTabular, Rows: []map[string]any{
				{"text_for_output": "  first"},
				{"amount": 1},
				{"text_for_output": "second \n"},
			}},
			wantMessage: "first\nsecond",
		},
		{
			name:        "plain rows synthesize a count",
			resp:        domain.BackendResponse{Kind: domain.ResponseTabular, Rows: []map[string]any{{"amount": 5}, {"amount": 7}}},
			wantMessage: "Data retrieved successfully. Showing 2 records.",
		},
		{
			name:        "single row count is singular",
			resp:        domain.BackendResponse{Kind: domain.ResponseTabular, Rows: []map[string]any{{"amount": 5}}},
			wantMessage: "Data retrieved successfully. Showing 1 record.",
		},
		{
			name:         "reply with csv and placeholder json",
			resp:         domain.BackendResponse{Kind: domain.ResponseMessage, Reply: "Done.\nCSV: /out/dept.csv\nJSON: 0"},
			wantReport:   true,
			wantMessage:  "Done.\nCSV: /out/dept.csv\nJSON: 0",
			wantURL:      base + "/load/outputs/alice/s1/dept.csv",
			wantFilename: "dept.csv",
		},
		{
			name:         "csv preferred over earlier paths",
			resp:         domain.BackendResponse{Kind: domain.ResponseMessage, Report: "📂 Files saved:\nJSON: /out/a.json\nExcel: /out/a.xlsx\nCSV: /out/a.csv"},
			wantReport:   true,
			wantMessage:  "📂 Files saved:\nJSON: /out/a.json\nExcel: /out/a.xlsx\nCSV: /out/a.csv",
			wantURL:      base + "/load/outputs/alice/s1/a.csv",
			wantFilename: "a.csv",
		},
		{
			name:         "first path when no csv",
			resp:         domain.BackendResponse{Kind: domain.ResponseText, Text: "SQL Output:\nCSV: None\nExcel: C:\\out\\b.xlsx\nXML: /out/b.xml"},
			wantReport:   true,
			wantMessage:  "SQL Output:\nCSV: None\nExcel: C:\\out\\b.xlsx\nXML: /out/b.xml",
			wantURL:      base + "/load/outputs/alice/s1/b.xlsx",
			wantFilename: "b.xlsx",
		},
		{
			name:        "markers but only placeholders",
			resp:        domain.BackendResponse{Kind: domain.ResponseMessage, Reply: "CSV: None\nJSON: 0"},
			wantMessage: "CSV: None\nJSON: 0",
		},
		{
			name:        "report takes priority over reply",
			resp:        domain.BackendResponse{Kind: domain.ResponseMessage, Report: "from report", Reply: "from reply"},
			wantMessage: "from report",
		},
		{
			name:        "no markers",
			resp:        domain.BackendResponse{Kind: domain.ResponseMessage, Reply: "Here is your answer."},
			wantMessage: "Here is your answer.",
		},
		{
			name:        "sentinel is classified as plain text",
			resp:        domain.BackendResponse{Kind: domain.ResponseMessage, Reply: UserIDPrompt},
			wantMessage: UserIDPrompt,
		},
		{
			name: "session only",
			resp: domain.BackendResponse{Kind: domain.ResponseSession, SessionID: "abc"},
		},
	}

	c := newTestClassifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.resp, loc)

			assert.Equal(t, tt.wantReport, got.HasReport)
			assert.Equal(t, tt.wantMessage, got.Message)
			if !tt.wantReport {
				assert.Nil(t, got.ReportURL)
				assert.Nil(t, got.Filename)
				return
			}
			require.NotNil(t, got.ReportURL)
			require.NotNil(t, got.Filename)
			assert.Equal(t, tt.wantURL, *got.ReportURL)
			assert.Equal(t, tt.wantFilename, *got.Filename)
		})
	}
}

func TestClassifier_Outcome_KeepsRows(t *testing.T) {
	rows := []map[string]any{{"amount": 5}}
	out := newTestClassifier().Outcome(domain.BackendResponse{Kind: domain.ResponseTabular, Rows: rows}, Location{})

	assert.Equal(t, rows, out.Rows)
	assert.False(t, out.Detection.HasReport)
	assert.True(t, out.SignalsReport())
}

func TestExtractPaths(t *testing.T) {
	paths := ExtractPaths("Chart: /out/c.png\nCSV:   /out/x.csv  \nJSON: None\nXML:\n")
	assert.Equal(t, []string{"/out/c.png", "/out/x.csv"}, paths)
}

func TestIsSuppressed(t *testing.T) {
	assert.True(t, IsSuppressed("  "+UserIDPrompt+"\n"))
	assert.False(t, IsSuppressed("Please enter your user ID"))
}

func TestURLBuilder_ChartURL(t *testing.T) {
	b := NewURLBuilder(base, "")
	assert.Equal(t, base+"/charts/outputs/alice/s1/report_summary.json", b.ChartURL("alice", "s1"))
}
