package export

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"text/template"

	"github.com/de-tools/report-assistant/pkg/models/domain"
	"github.com/de-tools/report-assistant/pkg/models/store"
	"github.com/de-tools/report-assistant/pkg/services/filter"
)

type TableConfig struct {
	KeyWidth   int
	ValueWidth int
}

func DefaultTableConfig() TableConfig {
	return TableConfig{
		KeyWidth:   24,
		ValueWidth: 72,
	}
}

type Reporter struct {
	writer io.Writer
	config TableConfig
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{
		writer: writer,
		config: DefaultTableConfig(),
	}
}

func (c *Reporter) funcs() template.FuncMap {
	return template.FuncMap{
		"formatRow": func(key string, value any) string {
			return fmt.Sprintf("| %-*s | %-*v |",
				c.config.KeyWidth, key,
				c.config.ValueWidth, value)
		},
		"separator": func() string {
			return fmt.Sprintf("+%s+%s+",
				strings.Repeat("-", c.config.KeyWidth+2),
				strings.Repeat("-", c.config.ValueWidth+2))
		},
		"quote": func(s string) string {
			return fmt.Sprintf("%q", s)
		},
		"formatCells": formatCells,
		"indent": func(s string) string {
			return strings.ReplaceAll(s, "\n", "\n    ")
		},
	}
}

func (c *Reporter) render(name, tmpl string, data any) error {
	t, err := template.New(name).Funcs(c.funcs()).Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}
	return t.Execute(c.writer, data)
}

const fragmentsTemplate = `{{separator}}
{{formatRow "Fragment" "Value"}}
{{separator}}
{{formatRow "dimension_filter_rev" (quote .Fragments.DimensionRev)}}
{{formatRow "dimension_filter_exp" (quote .Fragments.DimensionExp)}}
{{formatRow "measures_filter_rev" (quote .Fragments.MeasureRev)}}
{{formatRow "measures_filter_exp" (quote .Fragments.MeasureExp)}}
{{separator}}
{{if .Skips}}
Skipped filters:
{{range .Skips}}- {{.Field}}{{if .Side}} ({{.Side}}){{end}}: {{.Reason}}
{{end}}{{end}}`

func (c *Reporter) Fragments(fragments domain.CompiledQueryFragments, skips []filter.Skip) error {
	return c.render("fragments", fragmentsTemplate, struct {
		Fragments domain.CompiledQueryFragments
		Skips     []filter.Skip
	}{fragments, skips})
}

const detectionTemplate = `{{separator}}
{{formatRow "has_report" .HasReport}}
{{if .HasReport}}{{formatRow "filename" .Filename}}
{{formatRow "report_url" .ReportURL}}
{{end}}{{separator}}
{{.Message}}
`

func (c *Reporter) Detection(d domain.ReportDetectionResult) error {
	view := struct {
		HasReport bool
		Filename  string
		ReportURL string
		Message   string
	}{HasReport: d.HasReport, Message: d.Message}
	if d.HasReport {
		view.Filename = *d.Filename
		view.ReportURL = *d.ReportURL
	}
	return c.render("detection", detectionTemplate, view)
}

const messagesTemplate = `{{range .}}[{{.Role}}]{{if .IsError}} (error){{end}} {{indent .Text}}
{{if .Filename}}    file: {{.Filename}} <{{.ReportURL}}>
{{end}}{{range formatCells .Rows}}    {{.}}
{{end}}{{end}}`

// Messages prints a chat transcript.
func (c *Reporter) Messages(messages []domain.Message) error {
	return c.render("messages", messagesTemplate, messages)
}

const historyTemplate = `{{separator}}
{{formatRow "Created" "Report"}}
{{separator}}
{{range .}}{{formatRow (.CreatedAt.Format "2006-01-02 15:04") .Filename}}
{{formatRow "" .ReportURL}}
{{end}}{{separator}}
`

func (c *Reporter) History(records []store.ReportRecord) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(c.writer, "No reports found.")
		return err
	}
	return c.render("history", historyTemplate, records)
}

// formatCells renders each row as "k=v" pairs in key order.
func formatCells(rows []map[string]any) []string {
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		keys := make([]string, 0, len(row))
		for k := range row {
			keys = append(keys, k)
		}
		slices.Sort(keys)

		cells := make([]string, 0, len(keys))
		for _, k := range keys {
			cells = append(cells, fmt.Sprintf("%s=%v", k, row[k]))
		}
		out = append(out, strings.Join(cells, " "))
	}
	return out
}
