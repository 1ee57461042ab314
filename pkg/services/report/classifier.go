package report

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/de-tools/report-assistant/pkg/models/domain"
)

// UserIDPrompt is a backend artifact that must never be shown as a bot message.
const UserIDPrompt = "Please enter your user ID (default: Guest):"

var reportMarkers = []string{
	"📂 Files saved:",
	"📂 Hierarchical Files:",
	"SQL Output:",
	"CSV:",
	"JSON:",
	"Excel:",
	"XML:",
}

var outputPathPattern = regexp.MustCompile(`(CSV|JSON|Excel|XML|Chart):[ \t]*([^\r\n]*)`)

// Location identifies whose report storage a result points into.
type Location struct {
	UserName  string
	SessionID string
}

type Classifier struct {
	urls URLBuilder
}

func NewClassifier(urls URLBuilder) *Classifier {
	return &Classifier{urls: urls}
}

// Classify decides whether resp references saved report files and resolves
// the message to show.
func (c *Classifier) Classify(resp domain.BackendResponse, loc Location) domain.ReportDetectionResult {
	return c.ClassifyMessage(ResolveMessage(resp), loc)
}

// Outcome classifies resp and keeps its tabular rows alongside.
func (c *Classifier) Outcome(resp domain.BackendResponse, loc Location) domain.ReportOutcome {
	outcome := domain.ReportOutcome{Detection: c.Classify(resp, loc)}
	if resp.Kind == domain.ResponseTabular {
		outcome.Rows = resp.Rows
	}
	return outcome
}

// ClassifyMessage runs the file detection on an already resolved message.
func (c *Classifier) ClassifyMessage(message string, loc Location) domain.ReportDetectionResult {
	plain := domain.ReportDetectionResult{Message: message}
	if message == "" || !hasMarker(message) {
		return plain
	}

	path, ok := pickPath(ExtractPaths(message))
	if !ok {
		return plain
	}

	filename := lastSegment(path)
	url := c.urls.ReportURL(loc.UserName, loc.SessionID, filename)
	return domain.ReportDetectionResult{
		HasReport: true,
		Message:   message,
		ReportURL: &url,
		Filename:  &filename,
	}
}

// ResolveMessage picks the text of a response: the legacy plain string,
// text_for_output of tabular rows, a synthesized row count, then report,
// then reply.
func ResolveMessage(resp domain.BackendResponse) string {
	switch resp.Kind {
	case domain.ResponseText:
		return resp.Text
	case domain.ResponseTabular:
		if len(resp.Rows) > 0 {
			return tabularMessage(resp.Rows)
		}
	}
	if resp.Report != "" {
		return resp.Report
	}
	return resp.Reply
}

func tabularMessage(rows []map[string]any) string {
	var (
		texts []string
		found bool
	)
	for _, row := range rows {
		v, ok := row["text_for_output"]
		if !ok {
			continue
		}
		found = true
		if v != nil {
			texts = append(texts, fmt.Sprint(v))
		}
	}
	if found {
		return strings.TrimSpace(strings.Join(texts, "\n"))
	}

	noun := "records"
	if len(rows) == 1 {
		noun = "record"
	}
	return fmt.Sprintf("Data retrieved successfully. Showing %d %s.", len(rows), noun)
}

func hasMarker(message string) bool {
	for _, marker := range reportMarkers {
		if strings.Contains(message, marker) {
			return true
		}
	}
	return false
}

// ExtractPaths returns every output path named in message, minus the
// "None" and "0" placeholders the backend emits for skipped outputs.
func ExtractPaths(message string) []string {
	var paths []string
	for _, m := range outputPathPattern.FindAllStringSubmatch(message, -1) {
		path := strings.TrimSpace(m[2])
		if path == "" || path == "None" || path == "0" {
			continue
		}
		paths = append(paths, path)
	}
	return paths
}

func pickPath(paths []string) (string, bool) {
	for _, p := range paths {
		if strings.Contains(p, ".csv") {
			return p, true
		}
	}
	if len(paths) > 0 {
		return paths[0], true
	}
	return "", false
}

func lastSegment(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}

// IsSuppressed reports whether message is a backend artifact callers must hide.
func IsSuppressed(message string) bool {
	return strings.TrimSpace(message) == UserIDPrompt
}
