package api

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ChatRequest is the body of the chat call.
type ChatRequest struct {
	SessionID   string `json:"session_id,omitempty"`
	UserMessage string `json:"user_message"`
	ReportName  string `json:"report_name,omitempty"`
}

type ChatResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
}

// ReportRequest is the body of the report-generation call.
type ReportRequest struct {
	BudgetYears          []int                      `json:"budget_years"`
	FundCodes            []string                   `json:"fund_codes"`
	DeptIDs              []string                   `json:"dept_ids"`
	SessionID            string                     `json:"sessionId"`
	UserID               string                     `json:"userId"`
	ReportName           string                     `json:"report_name"`
	MeasuresRequestedRev []string                   `json:"measures_requested_rev"`
	DimensionFilterRev   string                     `json:"dimension_filter_rev"`
	MeasuresFilterRev    string                     `json:"measures_filter_rev"`
	MeasuresRequestedExp []string                   `json:"measures_requested_exp"`
	DimensionFilterExp   string                     `json:"dimension_filter_exp"`
	MeasuresFilterExp    string                     `json:"measures_filter_exp"`
	MeasureFilters       map[string]MeasureFilter   `json:"measureFilters,omitempty"`
	DimensionFilters     map[string]DimensionFilter `json:"dimensionFilters,omitempty"`
	ChatMessage          *string                    `json:"chat_message,omitempty"`
	StartChat            *bool                      `json:"start_chat,omitempty"`
}

type ForecastInitRequest struct {
	UserID     string `json:"user_id"`
	SessionID  string `json:"session_id"`
	BudgetYear int    `json:"budgetYear"`
}

// ReportResponse accepts every shape the backend has used over time: a bare
// JSON string, an object with tabular data, a message-bearing object, or an
// object carrying only a session id.
type ReportResponse struct {
	Text      *string          `json:"-"`
	Data      []map[string]any `json:"data,omitempty"`
	Report    string           `json:"report,omitempty"`
	Reply     string           `json:"reply,omitempty"`
	SessionID string           `json:"session_id,omitempty"`
}

func (r *ReportResponse) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*r = ReportResponse{}
		return nil
	}

	if trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return fmt.Errorf("failed to decode text response: %w", err)
		}
		*r = ReportResponse{Text: &text}
		return nil
	}

	var obj struct {
		Data      json.RawMessage `json:"data"`
		Report    any             `json:"report"`
		Reply     any             `json:"reply"`
		SessionID string          `json:"session_id"`
	}
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return fmt.Errorf("failed to decode report response: %w", err)
	}

	out := ReportResponse{
		Report:    stringify(obj.Report),
		Reply:     stringify(obj.Reply),
		SessionID: obj.SessionID,
	}
	// data is only tabular when it is an array of objects; anything else is ignored
	if len(obj.Data) > 0 {
		var rows []map[string]any
		if err := json.Unmarshal(obj.Data, &rows); err == nil {
			out.Data = rows
		}
	}
	*r = out
	return nil
}

func (r ReportResponse) MarshalJSON() ([]byte, error) {
	if r.Text != nil {
		return json.Marshal(*r.Text)
	}
	type plain ReportResponse
	return json.Marshal(plain(r))
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}
