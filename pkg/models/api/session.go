package api

import "time"

type CreateSessionRequest struct {
	UserName string `json:"user_name"`
	UserID   string `json:"user_id"`
}

type ParametersRequest struct {
	BudgetYears          []int    `json:"budget_years"`
	FundCodes            []string `json:"fund_codes"`
	DeptIDs              []string `json:"dept_ids"`
	ReportName           string   `json:"report_name"`
	MeasuresRequestedRev []string `json:"measures_requested_rev,omitempty"`
	MeasuresRequestedExp []string `json:"measures_requested_exp,omitempty"`
}

type UpdateFiltersRequest struct {
	Filters     FilterSet `json:"filters"`
	ChatMessage string    `json:"chat_message,omitempty"`
}

type ChatMessageRequest struct {
	Text string `json:"text"`
}

type Message struct {
	ID        string           `json:"id"`
	Role      string           `json:"role"`
	Text      string           `json:"text"`
	ReportURL string           `json:"report_url,omitempty"`
	Filename  string           `json:"filename,omitempty"`
	Rows      []map[string]any `json:"rows,omitempty"`
	IsError   bool             `json:"is_error,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

type Detection struct {
	HasReport bool    `json:"has_report"`
	Message   string  `json:"message"`
	ReportURL *string `json:"report_url"`
	Filename  *string `json:"filename"`
}

type Session struct {
	SessionID    string     `json:"session_id"`
	APISessionID string     `json:"api_session_id,omitempty"`
	UserName     string     `json:"user_name"`
	UserID       string     `json:"user_id"`
	State        string     `json:"state"`
	ChatEnabled  bool       `json:"chat_enabled"`
	CanRetry     bool       `json:"can_retry"`
	ChartURL     string     `json:"chart_url,omitempty"`
	Messages     []Message  `json:"messages"`
	Filters      FilterSet  `json:"filters"`
	Fragments    Fragments  `json:"fragments"`
	LastResult   *Detection `json:"last_result,omitempty"`
}

type ClassifyRequest struct {
	UserName  string         `json:"user_name"`
	SessionID string         `json:"session_id"`
	Response  ReportResponse `json:"response"`
}

type ClassifyResponse struct {
	Kind      string    `json:"kind"`
	Detection Detection `json:"detection"`
	Suppress  bool      `json:"suppress"`
}
