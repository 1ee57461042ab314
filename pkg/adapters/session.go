package adapters

import (
	"github.com/de-tools/report-assistant/pkg/models/api"
	"github.com/de-tools/report-assistant/pkg/models/domain"
)

func MapAPIParametersToDomain(p api.ParametersRequest) domain.ReportParameters {
	return domain.ReportParameters{
		BudgetYears:          append([]int(nil), p.BudgetYears...),
		FundCodes:            append([]string(nil), p.FundCodes...),
		DeptIDs:              append([]string(nil), p.DeptIDs...),
		ReportName:           p.ReportName,
		MeasuresRequestedRev: append([]string(nil), p.MeasuresRequestedRev...),
		MeasuresRequestedExp: append([]string(nil), p.MeasuresRequestedExp...),
	}
}

func MapDomainMessageToAPI(m domain.Message) api.Message {
	return api.Message{
		ID:        m.ID,
		Role:      string(m.Role),
		Text:      m.Text,
		ReportURL: m.ReportURL,
		Filename:  m.Filename,
		Rows:      m.Rows,
		IsError:   m.IsError,
		CreatedAt: m.CreatedAt,
	}
}

func MapDomainMessagesToAPI(messages []domain.Message) []api.Message {
	out := make([]api.Message, 0, len(messages))
	for _, m := range messages {
		out = append(out, MapDomainMessageToAPI(m))
	}
	return out
}

func MapDomainSessionToAPI(s domain.Session, state domain.SessionState) api.Session {
	return api.Session{
		SessionID:    s.SessionID,
		APISessionID: s.APISessionID,
		UserName:     s.UserName,
		UserID:       s.UserID,
		State:        string(state),
		ChatEnabled:  state.ChatEnabled(),
		CanRetry:     state == domain.StateError,
	}
}
