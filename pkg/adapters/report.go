package adapters

import (
	"github.com/de-tools/report-assistant/pkg/models/api"
	"github.com/de-tools/report-assistant/pkg/models/domain"
)

// MapAPIResponseToDomain classifies the wire response shape once, at the
// API boundary.
func MapAPIResponseToDomain(resp api.ReportResponse) domain.BackendResponse {
	switch {
	case resp.Text != nil:
		return domain.BackendResponse{Kind: domain.ResponseText, Text: *resp.Text}
	case len(resp.Data) > 0:
		return domain.BackendResponse{
			Kind:      domain.ResponseTabular,
			Rows:      resp.Data,
			Report:    resp.Report,
			Reply:     resp.Reply,
			SessionID: resp.SessionID,
		}
	case resp.Report != "" || resp.Reply != "":
		return domain.BackendResponse{
			Kind:      domain.ResponseMessage,
			Report:    resp.Report,
			Reply:     resp.Reply,
			SessionID: resp.SessionID,
		}
	case resp.SessionID != "":
		return domain.BackendResponse{Kind: domain.ResponseSession, SessionID: resp.SessionID}
	default:
		return domain.BackendResponse{Kind: domain.ResponseEmpty}
	}
}

func MapChatResponseToDomain(resp api.ChatResponse) domain.BackendResponse {
	if resp.Reply == "" {
		if resp.SessionID != "" {
			return domain.BackendResponse{Kind: domain.ResponseSession, SessionID: resp.SessionID}
		}
		return domain.BackendResponse{Kind: domain.ResponseEmpty}
	}
	return domain.BackendResponse{
		Kind:      domain.ResponseMessage,
		Reply:     resp.Reply,
		SessionID: resp.SessionID,
	}
}

func MapDomainDetectionToAPI(d domain.ReportDetectionResult) api.Detection {
	return api.Detection{
		HasReport: d.HasReport,
		Message:   d.Message,
		ReportURL: d.ReportURL,
		Filename:  d.Filename,
	}
}

// MapDomainReportRequestToAPI assembles the report-generation payload.
// chatMessage is nil for the initial submission.
func MapDomainReportRequestToAPI(
	session domain.Session,
	params domain.ReportParameters,
	filters domain.FilterSet,
	fragments domain.CompiledQueryFragments,
	chatMessage *string,
) api.ReportRequest {
	req := api.ReportRequest{
		BudgetYears:          nonNilInts(params.BudgetYears),
		FundCodes:            nonNilStrings(params.FundCodes),
		DeptIDs:              nonNilStrings(params.DeptIDs),
		SessionID:            session.ReportSessionID(),
		UserID:               session.UserID,
		ReportName:           params.ReportName,
		MeasuresRequestedRev: nonNilStrings(params.MeasuresRequestedRev),
		DimensionFilterRev:   fragments.DimensionRev,
		MeasuresFilterRev:    fragments.MeasureRev,
		MeasuresRequestedExp: nonNilStrings(params.MeasuresRequestedExp),
		DimensionFilterExp:   fragments.DimensionExp,
		MeasuresFilterExp:    fragments.MeasureExp,
	}
	if len(filters.Measures) > 0 {
		req.MeasureFilters = MapDomainMeasureFiltersToAPI(filters.Measures)
	}
	if len(filters.Dimensions) > 0 {
		req.DimensionFilters = MapDomainDimensionFiltersToAPI(filters.Dimensions)
	}
	if chatMessage != nil {
		msg := *chatMessage
		startChat := msg != ""
		req.ChatMessage = &msg
		req.StartChat = &startChat
	}
	return req
}

func nonNilStrings(v []string) []string {
	if v == nil {
		return []string{}
	}
	return append([]string(nil), v...)
}

func nonNilInts(v []int) []int {
	if v == nil {
		return []int{}
	}
	return append([]int(nil), v...)
}
