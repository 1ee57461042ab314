package session

import (
	"github.com/de-tools/report-assistant/pkg/adapters"
	"github.com/de-tools/report-assistant/pkg/models/api"
	"github.com/de-tools/report-assistant/pkg/services/session"
)

func toAPISession(v session.View) api.Session {
	out := adapters.MapDomainSessionToAPI(v.Session, v.State)
	out.ChartURL = v.ChartURL
	out.Messages = adapters.MapDomainMessagesToAPI(v.Messages)
	out.Filters = adapters.MapDomainFilterSetToAPI(v.Filters)
	out.Fragments = adapters.MapDomainFragmentsToAPI(v.Fragments)
	if v.LastResult != nil {
		d := adapters.MapDomainDetectionToAPI(v.LastResult.Detection)
		out.LastResult = &d
	}
	return out
}
