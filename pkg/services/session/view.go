package session

import (
	"slices"

	"github.com/de-tools/report-assistant/pkg/models/domain"
)

// View is a point-in-time copy of an orchestrator's state. Mutating it has
// no effect on the session.
type View struct {
	Session     domain.Session
	State       domain.SessionState
	ChatEnabled bool
	CanRetry    bool
	Messages    []domain.Message
	Filters     domain.FilterSet
	Fragments   domain.CompiledQueryFragments
	Parameters  *domain.ReportParameters
	LastResult  *domain.ReportOutcome
	ChartURL    string
}

func (o *Orchestrator) snapshotLocked() View {
	v := View{
		Session:     o.session,
		State:       o.state,
		ChatEnabled: o.state.ChatEnabled(),
		CanRetry:    o.state == domain.StateError,
		Messages:    slices.Clone(o.messages),
		Filters:     o.filters.Clone(),
		Fragments:   o.fragments,
	}
	if o.params != nil {
		p := cloneParams(*o.params)
		v.Parameters = &p
	}
	if o.lastResult != nil {
		r := *o.lastResult
		v.LastResult = &r
		if r.SignalsReport() {
			v.ChartURL = o.deps.URLs.ChartURL(o.session.UserName, o.session.ReportSessionID())
		}
	}
	return v
}
