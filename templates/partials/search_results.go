package partials

import (
	"context"

	"clinic_flow_app_go/services"

	"github.com/a-h/templ"
)

var searchGroups = []struct {
	kind  string
	label string
}{
	{services.SearchResultPatient, "Patients"},
	{services.SearchResultVisit, "Visits"},
	{services.SearchResultAppointment, "Appointments"},
}

// SearchResults renders the grouped result list shown under the search box.
// A blank query renders nothing; a query with no results renders an empty state.
func SearchResults(results []services.SearchResult, query string) templ.Component {
	return component(func(ctx context.Context, h *htmlWriter) {
		if query == "" {
			return
		}
		if len(results) == 0 {
			h.raw(`<div class="search-empty">No results for &ldquo;`)
			h.text(query)
			h.raw(`&rdquo;</div>`)
			return
		}

		h.raw(`<div class="search-results" role="listbox">`)
		for _, group := range searchGroups {
			first := true
			for _, r := range results {
				if r.Type != group.kind {
					continue
				}
				if first {
					h.raw(`<div class="search-group"><h4 class="search-group-title">`)
					h.text(group.label)
					h.raw(`</h4><ul>`)
					first = false
				}
				h.raw(`<li role="option"><a class="search-result"`)
				h.attr("href", services.RouteForSearchResult(r))
				h.attr("data-type", r.Type)
				h.raw(`><span class="search-result-title">`)
				h.text(r.Title)
				h.raw(`</span>`)
				if r.Subtitle != "" {
					h.raw(`<span class="search-result-subtitle">`)
					h.text(r.Subtitle)
					h.raw(`</span>`)
				}
				h.raw(`</a></li>`)
			}
			if !first {
				h.raw(`</ul></div>`)
			}
		}
		h.raw(`</div>`)
	})
}
