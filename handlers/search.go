package handlers

import (
	"net/http"

	"clinic_flow_app_go/middleware"
	"clinic_flow_app_go/templates/partials"

	"github.com/labstack/echo/v4"
)

// maxQueryLength caps what is sent to the store; longer input cannot match a record field
const maxQueryLength = 100

// SearchHandler searches the caller's clinic
// GET /api/search?q=keyword
func SearchHandler(c echo.Context) error {
	clinic, ok := middleware.GetClinicContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusForbidden, "No clinic is associated with this account")
	}

	query := cleanQuery(c.QueryParam("q"))
	results := searchService.Search(c.Request().Context(), clinic.ClinicID(), query)

	if isHTMX(c) {
		return partials.SearchResults(results, query).Render(c.Request().Context(), c.Response().Writer)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"results": results,
		"query":   query,
		"count":   len(results),
	})
}

// cleanQuery strips markup and bounds the length of a raw search string
func cleanQuery(raw string) string {
	query := plainText(raw)
	if r := []rune(query); len(r) > maxQueryLength {
		query = string(r[:maxQueryLength])
	}
	return query
}
