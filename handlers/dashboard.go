package handlers

import (
	"clinic_flow_app_go/middleware"
	"clinic_flow_app_go/templates/pages"

	"github.com/labstack/echo/v4"
)

// DashboardHandler renders the main dashboard
func DashboardHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)
	clinicCtx, _ := middleware.GetClinicContext(c)

	component := pages.Dashboard(user, clinicCtx.Clinic, clinicCtx.Role(), middleware.GetCSRFToken(c))
	return component.Render(c.Request().Context(), c.Response().Writer)
}
