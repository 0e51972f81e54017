package services

import (
	"strconv"

	"clinic_flow_app_go/models"
)

// Fixed application routes
const (
	RoutePatients      = "/patients"
	RouteVisits        = "/visits"
	RouteAppointments  = "/appointments"
	RouteFollowUps     = "/follow-ups"
	RouteNotifications = "/notifications"
)

// Navigator performs a route change. It has no return value; the caller does not wait on it.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to Navigator
type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) {
	f(path)
}

// RouteForSearchResult maps a selected search result to its page
func RouteForSearchResult(r SearchResult) string {
	switch r.Type {
	case SearchResultPatient:
		return RoutePatients + "/" + r.ID
	case SearchResultVisit:
		return RouteVisits + "/" + r.ID
	case SearchResultAppointment:
		return RouteAppointments
	default:
		return RouteNotifications
	}
}

// RouteForNotification returns where a notification click leads.
// The second value is false when the notification carries no reference
// or references a type without a page.
func RouteForNotification(n models.Notification) (string, bool) {
	if n.RelatedID == nil || *n.RelatedID == "" || n.RelatedType == nil {
		return "", false
	}

	switch *n.RelatedType {
	case models.NotificationTypePatient:
		return RoutePatients + "/" + *n.RelatedID, true
	case models.NotificationTypeVisit:
		return RouteVisits + "/" + *n.RelatedID, true
	case models.NotificationTypeAppointment:
		return RouteAppointments, true
	case models.NotificationTypeFollowUp:
		return RouteFollowUps, true
	default:
		return "", false
	}
}

// MaxBadgeCount is the largest unread count shown verbatim on the badge
const MaxBadgeCount = 9

// BadgeLabel renders the unread badge: empty for zero, the count up to 9, then "9+"
func BadgeLabel(unread int) string {
	switch {
	case unread <= 0:
		return ""
	case unread > MaxBadgeCount:
		return strconv.Itoa(MaxBadgeCount) + "+"
	default:
		return strconv.Itoa(unread)
	}
}
