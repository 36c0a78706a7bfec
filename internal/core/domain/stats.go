package domain

// DashboardStats aggregates the ticket counters shown on the dashboard.
// Averages are in hours, rates are percentages.
type DashboardStats struct {
	TotalTickets      int64   `json:"totalTickets"`
	OpenTickets       int64   `json:"openTickets"`
	InProgressTickets int64   `json:"inProgressTickets"`
	ResolvedTickets   int64   `json:"resolvedTickets"`
	CriticalTickets   int64   `json:"criticalTickets"`
	SLABreaches       int64   `json:"slaBreach"`
	AvgResponseTime   float64 `json:"avgResponseTime"`
	AvgResolutionTime float64 `json:"avgResolutionTime"`
	ResolutionRate    float64 `json:"resolutionRate"`
	ServiceLevel      float64 `json:"serviceLevel"`
}
