package domain

// DashboardStats aggregates ticket counts for the console dashboard.
// Recent counts tickets created within the trailing seven days.
type DashboardStats struct {
	ByStatus   map[TicketStatus]int   `json:"by_status"`
	ByPriority map[TicketPriority]int `json:"by_priority"`
	Total      int                    `json:"total"`
	Recent     int                    `json:"recent"`
}
