package controllers

import (
	"sort"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/spa-booking/db"
	"github.com/meinhoongagan/spa-booking/models"
	"github.com/meinhoongagan/spa-booking/utils"
)

// GetDashboardOverview returns appointment counts by status, active services
// and revenue from completed appointments.
func GetDashboardOverview(c *fiber.Ctx) error {
	var statistics struct {
		TotalAppointments int64     `json:"total_appointments"`
		PendingCount      int64     `json:"pending_count"`
		ConfirmedCount    int64     `json:"confirmed_count"`
		CompletedCount    int64     `json:"completed_count"`
		CancelledCount    int64     `json:"cancelled_count"`
		UpcomingCount     int64     `json:"upcoming_count"`
		ActiveServices    int64     `json:"active_services"`
		TotalRevenue      float64   `json:"total_revenue"`
		LastUpdated       time.Time `json:"last_updated"`
	}

	var byStatus []struct {
		Status models.AppointmentStatus
		Count  int64
	}
	if err := db.DB.Model(&models.Appointment{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&byStatus).Error; err != nil {
		return dashboardError(c, err)
	}
	for _, row := range byStatus {
		statistics.TotalAppointments += row.Count
		switch row.Status {
		case models.StatusPending:
			statistics.PendingCount = row.Count
		case models.StatusConfirmed:
			statistics.ConfirmedCount = row.Count
		case models.StatusCompleted:
			statistics.CompletedCount = row.Count
		case models.StatusCancelled:
			statistics.CancelledCount = row.Count
		}
	}

	now := time.Now()
	if err := db.DB.Model(&models.Appointment{}).
		Where("status IN ? AND scheduled_at >= ?", models.BlockingStatuses, now.UTC()).
		Count(&statistics.UpcomingCount).Error; err != nil {
		return dashboardError(c, err)
	}
	if err := db.DB.Model(&models.Service{}).Where("active = ?", true).Count(&statistics.ActiveServices).Error; err != nil {
		return dashboardError(c, err)
	}
	if err := db.DB.Model(&models.Appointment{}).
		Where("status = ?", models.StatusCompleted).
		Select("COALESCE(SUM(price), 0)").
		Scan(&statistics.TotalRevenue).Error; err != nil {
		return dashboardError(c, err)
	}

	statistics.LastUpdated = now
	return c.JSON(statistics)
}

// GetRecentAppointments returns the most recently created appointments (?limit=, default 5).
func GetRecentAppointments(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 5)
	if limit <= 0 || limit > 100 {
		limit = 5
	}

	var appointments []models.Appointment
	if err := db.DB.Preload("Service").Preload("User").
		Order("created_at desc").
		Limit(limit).
		Find(&appointments).Error; err != nil {
		return dashboardError(c, err)
	}
	for i := range appointments {
		appointments[i].User.Password = ""
	}
	return c.JSON(appointments)
}

// GetRevenueSummary returns completed-appointment revenue per business day
// for ?range=day|week|month|year (default week).
func GetRevenueSummary(c *fiber.Ctx) error {
	timeRange := c.Query("range", "week")
	now := time.Now().In(deps.Location)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, deps.Location)

	var startDate time.Time
	switch timeRange {
	case "day":
		startDate = today
	case "month":
		startDate = today.AddDate(0, -1, 0)
	case "year":
		startDate = today.AddDate(-1, 0, 0)
	default:
		timeRange = "week"
		startDate = today.AddDate(0, 0, -7)
	}

	var completed []models.Appointment
	if err := db.DB.
		Where("status = ? AND scheduled_at >= ? AND scheduled_at <= ?", models.StatusCompleted, startDate.UTC(), now.UTC()).
		Find(&completed).Error; err != nil {
		return dashboardError(c, err)
	}

	type RevenueData struct {
		Date     string  `json:"date"`
		Revenue  float64 `json:"revenue"`
		Count    int     `json:"count"`
		Services int     `json:"services"`
	}

	// days are bucketed in the business location, not the database's
	byDay := map[string]*RevenueData{}
	servicesByDay := map[string]map[uint]bool{}
	var totalRevenue float64
	for _, a := range completed {
		key := a.ScheduledAt.In(deps.Location).Format(models.DateLayout)
		row, ok := byDay[key]
		if !ok {
			row = &RevenueData{Date: key}
			byDay[key] = row
			servicesByDay[key] = map[uint]bool{}
		}
		row.Revenue += a.Price
		row.Count++
		servicesByDay[key][a.ServiceID] = true
		totalRevenue += a.Price
	}

	revenueData := make([]RevenueData, 0, len(byDay))
	for key, row := range byDay {
		row.Services = len(servicesByDay[key])
		revenueData = append(revenueData, *row)
	}
	sort.Slice(revenueData, func(i, j int) bool { return revenueData[i].Date < revenueData[j].Date })

	return c.JSON(fiber.Map{
		"data": revenueData,
		"summary": fiber.Map{
			"total_revenue":      totalRevenue,
			"total_appointments": len(completed),
			"time_range":         timeRange,
			"start_date":         startDate.Format(models.DateLayout),
			"end_date":           now.Format(models.DateLayout),
		},
	})
}

func dashboardError(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
		Message: "Failed to load dashboard",
		Error:   err.Error(),
	})
}
