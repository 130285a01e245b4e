package timesheet

import "time"

// Entry is one day's worked time against a project.
type Entry struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	ProjectID int64     `json:"project_id"`
	WorkedOn  time.Time `json:"worked_on"`
	Minutes   int       `json:"minutes"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProjectTotal aggregates minutes per project inside a month.
type ProjectTotal struct {
	ProjectID   int64  `json:"project_id"`
	ProjectName string `json:"project_name"`
	Minutes     int    `json:"minutes"`
}

// DayTotal aggregates minutes per calendar day inside a month.
type DayTotal struct {
	Day     time.Time `json:"day"`
	Minutes int       `json:"minutes"`
}

// MonthlySummary is the report returned for one user and month.
type MonthlySummary struct {
	Year         int            `json:"year"`
	Month        time.Month     `json:"month"`
	TotalMinutes int            `json:"total_minutes"`
	ByProject    []ProjectTotal `json:"by_project"`
	ByDay        []DayTotal     `json:"by_day"`
}
