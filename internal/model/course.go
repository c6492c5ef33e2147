package model

import "time"

type CourseVisibility string

const (
	CoursePublic     CourseVisibility = "public"
	CourseRestricted CourseVisibility = "restricted"
	CoursePrivate    CourseVisibility = "private"
)

type Course struct {
	ID                int64            `json:"id"`
	Title             string           `json:"title"`
	Outline           string           `json:"outline"`
	Language          string           `json:"language"`
	Country           string           `json:"country"`
	Subject           string           `json:"subject"`
	Visibility        CourseVisibility `json:"visibility"`
	StartDate         time.Time        `json:"start_date"`
	EndDate           *time.Time       `json:"end_date"`
	IsActive          bool             `json:"is_active"`
	AllowJoinRequests bool             `json:"allow_join_requests"` // only meaningful for restricted courses
	MemberCount       int              `json:"member_count"`        // enrolled members, filled by list queries
	CreatedAt         time.Time        `json:"created_at"`
}

// CourseFilter narrows course listings.
type CourseFilter struct {
	Visibility CourseVisibility
	Subject    string
	Language   string
	Country    string
	MineOnly   bool
}
