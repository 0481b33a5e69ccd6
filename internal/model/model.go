package model

import "time"

// 文档集合名称。
const (
	CollectionHiringRequests  = "hiring_requests"
	CollectionCandidates      = "candidates"
	CollectionRecommendations = "recommendations"
)

// Document 表示文档库中的一条原始记录，字段未经校验。
// - ID/Collection: 由存储层维护
// - Fields: 文档正文，键为 snake_case
// - CreatedAt: 写入时由存储层赋值
type Document struct {
	ID         string         `json:"id"`
	Collection string         `json:"collection"`
	Fields     map[string]any `json:"fields"`
	CreatedAt  time.Time      `json:"created_at"`
}

// RequestStatus 招聘需求状态。
type RequestStatus string

const (
	RequestPending    RequestStatus = "pending"
	RequestInProgress RequestStatus = "in_progress"
	RequestFulfilled  RequestStatus = "fulfilled"
	RequestCancelled  RequestStatus = "cancelled"
)

// Open 仅 pending 与 in_progress 的需求可参与匹配。
func (s RequestStatus) Open() bool {
	return s == RequestPending || s == RequestInProgress
}

// HiringRequest 表示中介机构提交的招聘需求。
type HiringRequest struct {
	ID                 string        `json:"id"`
	JobTitle           string        `json:"job_title"`
	Quantity           int           `json:"quantity"`
	DestinationCountry string        `json:"destination_country"`
	Requirements       string        `json:"requirements"`
	RequirementsText   string        `json:"requirements_text,omitempty"` // 去除标记后的展示文本，不参与匹配
	SalaryRange        string        `json:"salary_range"`
	Deadline           time.Time     `json:"deadline"`
	Status             RequestStatus `json:"status"`
	AgencyID           string        `json:"agency_id"`
}

// Candidate 表示求职者档案。
type Candidate struct {
	ID              string   `json:"id"`
	FullName        string   `json:"full_name"`
	Email           string   `json:"email"`
	Phone           string   `json:"phone"`
	Profession      string   `json:"profession"`
	ExperienceYears int      `json:"experience_years"`
	Skills          []string `json:"skills"`
	Verified        bool     `json:"verified"`
	Available       bool     `json:"available"`
}

// Eligible 仅已认证且可用的候选人可进入匹配池。
func (c Candidate) Eligible() bool {
	return c.Verified && c.Available
}

// RecommendationStatus 推荐记录状态。
type RecommendationStatus string

const RecommendationRecommended RecommendationStatus = "recommended"

// Recommendation 表示一次推荐，只追加不修改。
type Recommendation struct {
	ID              string               `json:"id"`
	HiringRequestID string               `json:"hiring_request_id"`
	CandidateID     string               `json:"candidate_id"`
	AgencyID        string               `json:"agency_id"`
	Status          RecommendationStatus `json:"status"`
	RecommendedBy   string               `json:"recommended_by"`
	CreatedAt       time.Time            `json:"created_at"`
}

// MatchSummary 汇总单个需求的匹配数量，用于定时摘要。
type MatchSummary struct {
	RequestID string `json:"request_id"`
	JobTitle  string `json:"job_title"`
	AgencyID  string `json:"agency_id"`
	Quantity  int    `json:"quantity"`
	Matches   int    `json:"matches"`
}
