package document

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"recruit-matcher/internal/model"

	"github.com/go-playground/validator/v10"
	"github.com/xeipuuv/gojsonschema"
)

// ErrInvalidDocument 表示文档未通过结构或字段校验。
var ErrInvalidDocument = errors.New("invalid document")

//go:embed schemas/*.json
var schemaFS embed.FS

var (
	schemasOnce sync.Once
	schemas     map[string]*gojsonschema.Schema
	schemasErr  error

	validate = validator.New()
)

const dateLayout = "2006-01-02"

type rawHiringRequest struct {
	JobTitle           string `json:"job_title" validate:"required"`
	Quantity           int    `json:"quantity" validate:"min=1"`
	DestinationCountry string `json:"destination_country"`
	Requirements       string `json:"requirements"`
	SalaryRange        string `json:"salary_range"`
	Deadline           string `json:"deadline"`
	Status             string `json:"status" validate:"required,oneof=pending in_progress fulfilled cancelled"`
	AgencyID           string `json:"agency_id"`
}

type rawCandidate struct {
	FullName        string   `json:"full_name" validate:"required"`
	Email           string   `json:"email" validate:"omitempty,email"`
	Phone           string   `json:"phone"`
	Profession      string   `json:"profession"`
	ExperienceYears int      `json:"experience_years" validate:"min=0"`
	Skills          []string `json:"skills"`
	Verified        bool     `json:"verified"`
	Available       bool     `json:"available"`
}

type rawRecommendation struct {
	HiringRequestID string `json:"hiring_request_id" validate:"required"`
	CandidateID     string `json:"candidate_id" validate:"required"`
	AgencyID        string `json:"agency_id"`
	Status          string `json:"status" validate:"required"`
	RecommendedBy   string `json:"recommended_by"`
}

// ParseHiringRequest 校验并转换招聘需求文档。
func ParseHiringRequest(doc model.Document) (model.HiringRequest, error) {
	var raw rawHiringRequest
	if err := decode(model.CollectionHiringRequests, doc, &raw); err != nil {
		return model.HiringRequest{}, err
	}

	deadline, err := parseDate(raw.Deadline)
	if err != nil {
		return model.HiringRequest{}, invalid(doc, []string{"deadline: " + err.Error()})
	}

	return model.HiringRequest{
		ID:                 doc.ID,
		JobTitle:           strings.TrimSpace(raw.JobTitle),
		Quantity:           raw.Quantity,
		DestinationCountry: strings.TrimSpace(raw.DestinationCountry),
		Requirements:       raw.Requirements,
		RequirementsText:   plainText(raw.Requirements),
		SalaryRange:        strings.TrimSpace(raw.SalaryRange),
		Deadline:           deadline,
		Status:             model.RequestStatus(raw.Status),
		AgencyID:           strings.TrimSpace(raw.AgencyID),
	}, nil
}

// ParseCandidate 校验并转换候选人文档，技能按大小写去重。
func ParseCandidate(doc model.Document) (model.Candidate, error) {
	var raw rawCandidate
	if err := decode(model.CollectionCandidates, doc, &raw); err != nil {
		return model.Candidate{}, err
	}

	return model.Candidate{
		ID:              doc.ID,
		FullName:        strings.TrimSpace(raw.FullName),
		Email:           strings.TrimSpace(raw.Email),
		Phone:           strings.TrimSpace(raw.Phone),
		Profession:      strings.TrimSpace(raw.Profession),
		ExperienceYears: raw.ExperienceYears,
		Skills:          normalizeSkills(raw.Skills),
		Verified:        raw.Verified,
		Available:       raw.Available,
	}, nil
}

// ParseRecommendation 校验并转换推荐文档。
func ParseRecommendation(doc model.Document) (model.Recommendation, error) {
	var raw rawRecommendation
	if err := decode(model.CollectionRecommendations, doc, &raw); err != nil {
		return model.Recommendation{}, err
	}
	return model.Recommendation{
		ID:              doc.ID,
		HiringRequestID: raw.HiringRequestID,
		CandidateID:     raw.CandidateID,
		AgencyID:        raw.AgencyID,
		Status:          model.RecommendationStatus(raw.Status),
		RecommendedBy:   raw.RecommendedBy,
		CreatedAt:       doc.CreatedAt,
	}, nil
}

// RecommendationFields 生成追加写入的文档正文，id 与 created_at 由存储层分配。
func RecommendationFields(rec model.Recommendation) map[string]any {
	return map[string]any{
		"hiring_request_id": rec.HiringRequestID,
		"candidate_id":      rec.CandidateID,
		"agency_id":         rec.AgencyID,
		"status":            string(rec.Status),
		"recommended_by":    rec.RecommendedBy,
	}
}

func decode(collection string, doc model.Document, out any) error {
	schema, err := schemaFor(collection)
	if err != nil {
		return err
	}

	fields := compact(doc.Fields)
	result, err := schema.Validate(gojsonschema.NewGoLoader(fields))
	if err != nil {
		return invalid(doc, []string{err.Error()})
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, re := range result.Errors() {
			msgs = append(msgs, fmt.Sprintf("%s: %s", re.Field(), re.Description()))
		}
		return invalid(doc, msgs)
	}

	data, err := json.Marshal(fields)
	if err != nil {
		return invalid(doc, []string{err.Error()})
	}
	if err := json.Unmarshal(data, out); err != nil {
		return invalid(doc, []string{err.Error()})
	}

	if err := validate.Struct(out); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %s", fe.Field(), fe.Tag()))
			}
			return invalid(doc, msgs)
		}
		return invalid(doc, []string{err.Error()})
	}
	return nil
}

func schemaFor(collection string) (*gojsonschema.Schema, error) {
	schemasOnce.Do(func() {
		schemas, schemasErr = loadSchemas()
	})
	if schemasErr != nil {
		return nil, schemasErr
	}
	schema, ok := schemas[collection]
	if !ok {
		return nil, fmt.Errorf("no schema for collection %s", collection)
	}
	return schema, nil
}

func loadSchemas() (map[string]*gojsonschema.Schema, error) {
	out := make(map[string]*gojsonschema.Schema)
	for _, collection := range []string{model.CollectionHiringRequests, model.CollectionCandidates, model.CollectionRecommendations} {
		data, err := schemaFS.ReadFile("schemas/" + collection + ".json")
		if err != nil {
			return nil, fmt.Errorf("read schema %s: %w", collection, err)
		}
		schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", collection, err)
		}
		out[collection] = schema
	}
	return out, nil
}

// compact 将 null 字段视为缺失。
func compact(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if v == nil {
			continue
		}
		out[k] = v
	}
	return out
}

func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(dateLayout, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("unsupported date %q", value)
	}
	return t, nil
}

func normalizeSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	seen := make(map[string]struct{}, len(skills))
	for _, skill := range skills {
		trimmed := strings.TrimSpace(skill)
		if trimmed == "" {
			continue
		}
		key := strings.ToLower(trimmed)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}

func invalid(doc model.Document, msgs []string) error {
	sort.Strings(msgs)
	return fmt.Errorf("%w: %s/%s: %s", ErrInvalidDocument, doc.Collection, doc.ID, strings.Join(msgs, "; "))
}
