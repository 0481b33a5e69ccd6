package matching

import (
	"sort"
	"strings"

	"recruit-matcher/internal/model"
)

// FindMatches 返回满足资格条件的候选人，按已认证优先、工作年限降序稳定排序。
// 纯函数，不修改入参。
func FindMatches(request model.HiringRequest, candidates []model.Candidate) []model.Candidate {
	title := strings.ToLower(strings.TrimSpace(request.JobTitle))
	requirements := strings.ToLower(request.Requirements)

	matches := make([]model.Candidate, 0)
	for _, c := range candidates {
		if !c.Eligible() {
			continue
		}
		if professionMatches(c.Profession, title) || skillsMatch(c.Skills, requirements) {
			matches = append(matches, c)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return rankBefore(matches[i], matches[j])
	})
	return matches
}

// rankBefore 排序比较器。池内候选人均已认证，verified 一项目前不改变结果。
func rankBefore(a, b model.Candidate) bool {
	if a.Verified != b.Verified {
		return a.Verified
	}
	return a.ExperienceYears > b.ExperienceYears
}

// professionMatches 职业与岗位名称任一方向包含即匹配，空值不参与。
func professionMatches(profession, title string) bool {
	profession = strings.ToLower(strings.TrimSpace(profession))
	if profession == "" || title == "" {
		return false
	}
	return strings.Contains(profession, title) || strings.Contains(title, profession)
}

// skillsMatch 任一技能出现在需求描述中即匹配。
func skillsMatch(skills []string, requirements string) bool {
	if requirements == "" {
		return false
	}
	for _, skill := range skills {
		skill = strings.ToLower(strings.TrimSpace(skill))
		if skill == "" {
			continue
		}
		if strings.Contains(requirements, skill) {
			return true
		}
	}
	return false
}
