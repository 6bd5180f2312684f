package service

import (
	"time"

	"guild-ledger/backend/internal/model"
)

// ResolveRole 返回覆盖 at 的有效期角色
// 多个有效期同时覆盖时取 start_date 最晚者；start_date 相同时取列表中靠后者
func ResolveRole(periods []model.RolePeriod, at time.Time) (model.Role, bool) {
	var (
		best  *model.RolePeriod
		found bool
	)
	for i := range periods {
		p := &periods[i]
		if !p.Covers(at) {
			continue
		}
		if !found || !p.StartDate.Before(best.StartDate) {
			best, found = p, true
		}
	}
	if !found {
		return "", false
	}
	return best.Role, true
}

// PeriodOverlap 同一成员的两段相互重叠的有效期
type PeriodOverlap struct {
	First  model.RolePeriod `json:"first"`
	Second model.RolePeriod `json:"second"`
}

// FindOverlaps 列出所有两两重叠的有效期对，periods 需属于同一成员
func FindOverlaps(periods []model.RolePeriod) []PeriodOverlap {
	var out []PeriodOverlap
	for i := 0; i < len(periods); i++ {
		for j := i + 1; j < len(periods); j++ {
			if overlaps(periods[i], periods[j]) {
				out = append(out, PeriodOverlap{First: periods[i], Second: periods[j]})
			}
		}
	}
	return out
}

func overlaps(a, b model.RolePeriod) bool {
	aEndsBeforeB := a.EndDate != nil && a.EndDate.Before(b.StartDate)
	bEndsBeforeA := b.EndDate != nil && b.EndDate.Before(a.StartDate)
	return !aEndsBeforeB && !bEndsBeforeA
}

// RoleIndex 按成员分组的有效期索引，供批量按时间点查询
type RoleIndex map[string][]model.RolePeriod

// NewRoleIndex 由全部有效期构建索引
func NewRoleIndex(periods []model.RolePeriod) RoleIndex {
	idx := make(RoleIndex)
	for _, p := range periods {
		idx[p.MemberID] = append(idx[p.MemberID], p)
	}
	return idx
}

// RoleAt 查询成员在 at 时刻的角色
func (idx RoleIndex) RoleAt(memberID string, at time.Time) (model.Role, bool) {
	return ResolveRole(idx[memberID], at)
}
