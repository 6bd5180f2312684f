package service

import (
	"math"
	"time"

	"guild-ledger/backend/internal/model"
)

// ItemAllocation 单件物品的分配结果
type ItemAllocation struct {
	LootItemID    string    `json:"loot_item_id"`
	DateAcquired  time.Time `json:"date_acquired"`
	Value         float64   `json:"value"`
	Beneficiaries []string  `json:"beneficiaries"`
	PerMember     int64     `json:"per_member"`
	Remainder     float64   `json:"remainder"`
	// Unresolved 在获得时刻没有任何角色的参与者，不参与分配
	Unresolved []string `json:"unresolved,omitempty"`
	// GuildMasterAdded 非参与者身份被追加的会长
	GuildMasterAdded string `json:"guild_master_added,omitempty"`
}

// DistributionPlan 一次全量分配的计划
type DistributionPlan struct {
	Allocations               []ItemAllocation
	TotalLootValue            float64
	TotalDistributed          float64
	GuildFund                 float64
	SalaryCount               int
	ItemsWithoutBeneficiaries int
}

// PlanDistribution 为 SOLD 物品计算分配方案，不读写数据库
//
// members 的顺序决定会长查找的先后：按顺序取第一个在获得时刻为 GUILD_MASTER 的成员，
// 若其不在受益人中则追加。每人分得 floor(value / n)，余数计入公会基金。
// 没有受益人的物品只计入 TotalLootValue。
func PlanDistribution(items []model.LootItem, members []model.Member, roles RoleIndex) DistributionPlan {
	var plan DistributionPlan

	for _, item := range items {
		alloc := ItemAllocation{
			LootItemID:   item.LootItemID,
			DateAcquired: item.DateAcquired,
			Value:        item.Value,
		}

		seen := make(map[string]bool, len(item.Participations)+1)
		for _, p := range item.Participations {
			if seen[p.MemberID] {
				continue
			}
			seen[p.MemberID] = true
			if _, ok := roles.RoleAt(p.MemberID, item.DateAcquired); !ok {
				alloc.Unresolved = append(alloc.Unresolved, p.MemberID)
				continue
			}
			alloc.Beneficiaries = append(alloc.Beneficiaries, p.MemberID)
		}

		if gm, ok := firstGuildMaster(members, roles, item.DateAcquired); ok {
			if !contains(alloc.Beneficiaries, gm) {
				alloc.Beneficiaries = append(alloc.Beneficiaries, gm)
				alloc.GuildMasterAdded = gm
			}
		}

		plan.TotalLootValue += item.Value

		n := len(alloc.Beneficiaries)
		if n == 0 {
			plan.ItemsWithoutBeneficiaries++
			plan.Allocations = append(plan.Allocations, alloc)
			continue
		}

		alloc.PerMember = int64(math.Floor(item.Value / float64(n)))
		distributed := float64(alloc.PerMember * int64(n))
		alloc.Remainder = item.Value - distributed

		plan.TotalDistributed += distributed
		plan.GuildFund += alloc.Remainder
		plan.SalaryCount += n
		plan.Allocations = append(plan.Allocations, alloc)
	}

	return plan
}

// Salaries 展开为待写入的工资行
func (p DistributionPlan) Salaries() []model.Salary {
	out := make([]model.Salary, 0, p.SalaryCount)
	for _, a := range p.Allocations {
		for _, memberID := range a.Beneficiaries {
			out = append(out, model.Salary{
				MemberID:   memberID,
				LootItemID: a.LootItemID,
				Amount:     a.PerMember,
			})
		}
	}
	return out
}

func firstGuildMaster(members []model.Member, roles RoleIndex, at time.Time) (string, bool) {
	for _, m := range members {
		if role, ok := roles.RoleAt(m.MemberID, at); ok && role == model.RoleGuildMaster {
			return m.MemberID, true
		}
	}
	return "", false
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
