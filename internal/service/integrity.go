package service

import "math"

// integrityTolerance 对账允许的浮点误差
const integrityTolerance = 0.01

// IntegrityCheck 对账结果
type IntegrityCheck struct {
	TotalLootValue   float64 `json:"total_loot_value"`
	TotalDistributed float64 `json:"total_distributed"`
	GuildFund        float64 `json:"guild_fund"`
	AdminFee         float64 `json:"admin_fee"`
	CalculatedTotal  float64 `json:"calculated_total"`
	IsValid          bool    `json:"is_valid"`
}

// CheckIntegrity 校验 total ≈ distributed + fund + fee
func CheckIntegrity(total, distributed, fund, fee float64) IntegrityCheck {
	calculated := distributed + fund + fee
	return IntegrityCheck{
		TotalLootValue:   total,
		TotalDistributed: distributed,
		GuildFund:        fund,
		AdminFee:         fee,
		CalculatedTotal:  calculated,
		IsValid:          math.Abs(total-calculated) < integrityTolerance,
	}
}
