package service

import (
	"fmt"
	"io"
	"time"

	ics "github.com/arran4/golang-ical"

	"guild-ledger/backend/internal/model"
)

// ── Boss 刷新日历 ─────────────────────────────────────────────
//
// 每个已有击杀记录的 Boss 生成一个 VEVENT：
//   - DTSTART = 上次击杀 + 刷新间隔
//   - DTEND   = DTSTART + spawnWindow
//   - UID 由 boss_id 与刷新时间组成，日历客户端据此去重
// 从未击杀的 Boss 不出现在日历中。
// ─────────────────────────────────────────────────────────────

const (
	calendarProductID = "-//guild-ledger//boss-respawns//EN"
	calendarName      = "Boss Respawns"
	spawnWindow       = 15 * time.Minute
)

// BuildBossCalendar 生成 Boss 刷新日历
func BuildBossCalendar(bosses []model.Boss, generatedAt time.Time) *ics.Calendar {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(calendarProductID)
	cal.SetXWRCalName(calendarName)

	for i := range bosses {
		b := &bosses[i]
		spawn := b.NextSpawn()
		if spawn == nil {
			continue
		}

		evt := cal.AddEvent(fmt.Sprintf("%s-%d@guild-ledger", b.BossID, spawn.Unix()))
		evt.SetDtStampTime(generatedAt.UTC())
		evt.SetStartAt(spawn.UTC())
		evt.SetEndAt(spawn.Add(spawnWindow).UTC())
		evt.SetSummary(fmt.Sprintf("%s 刷新", b.Name))
		evt.SetDescription(fmt.Sprintf("类型: %s，刷新间隔: %d 分钟，上次击杀: %s",
			b.Type, b.RespawnMinutes, b.LastKilledAt.UTC().Format(time.RFC3339)))
	}
	return cal
}

// ParseBossCalendar 解析日历中的刷新时间，键为 VEVENT 的 UID
func ParseBossCalendar(r io.Reader) (map[string]time.Time, error) {
	cal, err := ics.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("解析日历失败: %w", err)
	}

	spawns := make(map[string]time.Time)
	for _, evt := range cal.Events() {
		start, err := evt.GetStartAt()
		if err != nil {
			continue
		}
		spawns[evt.Id()] = start
	}
	return spawns, nil
}
