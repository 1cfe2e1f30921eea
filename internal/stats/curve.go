// Package stats interpolates per-level attribute values across the staged
// promotion breakpoints of a character or weapon.
package stats

import (
	"math"
	"sort"

	"hsrdb/pkg/models"
)

// Build expands promotion breakpoints into one row per level, 1..levelMax.
// Breakpoints without a stage ceiling are ignored. Each level uses the first
// stage whose ceiling covers it; levels above every ceiling use the last
// stage, so stats cap at the highest known promotion.
func Build(breakpoints []models.AvatarPromotion, levelMax int) []models.LevelStat {
	staged := make([]models.AvatarPromotion, 0, len(breakpoints))
	for _, bp := range breakpoints {
		if bp.MaxLevel != nil {
			staged = append(staged, bp)
		}
	}
	if len(staged) == 0 || levelMax < 1 {
		return nil
	}
	sort.SliceStable(staged, func(i, j int) bool {
		return *staged[i].MaxLevel < *staged[j].MaxLevel
	})

	out := make([]models.LevelStat, 0, levelMax)
	for level := 1; level <= levelMax; level++ {
		bp := staged[len(staged)-1]
		for _, cand := range staged {
			if *cand.MaxLevel >= int64(level) {
				bp = cand
				break
			}
		}
		out = append(out, models.LevelStat{
			Level:     int64(level),
			Promotion: bp.Promotion,
			HP:        grow(bp.HPBase, bp.HPAdd, level),
			Attack:    grow(bp.AttackBase, bp.AttackAdd, level),
			Defence:   grow(bp.DefenceBase, bp.DefenceAdd, level),
			Speed:     bp.SpeedBase, // no growth term, passed through as-is
		})
	}
	return out
}

// grow evaluates base + growth*(level-1) rounded to 4 decimals. A missing
// base yields a missing attribute; a missing growth term means the base
// holds flat across the stage.
func grow(base, add *float64, level int) *float64 {
	if base == nil {
		return nil
	}
	v := *base
	if add != nil {
		v += *add * float64(level-1)
	}
	v = math.Round(v*10000) / 10000
	return &v
}
