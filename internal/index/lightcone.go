package index

import (
	"os"
	"path/filepath"
	"sort"

	"hsrdb/internal/flex"
	"hsrdb/internal/jsonio"
)

// LightConeLevel is one superimposition rank of an equipment skill.
type LightConeLevel struct {
	Level           int64
	SkillNameHash   *string
	SkillDescHash   *string
	AbilityName     *string
	ParamList       any
	AbilityProperty any
}

type LightCone struct {
	EquipmentID    int64
	SkillID        *int64
	AvatarBaseType *string
	MaxRank        *int64
	MaxPromotion   *int64
	ThumbnailPath  *string
	ImagePath      *string
	Levels         []LightConeLevel
}

// LightConeIndex keys EquipmentConfig rows by equipment id, each joined
// with its EquipmentSkillConfig levels sorted ascending.
type LightConeIndex map[int64]*LightCone

func loadLightCones(root string) (LightConeIndex, error) {
	cfgPath := filepath.Join(root, "ExcelOutput", "EquipmentConfig.json")
	skillPath := filepath.Join(root, "ExcelOutput", "EquipmentSkillConfig.json")
	if _, err := os.Stat(cfgPath); err != nil {
		return LightConeIndex{}, nil
	}
	if _, err := os.Stat(skillPath); err != nil {
		return LightConeIndex{}, nil
	}

	cfgDoc, err := jsonio.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	skillDoc, err := jsonio.Load(skillPath)
	if err != nil {
		return nil, err
	}
	cfgArr, ok1 := cfgDoc.([]any)
	skillArr, ok2 := skillDoc.([]any)
	if !ok1 || !ok2 {
		return LightConeIndex{}, nil
	}

	levelsBySkill := make(map[int64][]LightConeLevel)
	for _, entry := range skillArr {
		row, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		skillID, ok := flex.Int(row["SkillID"])
		if !ok {
			continue
		}
		level, ok := flex.Int(row["Level"])
		if !ok {
			continue
		}
		lv := LightConeLevel{
			Level:           level,
			ParamList:       row["ParamList"],
			AbilityProperty: row["AbilityProperty"],
		}
		if h, ok := flex.Hash(row["SkillName"]); ok {
			lv.SkillNameHash = &h
		}
		if h, ok := flex.Hash(row["SkillDesc"]); ok {
			lv.SkillDescHash = &h
		}
		if s, ok := flex.Str(row["AbilityName"]); ok {
			lv.AbilityName = &s
		}
		levelsBySkill[skillID] = append(levelsBySkill[skillID], lv)
	}

	out := make(LightConeIndex)
	for _, entry := range cfgArr {
		row, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		equipmentID, ok := flex.Int(row["EquipmentID"])
		if !ok {
			continue
		}
		lc := &LightCone{EquipmentID: equipmentID}
		if id, ok := flex.Int(row["SkillID"]); ok {
			lc.SkillID = &id
			lc.Levels = levelsBySkill[id]
		}
		if s, ok := flex.Str(row["AvatarBaseType"]); ok {
			lc.AvatarBaseType = &s
		}
		if n, ok := flex.Int(row["MaxRank"]); ok {
			lc.MaxRank = &n
		}
		if n, ok := flex.Int(row["MaxPromotion"]); ok {
			lc.MaxPromotion = &n
		}
		if s, ok := flex.Str(row["ThumbnailPath"]); ok {
			lc.ThumbnailPath = &s
		}
		if s, ok := flex.Str(row["ImagePath"]); ok {
			lc.ImagePath = &s
		}
		sort.Slice(lc.Levels, func(i, j int) bool { return lc.Levels[i].Level < lc.Levels[j].Level })
		out[equipmentID] = lc
	}
	return out, nil
}
