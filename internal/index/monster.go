package index

import (
	"os"
	"path/filepath"
	"sort"

	"hsrdb/internal/flex"
	"hsrdb/internal/jsonio"
)

type MonsterSkill struct {
	SkillID         int64
	NameHash        *string
	DescHash        *string
	TypeDescHash    *string
	TagHash         *string
	DamageType      *string
	AttackType      *string
	SkillTriggerKey *string
	IconPath        *string
	ParamList       any
	PhaseList       any
}

type DamageResistance struct {
	DamageType string   `json:"damage_type"`
	Value      *float64 `json:"value"`
}

// Monster merges a MonsterConfig row with its MonsterTemplateConfig row;
// template fields fill in everything the config row does not carry itself.
type Monster struct {
	MonsterID            int64
	MonsterTemplateID    *int64
	NameHash             *string
	IntroductionHash     *string
	Rank                 *string
	EliteGroup           *int64
	HardLevelGroup       *int64
	AttackModifyRatio    *float64
	DefenceModifyRatio   *float64
	HPModifyRatio        *float64
	SpeedModifyRatio     *float64
	StanceModifyRatio    *float64
	StanceWeakList       []string
	DamageTypeResistance []DamageResistance
	AbilityNameKeys      []string
	SkillIDs             []int64
	OverrideSkillParams  map[int64]any
	IconPath             *string
	RoundIconPath        *string
	ImagePath            *string
	ManikinImagePath     *string
	JSONConfig           *string
	PrefabPath           *string
	AIPath               *string
	StanceType           *string
	AttackBase           *float64
	DefenceBase          *float64
	HPBase               *float64
	SpeedBase            *float64
	StanceBase           *float64
	CriticalDamageBase   *float64
	StatusResistanceBase *float64
	MinimumFatigueRatio  *float64
}

type MonsterIndex struct {
	Items      []*Monster
	ByID       map[int64]*Monster
	Skills     map[int64]*MonsterSkill
	Ranks      []string
	Weaknesses []string
}

type monsterTemplate struct {
	nameHash             *string
	rank                 *string
	iconPath             *string
	roundIconPath        *string
	imagePath            *string
	manikinImagePath     *string
	jsonConfig           *string
	prefabPath           *string
	aiPath               *string
	stanceType           *string
	attackBase           *float64
	defenceBase          *float64
	hpBase               *float64
	speedBase            *float64
	stanceBase           *float64
	criticalDamageBase   *float64
	statusResistanceBase *float64
	minimumFatigueRatio  *float64
}

func loadMonsters(root string) (*MonsterIndex, error) {
	empty := &MonsterIndex{ByID: map[int64]*Monster{}, Skills: map[int64]*MonsterSkill{}}

	excel := filepath.Join(root, "ExcelOutput")
	paths := [3]string{
		filepath.Join(excel, "MonsterConfig.json"),
		filepath.Join(excel, "MonsterTemplateConfig.json"),
		filepath.Join(excel, "MonsterSkillConfig.json"),
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			return empty, nil
		}
	}

	cfgDoc, err := jsonio.Load(paths[0])
	if err != nil {
		return nil, err
	}
	tplDoc, err := jsonio.Load(paths[1])
	if err != nil {
		return nil, err
	}
	skillDoc, err := jsonio.Load(paths[2])
	if err != nil {
		return nil, err
	}
	cfgArr, ok1 := cfgDoc.([]any)
	tplArr, ok2 := tplDoc.([]any)
	skillArr, ok3 := skillDoc.([]any)
	if !ok1 || !ok2 || !ok3 {
		return empty, nil
	}

	templates := make(map[int64]*monsterTemplate)
	for _, entry := range tplArr {
		row, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		templateID, ok := flex.Int(row["MonsterTemplateID"])
		if !ok {
			continue
		}
		templates[templateID] = &monsterTemplate{
			nameHash:             hashField(row, "MonsterName"),
			rank:                 strField(row, "Rank"),
			iconPath:             strField(row, "IconPath"),
			roundIconPath:        strField(row, "RoundIconPath"),
			imagePath:            strField(row, "ImagePath"),
			manikinImagePath:     strField(row, "ManikinImagePath"),
			jsonConfig:           strField(row, "JsonConfig"),
			prefabPath:           strField(row, "PrefabPath"),
			aiPath:               strField(row, "AIPath"),
			stanceType:           strField(row, "StanceType"),
			attackBase:           floatField(row, "AttackBase"),
			defenceBase:          floatField(row, "DefenceBase"),
			hpBase:               floatField(row, "HPBase"),
			speedBase:            floatField(row, "SpeedBase"),
			stanceBase:           floatField(row, "StanceBase"),
			criticalDamageBase:   floatField(row, "CriticalDamageBase"),
			statusResistanceBase: floatField(row, "StatusResistanceBase"),
			minimumFatigueRatio:  floatField(row, "MinimumFatigueRatio"),
		}
	}

	skills := make(map[int64]*MonsterSkill)
	for _, entry := range skillArr {
		row, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		skillID, ok := flex.Int(row["SkillID"])
		if !ok {
			continue
		}
		skills[skillID] = &MonsterSkill{
			SkillID:         skillID,
			NameHash:        hashField(row, "SkillName"),
			DescHash:        hashField(row, "SkillDesc"),
			TypeDescHash:    hashField(row, "SkillTypeDesc"),
			TagHash:         hashField(row, "SkillTag"),
			DamageType:      strField(row, "DamageType"),
			AttackType:      strField(row, "AttackType"),
			SkillTriggerKey: strField(row, "SkillTriggerKey"),
			IconPath:        strField(row, "IconPath"),
			ParamList:       row["ParamList"],
			PhaseList:       row["PhaseList"],
		}
	}

	idx := &MonsterIndex{ByID: make(map[int64]*Monster), Skills: skills}
	rankSet := make(map[string]bool)
	weakSet := make(map[string]bool)

	for _, entry := range cfgArr {
		row, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		monsterID, ok := flex.Int(row["MonsterID"])
		if !ok {
			continue
		}
		m := &Monster{
			MonsterID:           monsterID,
			IntroductionHash:    hashField(row, "MonsterIntroduction"),
			EliteGroup:          intField(row, "EliteGroup"),
			HardLevelGroup:      intField(row, "HardLevelGroup"),
			AttackModifyRatio:   floatField(row, "AttackModifyRatio"),
			DefenceModifyRatio:  floatField(row, "DefenceModifyRatio"),
			HPModifyRatio:       floatField(row, "HPModifyRatio"),
			SpeedModifyRatio:    floatField(row, "SpeedModifyRatio"),
			StanceModifyRatio:   floatField(row, "StanceModifyRatio"),
			OverrideSkillParams: parseOverrideSkillParams(row["OverrideSkillParams"]),
		}

		if arr, ok := row["SkillList"].([]any); ok {
			for _, v := range arr {
				if id, ok := flex.Int(v); ok {
					m.SkillIDs = append(m.SkillIDs, id)
				}
			}
		}
		if arr, ok := row["StanceWeakList"].([]any); ok {
			for _, v := range arr {
				if s, ok := flex.Str(v); ok && s != "" {
					m.StanceWeakList = append(m.StanceWeakList, s)
					weakSet[s] = true
				}
			}
		}
		if arr, ok := row["AbilityNameList"].([]any); ok {
			for _, v := range arr {
				if s, ok := flex.Str(v); ok && s != "" {
					m.AbilityNameKeys = append(m.AbilityNameKeys, s)
				}
			}
		}
		if arr, ok := row["DamageTypeResistance"].([]any); ok {
			for _, v := range arr {
				r, ok := v.(map[string]any)
				if !ok {
					continue
				}
				dt, ok := flex.Str(r["DamageType"])
				if !ok || dt == "" {
					continue
				}
				m.DamageTypeResistance = append(m.DamageTypeResistance,
					DamageResistance{DamageType: dt, Value: floatField(r, "Value")})
			}
		}

		m.NameHash = hashField(row, "MonsterName")
		if templateID, ok := flex.Int(row["MonsterTemplateID"]); ok {
			m.MonsterTemplateID = &templateID
			if tpl := templates[templateID]; tpl != nil {
				if m.NameHash == nil {
					m.NameHash = tpl.nameHash
				}
				m.Rank = tpl.rank
				m.IconPath = tpl.iconPath
				m.RoundIconPath = tpl.roundIconPath
				m.ImagePath = tpl.imagePath
				m.ManikinImagePath = tpl.manikinImagePath
				m.JSONConfig = tpl.jsonConfig
				m.PrefabPath = tpl.prefabPath
				m.AIPath = tpl.aiPath
				m.StanceType = tpl.stanceType
				m.AttackBase = tpl.attackBase
				m.DefenceBase = tpl.defenceBase
				m.HPBase = tpl.hpBase
				m.SpeedBase = tpl.speedBase
				m.StanceBase = tpl.stanceBase
				m.CriticalDamageBase = tpl.criticalDamageBase
				m.StatusResistanceBase = tpl.statusResistanceBase
				m.MinimumFatigueRatio = tpl.minimumFatigueRatio
			}
		}
		if m.Rank != nil && *m.Rank != "" {
			rankSet[*m.Rank] = true
		}

		idx.Items = append(idx.Items, m)
		idx.ByID[monsterID] = m
	}

	sort.Slice(idx.Items, func(i, j int) bool { return idx.Items[i].MonsterID < idx.Items[j].MonsterID })
	idx.Ranks = sortedKeys(rankSet)
	idx.Weaknesses = sortedKeys(weakSet)
	return idx, nil
}

// parseOverrideSkillParams reads the obfuscated per-monster override rows.
// Field names churn between export versions, so the shape is the contract:
// the first integer value is the skill id, the first list is its parameters.
// Keys are scanned in sorted order to keep the pick deterministic.
func parseOverrideSkillParams(raw any) map[int64]any {
	out := make(map[int64]any)
	arr, ok := raw.([]any)
	if !ok {
		return out
	}
	for _, entry := range arr {
		row, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		keys := make([]string, 0, len(row))
		for k := range row {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var skillID *int64
		var params any
		for _, k := range keys {
			v := row[k]
			if skillID == nil {
				if id, ok := flex.Int(v); ok {
					skillID = &id
					continue
				}
			}
			if params == nil {
				if list, ok := v.([]any); ok {
					params = list
				}
			}
		}
		if skillID != nil && params != nil {
			out[*skillID] = params
		}
	}
	return out
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func hashField(row map[string]any, key string) *string {
	if h, ok := flex.Hash(row[key]); ok {
		return &h
	}
	return nil
}

func strField(row map[string]any, key string) *string {
	if s, ok := flex.Str(row[key]); ok {
		return &s
	}
	return nil
}

func intField(row map[string]any, key string) *int64 {
	if n, ok := flex.Int(row[key]); ok {
		return &n
	}
	return nil
}

func floatField(row map[string]any, key string) *float64 {
	if f, ok := flex.Float(row[key]); ok {
		return &f
	}
	return nil
}
