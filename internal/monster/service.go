package monster

import (
	"math"
	"strconv"
	"strings"

	"hsrdb/internal/index"
	"hsrdb/internal/render"
	"hsrdb/internal/textmap"
	"hsrdb/pkg/utils"
)

// Service answers monster queries from the in-memory export index. Only the
// text lookups touch the monster shard, through the store.
type Service struct {
	Text  *textmap.Store
	Index *index.Cache
}

func NewService(text *textmap.Store, idx *index.Cache) *Service {
	return &Service{Text: text, Index: idx}
}

type SearchRow struct {
	MonsterID         int64    `json:"monster_id"`
	MonsterTemplateID *int64   `json:"monster_template_id"`
	Name              string   `json:"name"`
	Introduction      string   `json:"introduction"`
	Rank              *string  `json:"rank"`
	EliteGroup        *int64   `json:"elite_group"`
	HardLevelGroup    *int64   `json:"hard_level_group"`
	StanceWeakList    []string `json:"stance_weak_list"`
	StanceType        *string  `json:"stance_type"`
	IconPath          *string  `json:"icon_path"`
	ImagePath         *string  `json:"image_path"`
	SkillCount        int      `json:"skill_count"`
}

// resolver batches text lookups in the requested language with CHS and EN
// as fallbacks.
type resolver struct {
	langMap map[string]string
	chsMap  map[string]string
	enMap   map[string]string
}

func (s *Service) newResolver(lang string, hashes []string) (*resolver, error) {
	for _, l := range []string{lang, "CHS", "EN"} {
		if err := s.Text.EnsureLoaded(l); err != nil {
			return nil, err
		}
	}
	r := &resolver{chsMap: map[string]string{}, enMap: map[string]string{}}
	var err error
	if r.langMap, err = s.Text.GetMany(lang, hashes); err != nil {
		return nil, err
	}
	if lang != "CHS" {
		if r.chsMap, err = s.Text.GetMany("CHS", hashes); err != nil {
			return nil, err
		}
	}
	if lang != "EN" {
		if r.enMap, err = s.Text.GetMany("EN", hashes); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *resolver) text(hash *string) string {
	if hash == nil || *hash == "" {
		return ""
	}
	if t := r.langMap[*hash]; t != "" {
		return t
	}
	if t := r.chsMap[*hash]; t != "" {
		return t
	}
	return r.enMap[*hash]
}

// Search filters the full monster list in memory: exact rank and weakness
// matches plus a case-insensitive substring scan over the id, name,
// introduction, rank, and weakness fields.
func (s *Service) Search(q, lang, rank, weakness string, p utils.Page) ([]SearchRow, int, error) {
	idx, err := s.Index.Monsters()
	if err != nil {
		return nil, 0, err
	}

	hashes := make([]string, 0, len(idx.Items)*2)
	for _, m := range idx.Items {
		if m.NameHash != nil {
			hashes = append(hashes, *m.NameHash)
		}
		if m.IntroductionHash != nil {
			hashes = append(hashes, *m.IntroductionHash)
		}
	}
	res, err := s.newResolver(lang, hashes)
	if err != nil {
		return nil, 0, err
	}

	qNorm := strings.ToLower(q)
	filtered := []SearchRow{}
	for _, m := range idx.Items {
		if rank != "" && (m.Rank == nil || *m.Rank != rank) {
			continue
		}
		weakList := m.StanceWeakList
		if weakList == nil {
			weakList = []string{}
		}
		if weakness != "" && !contains(weakList, weakness) {
			continue
		}

		row := SearchRow{
			MonsterID:         m.MonsterID,
			MonsterTemplateID: m.MonsterTemplateID,
			Name:              res.text(m.NameHash),
			Introduction:      res.text(m.IntroductionHash),
			Rank:              m.Rank,
			EliteGroup:        m.EliteGroup,
			HardLevelGroup:    m.HardLevelGroup,
			StanceWeakList:    weakList,
			StanceType:        m.StanceType,
			IconPath:          m.IconPath,
			ImagePath:         m.ImagePath,
			SkillCount:        len(m.SkillIDs),
		}
		if qNorm != "" {
			blob := strings.ToLower(strings.Join([]string{
				strconv.FormatInt(row.MonsterID, 10),
				formatID(row.MonsterTemplateID),
				row.Name,
				row.Introduction,
				deref(row.Rank),
				strings.Join(weakList, " "),
			}, " "))
			if !strings.Contains(blob, qNorm) {
				continue
			}
		}
		filtered = append(filtered, row)
	}

	total := len(filtered)
	start := p.Offset
	if start > total {
		start = total
	}
	end := start + p.Size
	if end > total {
		end = total
	}
	return filtered[start:end], total, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func formatID(id *int64) string {
	if id == nil {
		return ""
	}
	return strconv.FormatInt(*id, 10)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

type SkillItem struct {
	SkillID           int64     `json:"skill_id"`
	Name              *string   `json:"name"`
	SkillType         *string   `json:"skill_type"`
	SkillTag          *string   `json:"skill_tag"`
	DamageType        *string   `json:"damage_type"`
	AttackType        *string   `json:"attack_type"`
	SkillTriggerKey   *string   `json:"skill_trigger_key"`
	IconPath          *string   `json:"icon_path"`
	Description       *string   `json:"description"`
	DescriptionRaw    *string   `json:"description_raw"`
	ParamValues       []float64 `json:"param_values"`
	HasOverrideParams bool      `json:"has_override_params"`
}

type AbilityItem struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

type BaseStats struct {
	HPBase               *float64 `json:"hp_base"`
	AttackBase           *float64 `json:"attack_base"`
	DefenceBase          *float64 `json:"defence_base"`
	SpeedBase            *float64 `json:"speed_base"`
	StanceBase           *float64 `json:"stance_base"`
	CriticalDamageBase   *float64 `json:"critical_damage_base"`
	StatusResistanceBase *float64 `json:"status_resistance_base"`
	MinimumFatigueRatio  *float64 `json:"minimum_fatigue_ratio"`
}

type ScaledStats struct {
	HP      *float64 `json:"hp"`
	Attack  *float64 `json:"attack"`
	Defence *float64 `json:"defence"`
	Speed   *float64 `json:"speed"`
	Stance  *float64 `json:"stance"`
}

type MonsterPayload struct {
	MonsterID            int64                    `json:"monster_id"`
	MonsterTemplateID    *int64                   `json:"monster_template_id"`
	Name                 string                   `json:"name"`
	Introduction         *string                  `json:"introduction"`
	Rank                 *string                  `json:"rank"`
	EliteGroup           *int64                   `json:"elite_group"`
	HardLevelGroup       *int64                   `json:"hard_level_group"`
	StanceType           *string                  `json:"stance_type"`
	StanceWeakList       []string                 `json:"stance_weak_list"`
	DamageTypeResistance []index.DamageResistance `json:"damage_type_resistance"`
	AttackModifyRatio    *float64                 `json:"attack_modify_ratio"`
	DefenceModifyRatio   *float64                 `json:"defence_modify_ratio"`
	HPModifyRatio        *float64                 `json:"hp_modify_ratio"`
	SpeedModifyRatio     *float64                 `json:"speed_modify_ratio"`
	StanceModifyRatio    *float64                 `json:"stance_modify_ratio"`
	IconPath             *string                  `json:"icon_path"`
	RoundIconPath        *string                  `json:"round_icon_path"`
	ImagePath            *string                  `json:"image_path"`
	ManikinImagePath     *string                  `json:"manikin_image_path"`
	JSONConfig           *string                  `json:"json_config"`
	PrefabPath           *string                  `json:"prefab_path"`
	AIPath               *string                  `json:"ai_path"`
	BaseStats            BaseStats                `json:"base_stats"`
	ScaledStats          ScaledStats              `json:"scaled_stats"`
}

type Detail struct {
	Monster   MonsterPayload `json:"monster"`
	Abilities []AbilityItem  `json:"abilities"`
	Skills    []SkillItem    `json:"skills"`
}

// Detail resolves one monster: localized text, abilities with key fallback,
// skill descriptions with per-monster parameter overrides, and stats scaled
// by the modify ratios. Returns nil when the monster does not exist.
func (s *Service) Detail(monsterID int64, lang string) (*Detail, error) {
	idx, err := s.Index.Monsters()
	if err != nil {
		return nil, err
	}
	m := idx.ByID[monsterID]
	if m == nil {
		return nil, nil
	}

	hashes := []string{}
	add := func(h *string) {
		if h != nil && *h != "" {
			hashes = append(hashes, *h)
		}
	}
	add(m.NameHash)
	add(m.IntroductionHash)
	for _, sid := range m.SkillIDs {
		skill := idx.Skills[sid]
		if skill == nil {
			continue
		}
		add(skill.NameHash)
		add(skill.DescHash)
		add(skill.TypeDescHash)
		add(skill.TagHash)
	}
	res, err := s.newResolver(lang, hashes)
	if err != nil {
		return nil, err
	}
	optText := func(h *string) *string {
		if t := res.text(h); t != "" {
			return &t
		}
		return nil
	}

	skills := []SkillItem{}
	for _, sid := range m.SkillIDs {
		skill := idx.Skills[sid]
		if skill == nil {
			continue
		}
		overrideParams, hasOverride := m.OverrideSkillParams[sid]
		rawParams := skill.ParamList
		if hasOverride {
			rawParams = overrideParams
		}
		item := SkillItem{
			SkillID:           sid,
			Name:              optText(skill.NameHash),
			SkillType:         optText(skill.TypeDescHash),
			SkillTag:          optText(skill.TagHash),
			DamageType:        skill.DamageType,
			AttackType:        skill.AttackType,
			SkillTriggerKey:   skill.SkillTriggerKey,
			IconPath:          skill.IconPath,
			DescriptionRaw:    optText(skill.DescHash),
			ParamValues:       nonNilParams(render.ParamValues(rawParams)),
			HasOverrideParams: hasOverride,
		}
		if item.DescriptionRaw != nil {
			desc := render.RenderAny(*item.DescriptionRaw, rawParams)
			item.Description = &desc
		}
		skills = append(skills, item)
	}

	abilities := []AbilityItem{}
	for _, key := range m.AbilityNameKeys {
		text, err := s.Text.ResolveKeyWithFallback(lang, key, key)
		if err != nil {
			return nil, err
		}
		abilities = append(abilities, AbilityItem{Key: key, Text: text})
	}

	name := res.text(m.NameHash)
	if name == "" {
		name = "Monster " + strconv.FormatInt(monsterID, 10)
	}
	weakList := m.StanceWeakList
	if weakList == nil {
		weakList = []string{}
	}
	resistance := m.DamageTypeResistance
	if resistance == nil {
		resistance = []index.DamageResistance{}
	}

	payload := MonsterPayload{
		MonsterID:            m.MonsterID,
		MonsterTemplateID:    m.MonsterTemplateID,
		Name:                 name,
		Introduction:         optText(m.IntroductionHash),
		Rank:                 m.Rank,
		EliteGroup:           m.EliteGroup,
		HardLevelGroup:       m.HardLevelGroup,
		StanceType:           m.StanceType,
		StanceWeakList:       weakList,
		DamageTypeResistance: resistance,
		AttackModifyRatio:    m.AttackModifyRatio,
		DefenceModifyRatio:   m.DefenceModifyRatio,
		HPModifyRatio:        m.HPModifyRatio,
		SpeedModifyRatio:     m.SpeedModifyRatio,
		StanceModifyRatio:    m.StanceModifyRatio,
		IconPath:             m.IconPath,
		RoundIconPath:        m.RoundIconPath,
		ImagePath:            m.ImagePath,
		ManikinImagePath:     m.ManikinImagePath,
		JSONConfig:           m.JSONConfig,
		PrefabPath:           m.PrefabPath,
		AIPath:               m.AIPath,
		BaseStats: BaseStats{
			HPBase:               m.HPBase,
			AttackBase:           m.AttackBase,
			DefenceBase:          m.DefenceBase,
			SpeedBase:            m.SpeedBase,
			StanceBase:           m.StanceBase,
			CriticalDamageBase:   m.CriticalDamageBase,
			StatusResistanceBase: m.StatusResistanceBase,
			MinimumFatigueRatio:  m.MinimumFatigueRatio,
		},
		ScaledStats: ScaledStats{
			HP:      scaled(m.HPBase, m.HPModifyRatio),
			Attack:  scaled(m.AttackBase, m.AttackModifyRatio),
			Defence: scaled(m.DefenceBase, m.DefenceModifyRatio),
			Speed:   scaled(m.SpeedBase, m.SpeedModifyRatio),
			Stance:  scaled(m.StanceBase, m.StanceModifyRatio),
		},
	}

	return &Detail{Monster: payload, Abilities: abilities, Skills: skills}, nil
}

func scaled(base, ratio *float64) *float64 {
	if base == nil || ratio == nil {
		return nil
	}
	v := math.Round(*base**ratio*10000) / 10000
	return &v
}

func nonNilParams(v []float64) []float64 {
	if v == nil {
		return []float64{}
	}
	return v
}

type Facets struct {
	Rank     []string `json:"rank"`
	Weakness []string `json:"weakness"`
}

// FacetValues lists the distinct ranks and stance weaknesses in the index.
func (s *Service) FacetValues() (*Facets, error) {
	idx, err := s.Index.Monsters()
	if err != nil {
		return nil, err
	}
	out := &Facets{Rank: idx.Ranks, Weakness: idx.Weaknesses}
	if out.Rank == nil {
		out.Rank = []string{}
	}
	if out.Weakness == nil {
		out.Weakness = []string{}
	}
	return out, nil
}
