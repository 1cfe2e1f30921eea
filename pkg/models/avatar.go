package models

type Avatar struct {
	AvatarID       int64    `json:"avatar_id"`
	NameHash       *string  `json:"name_hash,omitempty"`
	NameCHS        *string  `json:"name_chs,omitempty"`
	NameEN         *string  `json:"name_en,omitempty"`
	FullNameHash   *string  `json:"full_name_hash,omitempty"`
	FullNameCHS    *string  `json:"full_name_chs,omitempty"`
	FullNameEN     *string  `json:"full_name_en,omitempty"`
	Rarity         *string  `json:"rarity,omitempty"`
	DamageType     *string  `json:"damage_type,omitempty"`
	AvatarBaseType *string  `json:"avatar_base_type,omitempty"`
	SPNeed         *float64 `json:"sp_need,omitempty"`
	MaxPromotion   *int64   `json:"max_promotion,omitempty"`
	MaxRank        *int64   `json:"max_rank,omitempty"`
	RankIDList     []int64  `json:"rank_id_list,omitempty"`
	SkillIDList    []int64  `json:"skill_id_list,omitempty"`
	ReleaseState   *int64   `json:"release_state,omitempty"`
	Name           *string  `json:"name,omitempty"`
	FullName       *string  `json:"full_name,omitempty"`
}

// AvatarPromotion is one staged breakpoint of a character's stat curve.
type AvatarPromotion struct {
	AvatarID           int64    `json:"avatar_id"`
	Promotion          int64    `json:"promotion"`
	MaxLevel           *int64   `json:"max_level,omitempty"`
	PlayerLevelRequire *int64   `json:"player_level_require,omitempty"`
	WorldLevelRequire  *int64   `json:"world_level_require,omitempty"`
	HPBase             *float64 `json:"hp_base,omitempty"`
	HPAdd              *float64 `json:"hp_add,omitempty"`
	AttackBase         *float64 `json:"attack_base,omitempty"`
	AttackAdd          *float64 `json:"attack_add,omitempty"`
	DefenceBase        *float64 `json:"defence_base,omitempty"`
	DefenceAdd         *float64 `json:"defence_add,omitempty"`
	SpeedBase          *float64 `json:"speed_base,omitempty"`
	CriticalChance     *float64 `json:"critical_chance,omitempty"`
	CriticalDamage     *float64 `json:"critical_damage,omitempty"`
	BaseAggro          *float64 `json:"base_aggro,omitempty"`
	PromotionCostJSON  *string  `json:"promotion_cost_json,omitempty"`
}

type AvatarSkill struct {
	SkillID          int64    `json:"skill_id"`
	Level            int64    `json:"level"`
	MaxLevel         *int64   `json:"max_level,omitempty"`
	NameHash         *string  `json:"name_hash,omitempty"`
	NameCHS          *string  `json:"name_chs,omitempty"`
	NameEN           *string  `json:"name_en,omitempty"`
	DescHash         *string  `json:"desc_hash,omitempty"`
	DescCHS          *string  `json:"desc_chs,omitempty"`
	DescEN           *string  `json:"desc_en,omitempty"`
	TagHash          *string  `json:"tag_hash,omitempty"`
	TagCHS           *string  `json:"tag_chs,omitempty"`
	TagEN            *string  `json:"tag_en,omitempty"`
	SkillTriggerKey  *string  `json:"skill_trigger_key,omitempty"`
	SkillEffect      *string  `json:"skill_effect,omitempty"`
	AttackType       *string  `json:"attack_type,omitempty"`
	StanceDamageType *string  `json:"stance_damage_type,omitempty"`
	SPBase           *float64 `json:"sp_base,omitempty"`
	BPNeed           *float64 `json:"bp_need,omitempty"`
	BPAdd            *float64 `json:"bp_add,omitempty"`
	ParamJSON        *string  `json:"param_json,omitempty"`
	Name             *string  `json:"name,omitempty"`
	Desc             *string  `json:"desc,omitempty"`
	Tag              *string  `json:"tag,omitempty"`
}

// AvatarRank keeps the eidolon name/description as raw template strings
// (name_raw, desc_raw are not hash-indirected in the source export).
type AvatarRank struct {
	RankID            int64   `json:"rank_id"`
	Rank              *int64  `json:"rank,omitempty"`
	TriggerHash       *string `json:"trigger_hash,omitempty"`
	NameRaw           *string `json:"name_raw,omitempty"`
	DescRaw           *string `json:"desc_raw,omitempty"`
	IconPath          *string `json:"icon_path,omitempty"`
	SkillAddLevelJSON *string `json:"skill_add_level_json,omitempty"`
	RankAbilityJSON   *string `json:"rank_ability_json,omitempty"`
	ParamJSON         *string `json:"param_json,omitempty"`
	Name              *string `json:"name,omitempty"`
	Desc              *string `json:"desc,omitempty"`
}

// LevelStat is one row of an interpolated stat curve.
type LevelStat struct {
	Level     int64    `json:"level"`
	Promotion int64    `json:"promotion"`
	HP        *float64 `json:"hp,omitempty"`
	Attack    *float64 `json:"attack,omitempty"`
	Defence   *float64 `json:"defence,omitempty"`
	Speed     *float64 `json:"speed,omitempty"`
}
