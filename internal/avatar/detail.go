package avatar

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"hsrdb/internal/render"
	"hsrdb/internal/stats"
	"hsrdb/pkg/models"
)

type SkillLevel struct {
	Level          int64     `json:"level"`
	MaxLevel       *int64    `json:"max_level"`
	DescriptionRaw string    `json:"description_raw"`
	Description    string    `json:"description"`
	ParamValues    []float64 `json:"param_values"`
}

// SkillGroup collapses the per-level skill rows into one entry per skill.
// available_levels is the highest level on record; levels holds only the
// rows under the requested cap, counted by shown_levels.
type SkillGroup struct {
	SkillID          int64        `json:"skill_id"`
	Name             string       `json:"name"`
	Tag              string       `json:"tag"`
	SkillEffect      *string      `json:"skill_effect"`
	AttackType       *string      `json:"attack_type"`
	StanceDamageType *string      `json:"stance_damage_type"`
	SPBase           *float64     `json:"sp_base"`
	BPNeed           *float64     `json:"bp_need"`
	BPAdd            *float64     `json:"bp_add"`
	AvailableLevels  int64        `json:"available_levels"`
	ShownLevels      int          `json:"shown_levels"`
	Levels           []SkillLevel `json:"levels"`
}

type RankAbility struct {
	Key  string  `json:"key"`
	Text *string `json:"text"`
}

type RankItem struct {
	RankID        int64          `json:"rank_id"`
	Rank          *int64         `json:"rank"`
	Name          *string        `json:"name"`
	Description   *string        `json:"description"`
	NameKey       *string        `json:"name_key"`
	DescKey       *string        `json:"desc_key"`
	IconPath      *string        `json:"icon_path"`
	ParamValues   []float64      `json:"param_values"`
	SkillAddLevel map[string]any `json:"skill_add_level"`
	RankAbilities []RankAbility  `json:"rank_abilities"`
}

type PersonalStory struct {
	StoryID     int64   `json:"story_id"`
	Unlock      *int64  `json:"unlock"`
	TitleHash   *string `json:"title_hash"`
	Title       *string `json:"title"`
	ContentHash *string `json:"content_hash"`
	Content     *string `json:"content"`
}

type Detail struct {
	Avatar           models.Avatar            `json:"avatar"`
	Promotions       []models.AvatarPromotion `json:"promotions"`
	LevelStats       []models.LevelStat       `json:"level_stats"`
	LevelCheckpoints []models.LevelStat       `json:"level_checkpoints"`
	Skills           []*SkillGroup            `json:"skills"`
	Ranks            []RankItem               `json:"ranks"`
	PersonalStories  []PersonalStory          `json:"personal_stories"`
	SkillLevelLimit  int                      `json:"skill_level_limit"`
	LevelMax         int                      `json:"level_max"`
}

// Detail assembles one character: the base row, promotion breakpoints, the
// interpolated level curve with milestone checkpoints, grouped skills,
// eidolon ranks, and personal stories from the atlas. Returns nil when the
// character does not exist.
func (r *Repo) Detail(ctx context.Context, avatarID int64, lang string, skillLevelLimit, levelMax int) (*Detail, error) {
	materialized := lang == "CHS" || lang == "EN"
	if !materialized {
		if err := r.Text.EnsureLoaded(lang); err != nil {
			return nil, err
		}
	}

	av, skillIDs, rankIDs, err := r.avatarRow(ctx, avatarID, lang, materialized)
	if err != nil || av == nil {
		return nil, err
	}

	promotions, err := r.promotions(ctx, avatarID)
	if err != nil {
		return nil, err
	}

	levelStats := stats.Build(promotions, levelMax)
	checkpoints := []models.LevelStat{}
	for _, row := range levelStats {
		if row.Level == 1 || row.Level%10 == 0 {
			checkpoints = append(checkpoints, row)
		}
	}
	if levelStats == nil {
		levelStats = []models.LevelStat{}
	}

	skills, err := r.skillGroups(ctx, skillIDs, lang, materialized, skillLevelLimit)
	if err != nil {
		return nil, err
	}

	ranks, err := r.rankItems(ctx, rankIDs, lang)
	if err != nil {
		return nil, err
	}

	stories := r.personalStories(avatarID, lang)

	return &Detail{
		Avatar:           *av,
		Promotions:       promotions,
		LevelStats:       levelStats,
		LevelCheckpoints: checkpoints,
		Skills:           skills,
		Ranks:            ranks,
		PersonalStories:  stories,
		SkillLevelLimit:  skillLevelLimit,
		LevelMax:         levelMax,
	}, nil
}

func (r *Repo) avatarRow(ctx context.Context, id int64, lang string, materialized bool) (*models.Avatar, []int64, []int64, error) {
	var (
		av                     models.Avatar
		rankListRaw, skillsRaw *string
	)
	err := r.DB.QueryRowContext(ctx, `
		SELECT avatar_id, name_hash, name_chs, name_en, full_name_hash, full_name_chs, full_name_en,
		       rarity, damage_type, avatar_base_type, sp_need, max_promotion, max_rank,
		       rank_id_list_json, skill_id_list_json
		FROM avatar
		WHERE avatar_id = ?`, id).
		Scan(&av.AvatarID, &av.NameHash, &av.NameCHS, &av.NameEN,
			&av.FullNameHash, &av.FullNameCHS, &av.FullNameEN,
			&av.Rarity, &av.DamageType, &av.AvatarBaseType,
			&av.SPNeed, &av.MaxPromotion, &av.MaxRank,
			&rankListRaw, &skillsRaw)
	if err == sql.ErrNoRows {
		return nil, nil, nil, nil
	}
	if err != nil {
		return nil, nil, nil, fmt.Errorf("avatar row: %w", err)
	}

	av.RankIDList = decodeIDList(rankListRaw)
	av.SkillIDList = decodeIDList(skillsRaw)

	switch lang {
	case "CHS":
		av.Name = av.NameCHS
		av.FullName = av.FullNameCHS
	case "EN":
		av.Name = av.NameEN
		av.FullName = av.FullNameEN
	default:
		av.Name = r.hashTextOr(lang, av.NameHash, av.NameCHS, av.NameEN)
		av.FullName = r.hashTextOr(lang, av.FullNameHash, av.FullNameCHS, av.FullNameEN)
	}
	return &av, av.SkillIDList, av.RankIDList, nil
}

// hashTextOr looks a hash up in lang, falling back to the materialized CHS
// then EN columns when the translation is missing.
func (r *Repo) hashTextOr(lang string, hash, chs, en *string) *string {
	if hash != nil {
		if text, ok, err := r.Text.Get(lang, *hash); err == nil && ok && text != "" {
			return &text
		}
	}
	if chs != nil && *chs != "" {
		return chs
	}
	return en
}

func (r *Repo) promotions(ctx context.Context, id int64) ([]models.AvatarPromotion, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT promotion, max_level, player_level_require, world_level_require,
		       hp_base, hp_add, attack_base, attack_add, defence_base, defence_add,
		       speed_base, critical_chance, critical_damage, base_aggro, promotion_cost_json
		FROM avatar_promotion
		WHERE avatar_id = ?
		ORDER BY promotion`, id)
	if err != nil {
		return nil, fmt.Errorf("promotions: %w", err)
	}
	defer rows.Close()

	out := []models.AvatarPromotion{}
	for rows.Next() {
		bp := models.AvatarPromotion{AvatarID: id}
		if err := rows.Scan(
			&bp.Promotion, &bp.MaxLevel, &bp.PlayerLevelRequire, &bp.WorldLevelRequire,
			&bp.HPBase, &bp.HPAdd, &bp.AttackBase, &bp.AttackAdd, &bp.DefenceBase, &bp.DefenceAdd,
			&bp.SpeedBase, &bp.CriticalChance, &bp.CriticalDamage, &bp.BaseAggro, &bp.PromotionCostJSON,
		); err != nil {
			return nil, fmt.Errorf("scan promotion: %w", err)
		}
		out = append(out, bp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("promotion rows: %w", err)
	}
	return out, nil
}

func (r *Repo) skillGroups(ctx context.Context, skillIDs []int64, lang string, materialized bool, levelLimit int) ([]*SkillGroup, error) {
	groups := []*SkillGroup{}
	if len(skillIDs) == 0 {
		return groups, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(skillIDs)), ",")
	args := make([]any, 0, len(skillIDs)+3)

	var query string
	if materialized {
		nameCol, descCol, tagCol := "name_chs", "desc_chs", "tag_chs"
		if lang == "EN" {
			nameCol, descCol, tagCol = "name_en", "desc_en", "tag_en"
		}
		query = fmt.Sprintf(`
			SELECT skill_id, level, max_level, COALESCE(%s, ''), COALESCE(%s, ''), COALESCE(%s, ''),
			       skill_effect, attack_type, stance_damage_type, sp_base, bp_need, bp_add, param_json
			FROM avatar_skill
			WHERE skill_id IN (%s)
			ORDER BY skill_id, level`, nameCol, descCol, tagCol, placeholders)
	} else {
		query = fmt.Sprintf(`
			SELECT s.skill_id, s.level, s.max_level,
			       COALESCE(nm.text, ''), COALESCE(dc.text, ''), COALESCE(tg.text, ''),
			       s.skill_effect, s.attack_type, s.stance_damage_type, s.sp_base, s.bp_need, s.bp_add, s.param_json
			FROM avatar_skill s
			LEFT JOIN text_map nm ON nm.lang = ? AND nm.hash = s.name_hash
			LEFT JOIN text_map dc ON dc.lang = ? AND dc.hash = s.desc_hash
			LEFT JOIN text_map tg ON tg.lang = ? AND tg.hash = s.tag_hash
			WHERE s.skill_id IN (%s)
			ORDER BY s.skill_id, s.level`, placeholders)
		args = append(args, lang, lang, lang)
	}
	for _, id := range skillIDs {
		args = append(args, id)
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("skills: %w", err)
	}
	defer rows.Close()

	byID := make(map[int64]*SkillGroup)
	for rows.Next() {
		var (
			skillID, level             int64
			maxLevel                   *int64
			name, desc, tag            string
			effect, attackType, stance *string
			spBase, bpNeed, bpAdd      *float64
			paramJSON                  *string
		)
		if err := rows.Scan(
			&skillID, &level, &maxLevel, &name, &desc, &tag,
			&effect, &attackType, &stance, &spBase, &bpNeed, &bpAdd, &paramJSON,
		); err != nil {
			return nil, fmt.Errorf("scan skill: %w", err)
		}

		group, ok := byID[skillID]
		if !ok {
			group = &SkillGroup{
				SkillID:          skillID,
				Name:             name,
				Tag:              tag,
				SkillEffect:      effect,
				AttackType:       attackType,
				StanceDamageType: stance,
				SPBase:           spBase,
				BPNeed:           bpNeed,
				BPAdd:            bpAdd,
				Levels:           []SkillLevel{},
			}
			byID[skillID] = group
			groups = append(groups, group)
		}
		if level > group.AvailableLevels {
			group.AvailableLevels = level
		}
		if level > int64(levelLimit) {
			continue
		}

		group.Levels = append(group.Levels, SkillLevel{
			Level:          level,
			MaxLevel:       maxLevel,
			DescriptionRaw: desc,
			Description:    render.RenderAny(desc, derefJSON(paramJSON)),
			ParamValues:    paramValues(paramJSON),
		})
		group.ShownLevels++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("skill rows: %w", err)
	}
	return groups, nil
}

func (r *Repo) rankItems(ctx context.Context, rankIDs []int64, lang string) ([]RankItem, error) {
	out := []RankItem{}
	if len(rankIDs) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(rankIDs)), ",")
	args := make([]any, 0, len(rankIDs))
	for _, id := range rankIDs {
		args = append(args, id)
	}
	rows, err := r.DB.QueryContext(ctx, fmt.Sprintf(`
		SELECT rank_id, rank, name_raw, desc_raw, icon_path, skill_add_level_json, rank_ability_json, param_json
		FROM avatar_rank
		WHERE rank_id IN (%s)
		ORDER BY rank`, placeholders), args...)
	if err != nil {
		return nil, fmt.Errorf("ranks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rk models.AvatarRank
		if err := rows.Scan(
			&rk.RankID, &rk.Rank, &rk.NameRaw, &rk.DescRaw, &rk.IconPath,
			&rk.SkillAddLevelJSON, &rk.RankAbilityJSON, &rk.ParamJSON,
		); err != nil {
			return nil, fmt.Errorf("scan rank: %w", err)
		}

		item := RankItem{
			RankID:        rk.RankID,
			Rank:          rk.Rank,
			NameKey:       rk.NameRaw,
			DescKey:       rk.DescRaw,
			IconPath:      rk.IconPath,
			ParamValues:   paramValues(rk.ParamJSON),
			SkillAddLevel: map[string]any{},
			RankAbilities: []RankAbility{},
		}

		item.Name, err = r.keyText(lang, rk.NameRaw)
		if err != nil {
			return nil, err
		}
		descTemplate, err := r.keyText(lang, rk.DescRaw)
		if err != nil {
			return nil, err
		}
		if descTemplate != nil {
			desc := render.RenderAny(*descTemplate, derefJSON(rk.ParamJSON))
			item.Description = &desc
		}

		if rk.SkillAddLevelJSON != nil {
			var add map[string]any
			if json.Unmarshal([]byte(*rk.SkillAddLevelJSON), &add) == nil && add != nil {
				item.SkillAddLevel = add
			}
		}
		if rk.RankAbilityJSON != nil {
			var keys []any
			if json.Unmarshal([]byte(*rk.RankAbilityJSON), &keys) == nil {
				for _, raw := range keys {
					key, _ := raw.(string)
					text, err := r.keyText(lang, &key)
					if err != nil {
						return nil, err
					}
					item.RankAbilities = append(item.RankAbilities, RankAbility{Key: key, Text: text})
				}
			}
		}

		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rank rows: %w", err)
	}
	return out, nil
}

func (r *Repo) keyText(lang string, key *string) (*string, error) {
	if key == nil || *key == "" {
		return nil, nil
	}
	text, ok, err := r.Text.ResolveKey(lang, *key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &text, nil
}

// personalStories reads the atlas index. Atlas problems degrade to an empty
// list rather than failing the whole detail.
func (r *Repo) personalStories(avatarID int64, lang string) []PersonalStory {
	out := []PersonalStory{}
	idx, err := r.Index.AvatarStories()
	if err != nil {
		return out
	}
	raw := idx.ByAvatar[avatarID]
	if len(raw) == 0 {
		return out
	}

	need := make([]string, 0, len(raw)*2)
	for _, entry := range raw {
		if entry.StoryHash != nil {
			need = append(need, *entry.StoryHash)
		}
		if h := idx.TitleHash[entry.StoryID]; h != nil {
			need = append(need, *h)
		}
	}
	texts, err := r.Text.GetMany(lang, need)
	if err != nil {
		return out
	}

	for _, entry := range raw {
		story := PersonalStory{
			StoryID:     entry.StoryID,
			Unlock:      entry.Unlock,
			TitleHash:   idx.TitleHash[entry.StoryID],
			ContentHash: entry.StoryHash,
		}
		if story.TitleHash != nil {
			if text, ok := texts[*story.TitleHash]; ok {
				story.Title = &text
			}
		}
		if story.ContentHash != nil {
			if text, ok := texts[*story.ContentHash]; ok {
				story.Content = &text
			}
		}
		out = append(out, story)
	}
	return out
}

func decodeIDList(raw *string) []int64 {
	if raw == nil || *raw == "" {
		return nil
	}
	var nums []json.Number
	if err := json.Unmarshal([]byte(*raw), &nums); err != nil {
		return nil
	}
	out := make([]int64, 0, len(nums))
	for _, n := range nums {
		if v, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
			out = append(out, v)
		}
	}
	return out
}

func derefJSON(raw *string) any {
	if raw == nil {
		return nil
	}
	return *raw
}

func paramValues(raw *string) []float64 {
	v := render.ParamValues(derefJSON(raw))
	if v == nil {
		return []float64{}
	}
	return v
}
