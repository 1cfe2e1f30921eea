package item

import (
	"hsrdb/internal/render"
)

// LightConeSummary is the level-1 skill annotation attached to equipment
// rows in search results.
type LightConeSummary struct {
	EquipmentID    int64     `json:"equipment_id"`
	SkillID        *int64    `json:"skill_id"`
	AvatarBaseType *string   `json:"avatar_base_type"`
	MaxRank        *int64    `json:"max_rank"`
	MaxPromotion   *int64    `json:"max_promotion"`
	SkillNameHash  *string   `json:"skill_name_hash"`
	SkillDescHash  *string   `json:"skill_desc_hash"`
	ParamValues    []float64 `json:"param_values"`
	SkillName      *string   `json:"skill_name"`
	SkillDesc      *string   `json:"skill_desc"`
}

type LightConeLevel struct {
	Level       int64     `json:"level"`
	SkillName   *string   `json:"skill_name"`
	SkillDesc   *string   `json:"skill_desc"`
	ParamValues []float64 `json:"param_values"`
}

type LightConeDetail struct {
	EquipmentID    int64            `json:"equipment_id"`
	SkillID        *int64           `json:"skill_id"`
	AvatarBaseType *string          `json:"avatar_base_type"`
	MaxRank        *int64           `json:"max_rank"`
	MaxPromotion   *int64           `json:"max_promotion"`
	ThumbnailPath  *string          `json:"thumbnail_path"`
	ImagePath      *string          `json:"image_path"`
	Levels         []LightConeLevel `json:"levels"`
}

// lightConeSummaries resolves level-1 skill text for the given equipment
// ids in one text_map batch.
func (r *Repo) lightConeSummaries(lang string, equipmentIDs []int64) (map[int64]*LightConeSummary, error) {
	out := make(map[int64]*LightConeSummary)
	if len(equipmentIDs) == 0 {
		return out, nil
	}
	idx, err := r.Index.LightCones()
	if err != nil {
		return nil, err
	}

	need := []string{}
	for _, id := range equipmentIDs {
		entry, ok := idx[id]
		if !ok || len(entry.Levels) == 0 {
			continue
		}
		lv1 := entry.Levels[0]
		if lv1.SkillNameHash != nil {
			need = append(need, *lv1.SkillNameHash)
		}
		if lv1.SkillDescHash != nil {
			need = append(need, *lv1.SkillDescHash)
		}
		out[id] = &LightConeSummary{
			EquipmentID:    id,
			SkillID:        entry.SkillID,
			AvatarBaseType: entry.AvatarBaseType,
			MaxRank:        entry.MaxRank,
			MaxPromotion:   entry.MaxPromotion,
			SkillNameHash:  lv1.SkillNameHash,
			SkillDescHash:  lv1.SkillDescHash,
			ParamValues:    nonNilParams(render.ParamValues(lv1.ParamList)),
		}
	}

	texts, err := r.Text.GetMany(lang, need)
	if err != nil {
		return nil, err
	}
	for _, row := range out {
		if row.SkillNameHash != nil {
			if text, ok := texts[*row.SkillNameHash]; ok {
				row.SkillName = &text
			}
		}
		if row.SkillDescHash != nil {
			if template, ok := texts[*row.SkillDescHash]; ok {
				desc := render.RenderAny(template, row.ParamValues)
				row.SkillDesc = &desc
			}
		}
	}
	return out, nil
}

// lightConeDetail resolves skill text across every superimposition level.
// Returns nil when the equipment has no light cone entry.
func (r *Repo) lightConeDetail(lang string, equipmentID int64) (*LightConeDetail, error) {
	idx, err := r.Index.LightCones()
	if err != nil {
		return nil, err
	}
	entry, ok := idx[equipmentID]
	if !ok {
		return nil, nil
	}

	need := []string{}
	for _, lv := range entry.Levels {
		if lv.SkillNameHash != nil {
			need = append(need, *lv.SkillNameHash)
		}
		if lv.SkillDescHash != nil {
			need = append(need, *lv.SkillDescHash)
		}
	}
	texts, err := r.Text.GetMany(lang, need)
	if err != nil {
		return nil, err
	}

	levels := []LightConeLevel{}
	for _, lv := range entry.Levels {
		out := LightConeLevel{
			Level:       lv.Level,
			ParamValues: nonNilParams(render.ParamValues(lv.ParamList)),
		}
		if lv.SkillNameHash != nil {
			if text, ok := texts[*lv.SkillNameHash]; ok {
				out.SkillName = &text
			}
		}
		if lv.SkillDescHash != nil {
			if template, ok := texts[*lv.SkillDescHash]; ok {
				desc := render.RenderAny(template, out.ParamValues)
				out.SkillDesc = &desc
			}
		}
		levels = append(levels, out)
	}

	return &LightConeDetail{
		EquipmentID:    equipmentID,
		SkillID:        entry.SkillID,
		AvatarBaseType: entry.AvatarBaseType,
		MaxRank:        entry.MaxRank,
		MaxPromotion:   entry.MaxPromotion,
		ThumbnailPath:  entry.ThumbnailPath,
		ImagePath:      entry.ImagePath,
		Levels:         levels,
	}, nil
}

func nonNilParams(v []float64) []float64 {
	if v == nil {
		return []float64{}
	}
	return v
}
