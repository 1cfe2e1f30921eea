package models

type Item struct {
	ItemID           int64   `json:"item_id"`
	SourceFile       *string `json:"source_file,omitempty"`
	ItemMainType     *string `json:"item_main_type,omitempty"`
	ItemSubType      *string `json:"item_sub_type,omitempty"`
	Rarity           *string `json:"rarity,omitempty"`
	PurposeType      *int64  `json:"purpose_type,omitempty"`
	PurposeTextCHS   *string `json:"purpose_text_chs,omitempty"`
	PurposeTextEN    *string `json:"purpose_text_en,omitempty"`
	ItemNameHash     *string `json:"item_name_hash,omitempty"`
	ItemNameCHS      *string `json:"item_name_chs,omitempty"`
	ItemNameEN       *string `json:"item_name_en,omitempty"`
	ItemDescHash     *string `json:"item_desc_hash,omitempty"`
	ItemDescCHS      *string `json:"item_desc_chs,omitempty"`
	ItemDescEN       *string `json:"item_desc_en,omitempty"`
	ItemBGDescHash   *string `json:"item_bg_desc_hash,omitempty"`
	ItemBGDescCHS    *string `json:"item_bg_desc_chs,omitempty"`
	ItemBGDescEN     *string `json:"item_bg_desc_en,omitempty"`
	IconPath         *string `json:"icon_path,omitempty"`
	FigureIconPath   *string `json:"figure_icon_path,omitempty"`
	CurrencyIconPath *string `json:"currency_icon_path,omitempty"`
	AvatarIconPath   *string `json:"avatar_icon_path,omitempty"`
	PileLimit        *int64  `json:"pile_limit,omitempty"`
	Name             *string `json:"name,omitempty"`
	Description      *string `json:"description,omitempty"`
	BGDescription    *string `json:"bg_description,omitempty"`
}
