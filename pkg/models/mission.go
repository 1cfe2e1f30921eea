package models

type MainMission struct {
	MainMissionID        int64   `json:"main_mission_id"`
	MissionType          *string `json:"mission_type,omitempty"`
	WorldID              *int64  `json:"world_id,omitempty"`
	ChapterID            *int64  `json:"chapter_id,omitempty"`
	MissionPack          *int64  `json:"mission_pack,omitempty"`
	DisplayPriority      *int64  `json:"display_priority,omitempty"`
	NameHash             *string `json:"name_hash,omitempty"`
	NameCHS              *string `json:"name_chs,omitempty"`
	NameEN               *string `json:"name_en,omitempty"`
	NextTrackMainMission *int64  `json:"next_track_main_mission,omitempty"`
	RewardID             *int64  `json:"reward_id,omitempty"`
	DisplayRewardID      *int64  `json:"display_reward_id,omitempty"`
	Name                 *string `json:"name,omitempty"`
}

// SubMission's parent link is a guess derived from the sub-mission id
// (id / 100). The source data carries no explicit foreign key, so the
// column is named main_mission_guess and treated as approximate.
type SubMission struct {
	SubMissionID     int64   `json:"sub_mission_id"`
	MainMissionGuess *int64  `json:"main_mission_guess,omitempty"`
	TargetHash       *string `json:"target_hash,omitempty"`
	TargetCHS        *string `json:"target_chs,omitempty"`
	TargetEN         *string `json:"target_en,omitempty"`
	DescriptionHash  *string `json:"description_hash,omitempty"`
	DescriptionCHS   *string `json:"description_chs,omitempty"`
	DescriptionEN    *string `json:"description_en,omitempty"`
	Target           *string `json:"target,omitempty"`
	Description      *string `json:"description,omitempty"`
}
