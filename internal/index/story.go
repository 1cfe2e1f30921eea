package index

import (
	"os"
	"path/filepath"
	"sort"

	"hsrdb/internal/flex"
	"hsrdb/internal/jsonio"
)

// AvatarStory is one personal-story entry from the atlas.
type AvatarStory struct {
	StoryID   int64
	StoryHash *string
	Unlock    *int64
}

// AvatarStoryIndex joins StoryAtlas.json (story bodies per avatar) with
// StoryAtlasTextmap.json (story titles).
type AvatarStoryIndex struct {
	ByAvatar  map[int64][]AvatarStory
	TitleHash map[int64]*string
}

func loadAvatarStories(root string) (*AvatarStoryIndex, error) {
	idx := &AvatarStoryIndex{
		ByAvatar:  make(map[int64][]AvatarStory),
		TitleHash: make(map[int64]*string),
	}

	atlasPath := filepath.Join(root, "ExcelOutput", "StoryAtlas.json")
	if _, err := os.Stat(atlasPath); err == nil {
		doc, err := jsonio.Load(atlasPath)
		if err != nil {
			return nil, err
		}
		if arr, ok := doc.([]any); ok {
			for _, entry := range arr {
				row, ok := entry.(map[string]any)
				if !ok {
					continue
				}
				avatarID, ok := flex.Int(row["AvatarID"])
				if !ok {
					continue
				}
				storyID, ok := flex.Int(row["StoryID"])
				if !ok {
					continue
				}
				story := AvatarStory{StoryID: storyID}
				if h, ok := flex.Hash(row["Story"]); ok {
					story.StoryHash = &h
				}
				if u, ok := flex.Int(row["Unlock"]); ok {
					story.Unlock = &u
				}
				idx.ByAvatar[avatarID] = append(idx.ByAvatar[avatarID], story)
			}
		}
	}

	namePath := filepath.Join(root, "ExcelOutput", "StoryAtlasTextmap.json")
	if _, err := os.Stat(namePath); err == nil {
		doc, err := jsonio.Load(namePath)
		if err != nil {
			return nil, err
		}
		if arr, ok := doc.([]any); ok {
			for _, entry := range arr {
				row, ok := entry.(map[string]any)
				if !ok {
					continue
				}
				storyID, ok := flex.Int(row["StoryID"])
				if !ok {
					continue
				}
				if h, ok := flex.Hash(row["StoryName"]); ok {
					idx.TitleHash[storyID] = &h
				} else {
					idx.TitleHash[storyID] = nil
				}
			}
		}
	}

	for id := range idx.ByAvatar {
		stories := idx.ByAvatar[id]
		sort.Slice(stories, func(i, j int) bool { return stories[i].StoryID < stories[j].StoryID })
	}
	return idx, nil
}
