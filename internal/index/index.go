// Package index holds lazily built in-memory views over table exports that
// never went through the relational build: avatar story atlases, light cone
// (equipment) skill tables, and the monster tables. They are read straight
// from the resources root on first use and cached until Reset.
package index

import "sync"

type Cache struct {
	root string

	mu       sync.Mutex
	stories  *AvatarStoryIndex
	cones    LightConeIndex
	monsters *MonsterIndex
}

func NewCache(root string) *Cache {
	return &Cache{root: root}
}

// AvatarStories returns the avatar story atlas, loading it on first use.
func (c *Cache) AvatarStories() (*AvatarStoryIndex, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stories == nil {
		idx, err := loadAvatarStories(c.root)
		if err != nil {
			return nil, err
		}
		c.stories = idx
	}
	return c.stories, nil
}

// LightCones returns the equipment skill index keyed by equipment id.
func (c *Cache) LightCones() (LightConeIndex, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cones == nil {
		idx, err := loadLightCones(c.root)
		if err != nil {
			return nil, err
		}
		c.cones = idx
	}
	return c.cones, nil
}

// Monsters returns the merged monster/template/skill index.
func (c *Cache) Monsters() (*MonsterIndex, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.monsters == nil {
		idx, err := loadMonsters(c.root)
		if err != nil {
			return nil, err
		}
		c.monsters = idx
	}
	return c.monsters, nil
}

// Reset drops every cached view so the next read reloads from disk. Used
// after the resources root is updated in place.
func (c *Cache) Reset() {
	c.mu.Lock()
	c.stories = nil
	c.cones = nil
	c.monsters = nil
	c.mu.Unlock()
}
