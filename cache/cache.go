// Package cache keeps loaded puzzle sets in memory so a file is parsed only
// once per process, however many commands refer to it.
package cache

import (
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/domino14/rushhour/config"
	"github.com/domino14/rushhour/puzzle"
	"github.com/domino14/rushhour/puzzleio"
)

type cache struct {
	sync.Mutex
	objects map[string]any
}

type loadFunc func(cfg *config.Config, key string) (any, error)

// GlobalObjectCache is the process-wide cache.
var GlobalObjectCache *cache

func (c *cache) get(cfg *config.Config, key string, loadFunc loadFunc) (any, error) {
	c.Lock()
	defer c.Unlock()
	if obj, ok := c.objects[key]; ok {
		log.Debug().Str("key", key).Msg("getting obj from cache")
		return obj, nil
	}
	log.Debug().Str("key", key).Msg("loading into cache")
	obj, err := loadFunc(cfg, key)
	if err != nil {
		return nil, err
	}
	c.objects[key] = obj
	return obj, nil
}

func (c *cache) evict(key string) bool {
	c.Lock()
	defer c.Unlock()
	_, ok := c.objects[key]
	delete(c.objects, key)
	return ok
}

func CreateGlobalObjectCache() {
	GlobalObjectCache = &cache{objects: make(map[string]any)}
}

func Load(cfg *config.Config, key string, loadFunc loadFunc) (any, error) {
	if GlobalObjectCache == nil {
		CreateGlobalObjectCache()
	}
	return GlobalObjectCache.get(cfg, key, loadFunc)
}

// Evict drops key, so the next Load calls its loader again.
func Evict(key string) bool {
	if GlobalObjectCache == nil {
		return false
	}
	return GlobalObjectCache.evict(key)
}

// puzzleKey resolves a puzzle file name: relative names are looked up in
// the configured data path.
func puzzleKey(cfg *config.Config, filename string) string {
	if !filepath.IsAbs(filename) && cfg != nil {
		filename = filepath.Join(cfg.GetString(config.ConfigDataPath), filename)
	}
	return "puzzles:" + filepath.Clean(filename)
}

func loadPuzzleFile(_ *config.Config, key string) (any, error) {
	return puzzleio.ReadFile(key[len("puzzles:"):])
}

// LoadPuzzles returns the puzzles in filename, reading the file the first
// time only. The returned puzzles are shared; searching the same puzzle
// from two goroutines at once is not allowed.
func LoadPuzzles(cfg *config.Config, filename string) ([]*puzzle.Puzzle, error) {
	obj, err := Load(cfg, puzzleKey(cfg, filename), loadPuzzleFile)
	if err != nil {
		return nil, err
	}
	return obj.([]*puzzle.Puzzle), nil
}

// ReloadPuzzles forgets any cached copy of filename and reads it again.
func ReloadPuzzles(cfg *config.Config, filename string) ([]*puzzle.Puzzle, error) {
	Evict(puzzleKey(cfg, filename))
	return LoadPuzzles(cfg, filename)
}
