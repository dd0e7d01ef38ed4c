package curation

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/curator/internal/models"
	"github.com/desertthunder/curator/internal/shared"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// DefaultTTL is how long a resolution is served from cache.
const DefaultTTL = 5 * time.Minute

// BlockSource lists every curation block the user owns.
type BlockSource interface {
	RawBlocks(ctx context.Context) ([]models.CurationBlock, error)
}

type entry struct {
	res     models.Resolution
	expires time.Time
}

// ResolverOpts configures a [Resolver]. Zero values select defaults.
type ResolverOpts struct {
	TTL    time.Duration
	Now    func() time.Time
	Logger *log.Logger
}

// Resolver maps a now-playing context to the playlists its track may be filed into.
//
// Results are cached per playlist id for the TTL. Concurrent lookups of the same id share a
// single fetch; failed fetches are not cached.
type Resolver struct {
	src    BlockSource
	ttl    time.Duration
	now    func() time.Time
	logger *log.Logger
	group  singleflight.Group

	mu    sync.Mutex
	cache map[string]entry
}

// NewResolver creates a [Resolver] reading blocks from src.
func NewResolver(src BlockSource, opts ResolverOpts) *Resolver {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &Resolver{
		src:    src,
		ttl:    opts.TTL,
		now:    opts.Now,
		logger: shared.WithLogger(opts.Logger, "component", "resolver"),
		cache:  make(map[string]entry),
	}
}

// Resolve returns the target and trash playlists of the block owning contextURI's playlist.
//
// An empty id or an unmanaged playlist yields an empty [models.Resolution] and no error.
// Each caller gets its own copy of the cached value.
func (r *Resolver) Resolve(ctx context.Context, contextURI string) (models.Resolution, error) {
	id := shared.LastSegment(contextURI)
	if id == "" {
		return models.Resolution{}, nil
	}

	if res, ok := r.cached(id); ok {
		return res.Clone(), nil
	}

	v, err, joined := r.group.Do(id, func() (any, error) {
		if res, ok := r.cached(id); ok {
			return res, nil
		}

		blocks, err := r.src.RawBlocks(context.WithoutCancel(ctx))
		if err != nil {
			return models.Resolution{}, err
		}

		res := Project(blocks, id)
		r.mu.Lock()
		r.cache[id] = entry{res: res, expires: r.now().Add(r.ttl)}
		r.mu.Unlock()

		r.logger.Debug("resolved context", "id", id, "managed", !res.Empty(), "targets", len(res.TargetPlaylists))
		return res, nil
	})
	if err != nil {
		r.logger.Warn("context resolution failed", "id", id, "error", err)
		return models.Resolution{}, err
	}
	if joined {
		r.logger.Debug("joined in-flight resolution", "id", id)
	}
	return v.(models.Resolution).Clone(), nil
}

func (r *Resolver) cached(id string) (models.Resolution, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.cache[id]
	if !ok {
		return models.Resolution{}, false
	}
	if !r.now().Before(e.expires) {
		delete(r.cache, id)
		return models.Resolution{}, false
	}
	return e.res, true
}

// Invalidate drops the cached resolution for contextURI's playlist.
func (r *Resolver) Invalidate(contextURI string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cache, shared.LastSegment(contextURI))
}

// Purge drops every cached resolution.
func (r *Resolver) Purge() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.cache)
}

// Project finds the first block owning playlistID and returns its targets and trash.
//
// Targets are sorted by category name with locale-aware collation. The first TRASH playlist
// is returned as the trash.
func Project(blocks []models.CurationBlock, playlistID string) models.Resolution {
	for i := range blocks {
		block := blocks[i]
		if !block.Contains(playlistID) {
			continue
		}

		res := models.Resolution{Block: &block, TargetPlaylists: []models.CurationPlaylist{}}
		for _, p := range block.Playlists {
			switch p.Role {
			case models.RoleTarget:
				res.TargetPlaylists = append(res.TargetPlaylists, p)
			case models.RoleTrash:
				if res.TrashPlaylist == nil {
					trash := p
					res.TrashPlaylist = &trash
				}
			}
		}
		SortTargets(res.TargetPlaylists)
		return res
	}
	return models.Resolution{}
}

// SortTargets orders playlists by category name using root-locale collation.
func SortTargets(playlists []models.CurationPlaylist) {
	c := collate.New(language.Und)
	name := func(p models.CurationPlaylist) string {
		if p.CategoryName == nil {
			return ""
		}
		return *p.CategoryName
	}
	sort.SliceStable(playlists, func(i, j int) bool {
		return c.CompareString(name(playlists[i]), name(playlists[j])) < 0
	})
}
