// Package engine wires discovery, tag extraction, caching, ranking,
// rendering, and the token-budget search into the repository map
// operations exposed to callers.
package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"repomap/internal/budget"
	"repomap/internal/config"
	"repomap/internal/discover"
	"repomap/internal/errors"
	"repomap/internal/logging"
	"repomap/internal/paths"
	"repomap/internal/rank"
	"repomap/internal/render"
	"repomap/internal/tagcache"
	"repomap/internal/tags"
	"repomap/internal/token"
)

// mapPrefix heads every generated map so consumers can recognize it.
const mapPrefix = "Repository Map:\n"

// Engine owns the tag cache, renderer, and ranking state for one
// repository. Instances are not safe for concurrent use; callers run one
// map generation at a time per instance.
type Engine struct {
	root     string
	cfg      *config.Config
	logger   *logging.Logger
	store    tagcache.TagStore
	cache    *tagcache.TagCache
	renderer *render.Renderer
	counter  token.Counter
}

// New creates an engine rooted at the given directory. The root must
// exist and the configured tokenizer must initialize; both are setup
// errors surfaced to the caller. Cache problems are not: an unopenable
// disk store degrades to memory.
func New(root string, cfg *config.Config, logger *logging.Logger) (*Engine, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.New(errors.RootInvalid, fmt.Sprintf("resolving root %s", root), err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, errors.New(errors.RootInvalid, fmt.Sprintf("root directory %s", absRoot), err)
	}
	if !info.IsDir() {
		return nil, errors.New(errors.RootInvalid, fmt.Sprintf("root %s is not a directory", absRoot), nil)
	}

	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = logging.Discard()
	}

	counter, err := token.NewCounter(cfg.Map.Tokenizer)
	if err != nil {
		return nil, errors.New(errors.TokenizerUnavailable, "initializing tokenizer", err)
	}

	store := tagcache.OpenStore(absRoot, cfg.Cache.Enabled, cfg.Cache.Compression, logger)

	return &Engine{
		root:     absRoot,
		cfg:      cfg,
		logger:   logger,
		store:    store,
		cache:    tagcache.NewTagCache(store, tags.NewExtractor(), logger),
		renderer: render.NewRenderer(cfg.Render.MaxLineLength, logger),
		counter:  counter,
	}, nil
}

// Root returns the engine's absolute repository root.
func (e *Engine) Root() string {
	return e.root
}

// Close releases the underlying tag store.
func (e *Engine) Close() error {
	return e.cache.Close()
}

func (e *Engine) relPath(absPath string) string {
	rel, err := paths.CanonicalizePath(absPath, e.root)
	if err != nil {
		return paths.NormalizePath(absPath)
	}
	return rel
}

// resolveExisting maps caller-supplied paths (relative to root or
// absolute) to absolute paths, dropping anything that doesn't exist or
// falls outside the repository.
func (e *Engine) resolveExisting(relPaths []string) []string {
	var out []string
	for _, p := range relPaths {
		abs := paths.ResolveAbs(e.root, p)
		if _, err := os.Stat(abs); err != nil {
			e.logger.Warn("Skipping missing file", map[string]interface{}{"path": p})
			continue
		}
		if !paths.IsWithinRepo(abs, e.root) {
			e.logger.Warn("Skipping file outside repository", map[string]interface{}{"path": p})
			continue
		}
		out = append(out, abs)
	}
	return out
}

// scan extracts (or fetches cached) tags for every file, keyed by
// relative path. Per-file failures are logged and the file kept as a
// tagless candidate.
func (e *Engine) scan(ctx context.Context, absFiles []string, forceRefresh bool) map[string][]tags.Tag {
	fileTags := make(map[string][]tags.Tag, len(absFiles))
	for _, abs := range absFiles {
		rel := e.relPath(abs)
		fileTagList, err := e.cache.GetTags(ctx, rel, abs, forceRefresh)
		if err != nil {
			e.logger.Warn("Tag extraction failed", map[string]interface{}{
				"file":  rel,
				"error": err.Error(),
			})
		}
		fileTags[rel] = fileTagList
	}
	return fileTags
}

func (e *Engine) rankOptions() rank.Options {
	return rank.Options{
		Damping:          e.cfg.Ranking.Damping,
		Tolerance:        e.cfg.Ranking.Tolerance,
		MaxIterations:    e.cfg.Ranking.MaxIterations,
		ChatBoost:        e.cfg.Ranking.ChatBoost,
		IdentBoost:       e.cfg.Ranking.IdentBoost,
		CommonPenalty:    e.cfg.Ranking.CommonPenalty,
		CommonDefsCutoff: e.cfg.Ranking.CommonDefsCutoff,
	}
}

// GenerateMap builds the ranked, budget-fitted repository map. Focus
// files are treated as already visible: they bias the ranking but never
// appear in the output. A nil backgroundOverride means "discover the
// repository"; a non-nil one restricts the candidate set. Returns ""
// when there is nothing to map or the budget is zero.
func (e *Engine) GenerateMap(ctx context.Context, focus []string, backgroundOverride []string, forceRefresh bool) (out string, err error) {
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			e.logger.Error("Map generation panicked, returning empty map", map[string]interface{}{
				"panic": fmt.Sprint(p),
			})
			out, err = "", nil
		}
	}()

	if e.cfg.Map.MaxTokens <= 0 {
		e.logger.Info("Token budget is zero, skipping map generation", nil)
		return "", nil
	}

	focusAbs := e.resolveExisting(focus)
	focusSet := make(map[string]struct{}, len(focusAbs))
	focusRel := make([]string, 0, len(focusAbs))
	for _, abs := range focusAbs {
		rel := e.relPath(abs)
		if _, ok := focusSet[rel]; !ok {
			focusSet[rel] = struct{}{}
			focusRel = append(focusRel, rel)
		}
	}

	var backgroundAbs []string
	if backgroundOverride != nil {
		backgroundAbs = e.resolveExisting(backgroundOverride)
	} else {
		var err error
		backgroundAbs, err = discover.Files(e.root)
		if err != nil {
			return "", fmt.Errorf("discovering files: %w", err)
		}
	}

	backgroundRel := make([]string, 0, len(backgroundAbs))
	scanAbs := append([]string{}, focusAbs...)
	for _, abs := range backgroundAbs {
		rel := e.relPath(abs)
		if _, ok := focusSet[rel]; ok {
			continue
		}
		backgroundRel = append(backgroundRel, rel)
		scanAbs = append(scanAbs, abs)
	}

	if len(scanAbs) == 0 {
		e.logger.Info("No source files to map", nil)
		return "", nil
	}

	fileTags := e.scan(ctx, scanAbs, forceRefresh)
	items := rank.Rank(focusRel, backgroundRel, fileTags, discover.IsImportant, e.rankOptions())
	if len(items) == 0 {
		return "", nil
	}

	// Rendered snippets from a previous search must not leak into this
	// one; parse contexts survive, mtime checks keep them honest.
	e.renderer.ClearTreeCache()

	result := budget.Fit(len(items), e.cfg.Map.MaxTokens, func(n int) (string, int) {
		text := e.renderer.FormatMap(items[:n], focusSet)
		return text, e.counter.Count(text)
	})

	if result.Text == "" {
		e.logger.Info("No map content fits the token budget", nil)
		return "", nil
	}

	e.logger.Debug("Map generated", map[string]interface{}{
		"items":    result.PrefixLen,
		"tokens":   result.Tokens,
		"budget":   e.cfg.Map.MaxTokens,
		"duration": time.Since(start).Milliseconds(),
	})
	return mapPrefix + result.Text, nil
}

// RelatedFiles returns, sorted and deduplicated, every file sharing an
// identifier edge with the targets: files that reference something a
// target defines, and files that define something a target references.
func (e *Engine) RelatedFiles(ctx context.Context, targets []string) ([]string, error) {
	targetAbs := e.resolveExisting(targets)
	if len(targetAbs) == 0 {
		return nil, nil
	}
	targetRel := make([]string, 0, len(targetAbs))
	for _, abs := range targetAbs {
		targetRel = append(targetRel, e.relPath(abs))
	}

	allAbs, err := discover.Files(e.root)
	if err != nil {
		return nil, fmt.Errorf("discovering files: %w", err)
	}
	fileTags := e.scan(ctx, allAbs, false)
	for i, abs := range targetAbs {
		rel := targetRel[i]
		if _, ok := fileTags[rel]; !ok {
			fileTagList, err := e.cache.GetTags(ctx, rel, abs, false)
			if err == nil {
				fileTags[rel] = fileTagList
			}
		}
	}

	return rank.Related(targetRel, fileTags), nil
}

// RenderCacheDump renders every tag currently held in the cache without
// ranking or budget fitting, for inspection. Entries for files that no
// longer exist are skipped.
func (e *Engine) RenderCacheDump(ctx context.Context) (string, error) {
	entries, err := e.store.All()
	if err != nil {
		return "", fmt.Errorf("reading tag cache: %w", err)
	}

	var items []rank.Item
	taggedFiles := make(map[string]struct{})
	var bareFiles []string

	for absPath, entry := range entries {
		info, statErr := os.Stat(absPath)
		if statErr != nil || info.IsDir() {
			continue
		}
		rel := e.relPath(absPath)
		if len(entry.Tags) == 0 {
			bareFiles = append(bareFiles, rel)
			continue
		}
		taggedFiles[rel] = struct{}{}
		for _, t := range entry.Tags {
			items = append(items, rank.Item{RelPath: rel, Tags: []tags.Tag{t}})
		}
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].RelPath != items[j].RelPath {
			return items[i].RelPath < items[j].RelPath
		}
		return items[i].Tags[0].Line < items[j].Tags[0].Line
	})

	sort.Strings(bareFiles)
	for _, rel := range bareFiles {
		if _, ok := taggedFiles[rel]; ok {
			continue
		}
		items = append(items, rank.Item{RelPath: rel})
	}

	e.renderer.ClearTreeCache()
	return e.renderer.FormatMap(items, nil), nil
}
