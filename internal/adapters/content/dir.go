// Package content reads the published puzzle dataset from disk.
package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/okian/candle/internal/domain/puzzle"
	"github.com/okian/candle/pkg/logger"
)

const (
	scheduleFile = "schedule.json"
	puzzlesDir   = "puzzles"
	puzzleExt    = ".json"
)

var idPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// DirStore serves puzzles laid out as
//
//	<root>/schedule.json        {"2026-10-19": "nvda-0042", ...}
//	<root>/puzzles/<id>.json    one puzzle per file
//
// Decoded puzzles are cached for the life of the store.
type DirStore struct {
	root string
	log  logger.Logger
	gen  puzzle.ClueGenerator

	mu    sync.RWMutex
	cache map[string]*puzzle.Puzzle
}

var _ puzzle.ContentStore = (*DirStore)(nil)

// Option configures a DirStore.
type Option func(*DirStore)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(d *DirStore) {
		if l != nil {
			d.log = l
		}
	}
}

// WithClueGenerator fills in missing prose clues on first load.
func WithClueGenerator(g puzzle.ClueGenerator) Option {
	return func(d *DirStore) {
		d.gen = g
	}
}

// NewDirStore creates a store rooted at root.
func NewDirStore(root string, opts ...Option) *DirStore {
	d := &DirStore{
		root:  root,
		log:   logger.Nop(),
		cache: make(map[string]*puzzle.Puzzle),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.log = d.log.Named("content")
	return d
}

func (d *DirStore) Puzzle(ctx context.Context, id string) (*puzzle.Puzzle, error) {
	if !idPattern.MatchString(id) {
		return nil, fmt.Errorf("%w: %q", puzzle.ErrNotFound, id)
	}

	d.mu.RLock()
	p, ok := d.cache[id]
	d.mu.RUnlock()
	if ok {
		return p, nil
	}

	raw, err := os.ReadFile(filepath.Join(d.root, puzzlesDir, id+puzzleExt))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %q", puzzle.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("read puzzle %s: %w", id, err)
	}

	p = &puzzle.Puzzle{}
	if err := json.Unmarshal(raw, p); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", puzzle.ErrInvalidPuzzle, id, err)
	}
	if p.ID == "" {
		p.ID = id
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	d.fillClues(ctx, p)

	d.mu.Lock()
	d.cache[id] = p
	d.mu.Unlock()
	return p, nil
}

// fillClues asks the generator for a description when the dataset has none.
// Failures leave the clue empty.
func (d *DirStore) fillClues(ctx context.Context, p *puzzle.Puzzle) {
	if d.gen == nil || strings.TrimSpace(p.Clues.Description) != "" {
		return
	}
	out, err := d.gen.Generate(ctx, puzzle.ClueRequest{
		Ticker:   p.Answer.Ticker,
		Name:     p.Answer.Name,
		Sector:   p.Clues.Sector,
		Industry: p.Clues.Industry,
	})
	if err != nil {
		d.log.Warn(ctx, "clue generation failed", logger.String("puzzle", p.ID), logger.Error(err))
		return
	}
	p.Clues.Description = out.Description
	if len(p.Clues.Facts) == 0 {
		p.Clues.Facts = out.Facts
	}
}

func (d *DirStore) Schedule(_ context.Context) (map[string]string, error) {
	raw, err := os.ReadFile(filepath.Join(d.root, scheduleFile))
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read schedule: %w", err)
	}
	var schedule map[string]string
	if err := json.Unmarshal(raw, &schedule); err != nil {
		return nil, fmt.Errorf("%w: schedule: %w", puzzle.ErrInvalidPuzzle, err)
	}
	return schedule, nil
}

// Fallback lists every puzzle id in the dataset, sorted, so all devices
// agree on the rotation.
func (d *DirStore) Fallback(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(d.root, puzzlesDir))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list puzzles: %w", err)
	}
	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, puzzleExt) {
			continue
		}
		if id := strings.TrimSuffix(name, puzzleExt); idPattern.MatchString(id) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

// Selector builds a puzzle.Selector from the current schedule and fallback list.
func (d *DirStore) Selector(ctx context.Context) (*puzzle.Selector, error) {
	schedule, err := d.Schedule(ctx)
	if err != nil {
		return nil, err
	}
	fallback, err := d.Fallback(ctx)
	if err != nil {
		return nil, err
	}
	return puzzle.NewSelector(schedule, fallback), nil
}
