// Package registry provides a global registry for games and strategies.
// Games and their strategies register themselves in init() functions,
// allowing the CLI to discover and instantiate them without hardcoded
// dependencies.
package registry

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"

	"github.com/vovakirdan/stratometer/internal/match"
)

// Game describes one competition season: its match clock, the actions a
// robot can take and the initial field state.
type Game interface {
	// ID returns a unique identifier for this game (e.g., "reefscape").
	// Used for CLI commands and result storage.
	ID() string

	// Title returns a human-readable name for display.
	Title() string

	// Timing returns the match clock.
	Timing() match.Timing

	// Actions returns the action set available to every strategy.
	Actions() match.Actions

	// Setup seeds the flags of a fresh match.
	Setup(f match.Flags)
}

// GameFactory creates a game definition.
type GameFactory func() Game

// StrategyFactory creates a fresh strategy for one match of g. The random
// source is owned by that match; strategies that make random decisions must
// draw from it so runs stay reproducible.
type StrategyFactory func(g Game, r *rand.Rand) match.Strategy

// GameInfo contains metadata about a registered game.
type GameInfo struct {
	ID    string
	Title string
}

// StrategyInfo contains metadata about a registered strategy.
type StrategyInfo struct {
	GameID string
	ID     string
	Title  string
}

type strategyEntry struct {
	info    StrategyInfo
	factory StrategyFactory
}

var (
	games      = make(map[string]GameFactory)
	titles     = make(map[string]string)
	strategies = make(map[string]map[string]strategyEntry)
	mu         sync.RWMutex
)

// RegisterGame adds a game factory to the registry.
// Typically called from a game's init() function.
// Panics if a game with the same ID is already registered.
func RegisterGame(id string, f GameFactory) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := games[id]; exists {
		panic(fmt.Sprintf("registry: game %q already registered", id))
	}

	games[id] = f

	// Get title by creating a temporary instance
	g := f()
	titles[id] = g.Title()
}

// RegisterStrategy adds a strategy for the given game.
// Panics if the strategy ID is already taken for that game.
func RegisterStrategy(gameID, id, title string, f StrategyFactory) {
	mu.Lock()
	defer mu.Unlock()

	byGame, ok := strategies[gameID]
	if !ok {
		byGame = make(map[string]strategyEntry)
		strategies[gameID] = byGame
	}
	if _, exists := byGame[id]; exists {
		panic(fmt.Sprintf("registry: strategy %q already registered for %q", id, gameID))
	}

	byGame[id] = strategyEntry{
		info:    StrategyInfo{GameID: gameID, ID: id, Title: title},
		factory: f,
	}
}

// Games returns information about all registered games, sorted by ID.
func Games() []GameInfo {
	mu.RLock()
	defer mu.RUnlock()

	result := make([]GameInfo, 0, len(games))
	for id := range games {
		result = append(result, GameInfo{
			ID:    id,
			Title: titles[id],
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result
}

// Strategies returns the strategies registered for a game, sorted by ID.
func Strategies(gameID string) []StrategyInfo {
	mu.RLock()
	defer mu.RUnlock()

	byGame := strategies[gameID]
	result := make([]StrategyInfo, 0, len(byGame))
	for _, e := range byGame {
		result = append(result, e.info)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result
}

// CreateGame instantiates a game by its ID.
// Returns an error if the game ID is not registered.
func CreateGame(id string) (Game, error) {
	mu.RLock()
	defer mu.RUnlock()

	f, ok := games[id]
	if !ok {
		return nil, fmt.Errorf("registry: unknown game %q", id)
	}

	return f(), nil
}

// CreateStrategy instantiates a fresh strategy for one match of g.
func CreateStrategy(g Game, id string, r *rand.Rand) (match.Strategy, error) {
	mu.RLock()
	defer mu.RUnlock()

	e, ok := strategies[g.ID()][id]
	if !ok {
		return nil, fmt.Errorf("registry: unknown strategy %q for game %q", id, g.ID())
	}

	return e.factory(g, r), nil
}

// GameExists checks if a game with the given ID is registered.
func GameExists(id string) bool {
	mu.RLock()
	defer mu.RUnlock()

	_, ok := games[id]
	return ok
}

// StrategyExists checks if a strategy is registered for a game.
func StrategyExists(gameID, id string) bool {
	mu.RLock()
	defer mu.RUnlock()

	_, ok := strategies[gameID][id]
	return ok
}
