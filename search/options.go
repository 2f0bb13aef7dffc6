package search

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/domino14/gamesearch/config"
)

// Kind selects a search strategy.
type Kind int

const (
	KindMiniMax Kind = iota
	KindNegaMax
	KindNegaScout
	KindNegaScoutMemory
)

// AllKinds lists every strategy kind, in the order they are usually
// compared.
var AllKinds = []Kind{KindMiniMax, KindNegaMax, KindNegaScout, KindNegaScoutMemory}

func (k Kind) String() string {
	switch k {
	case KindMiniMax:
		return "minimax"
	case KindNegaMax:
		return "negamax"
	case KindNegaScout:
		return "negascout"
	case KindNegaScoutMemory:
		return "negascout-memory"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

var ErrUnknownStrategy = errors.New("unknown search strategy")

// ParseKind parses a strategy name such as "negascout" or
// "NEGASCOUT_MEMORY".
func ParseKind(s string) (Kind, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
	for _, k := range AllKinds {
		if k.String() == norm {
			return k, nil
		}
	}
	return KindMiniMax, fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
}

// Options is the configuration of a search. A game controller usually owns
// one and may change it between searches, but never during one.
type Options struct {
	LookAhead int
	// PercentageBestMoves is the percentage of generated moves a game keeps
	// at each ply, best first. MinBestMoves is the floor on that count.
	PercentageBestMoves int
	MinBestMoves        int
	AlphaBeta           bool
	Quiescence          bool
	MaxQuiescentDepth   int
	Strategy            Kind

	// TranspositionTable turns on the position store of the
	// NegaScoutMemory strategy. It needs a game that implements
	// PositionKeyer.
	TranspositionTable   bool
	TTableMemoryFraction float64
	// CheckSymmetry asserts that every internal move is undone in the
	// reverse order it was made.
	CheckSymmetry bool
	PollInterval  time.Duration
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		LookAhead:           4,
		PercentageBestMoves: 100,
		MinBestMoves:        0,
		AlphaBeta:           true,
		Quiescence:          false,
		MaxQuiescentDepth:   DefaultMaxQuiescentDepth,
		Strategy:            KindMiniMax,
		PollInterval:        DefaultPollInterval,
	}
}

// Validate checks the options for values outside of their ranges.
func (o Options) Validate() error {
	switch {
	case o.LookAhead < 0:
		return fmt.Errorf("lookahead must be non-negative, got %d", o.LookAhead)
	case o.PercentageBestMoves < 0 || o.PercentageBestMoves > 100:
		return fmt.Errorf("percentage of best moves must be within 0-100, got %d", o.PercentageBestMoves)
	case o.MinBestMoves < 0:
		return fmt.Errorf("minimum best moves must be non-negative, got %d", o.MinBestMoves)
	case o.MaxQuiescentDepth < 0:
		return fmt.Errorf("max quiescent depth must be non-negative, got %d", o.MaxQuiescentDepth)
	case o.TTableMemoryFraction < 0 || o.TTableMemoryFraction > 0.9:
		return fmt.Errorf("transposition table memory fraction must be within 0-0.9, got %v", o.TTableMemoryFraction)
	case o.PollInterval < 0:
		return fmt.Errorf("poll interval must be non-negative, got %v", o.PollInterval)
	}
	return nil
}

// OptionsFromConfig builds options from the configuration.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	kind, err := ParseKind(cfg.GetString(config.ConfigSearchStrategy))
	if err != nil {
		return Options{}, err
	}
	o := Options{
		LookAhead:            cfg.GetInt(config.ConfigLookAhead),
		PercentageBestMoves:  cfg.GetInt(config.ConfigPercentageBestMoves),
		MinBestMoves:         cfg.GetInt(config.ConfigMinBestMoves),
		AlphaBeta:            cfg.GetBool(config.ConfigAlphaBeta),
		Quiescence:           cfg.GetBool(config.ConfigQuiescence),
		MaxQuiescentDepth:    cfg.GetInt(config.ConfigMaxQuiescentDepth),
		Strategy:             kind,
		TranspositionTable:   cfg.GetBool(config.ConfigTranspositionTable),
		TTableMemoryFraction: cfg.GetFloat64(config.ConfigTTableMemoryFraction),
		CheckSymmetry:        cfg.GetBool(config.ConfigCheckSymmetry),
		PollInterval:         cfg.GetDuration(config.ConfigPollInterval),
	}
	return o, o.Validate()
}

// String renders the options for display.
func (o Options) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "strategy:              %v\n", o.Strategy)
	fmt.Fprintf(&sb, "lookahead:             %d\n", o.LookAhead)
	fmt.Fprintf(&sb, "alphabeta:             %v\n", o.AlphaBeta)
	fmt.Fprintf(&sb, "quiescence:            %v\n", o.Quiescence)
	fmt.Fprintf(&sb, "maxquiescentdepth:     %d\n", o.MaxQuiescentDepth)
	fmt.Fprintf(&sb, "percentagebestmoves:   %d\n", o.PercentageBestMoves)
	fmt.Fprintf(&sb, "minbestmoves:          %d\n", o.MinBestMoves)
	fmt.Fprintf(&sb, "transpositiontable:    %v\n", o.TranspositionTable)
	fmt.Fprintf(&sb, "checksymmetry:         %v\n", o.CheckSymmetry)
	return sb.String()
}
