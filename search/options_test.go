package search

import (
	"errors"
	"testing"
	"time"

	"github.com/matryer/is"

	"github.com/domino14/gamesearch/config"
)

func TestParseKind(t *testing.T) {
	is := is.New(t)
	for _, k := range AllKinds {
		parsed, err := ParseKind(k.String())
		is.NoErr(err)
		is.Equal(parsed, k)
	}
	k, err := ParseKind(" NegaScout_Memory ")
	is.NoErr(err)
	is.Equal(k, KindNegaScoutMemory)

	_, err = ParseKind("mtdf")
	is.True(errors.Is(err, ErrUnknownStrategy))
}

func TestValidate(t *testing.T) {
	is := is.New(t)
	is.NoErr(DefaultOptions().Validate())

	bad := []func(*Options){
		func(o *Options) { o.LookAhead = -1 },
		func(o *Options) { o.PercentageBestMoves = 101 },
		func(o *Options) { o.MinBestMoves = -2 },
		func(o *Options) { o.MaxQuiescentDepth = -1 },
		func(o *Options) { o.TTableMemoryFraction = 0.95 },
	}
	for _, f := range bad {
		o := DefaultOptions()
		f(&o)
		is.True(o.Validate() != nil)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	is := is.New(t)
	cfg := config.DefaultConfig()
	cfg.Set(config.ConfigSearchStrategy, "negascout")
	cfg.Set(config.ConfigLookAhead, 6)
	cfg.Set(config.ConfigQuiescence, true)
	cfg.Set(config.ConfigPollInterval, "250ms")

	o, err := OptionsFromConfig(cfg)
	is.NoErr(err)
	is.Equal(o.Strategy, KindNegaScout)
	is.Equal(o.LookAhead, 6)
	is.True(o.AlphaBeta)
	is.True(o.Quiescence)
	is.Equal(o.MaxQuiescentDepth, 8)
	is.Equal(o.PollInterval, 250*time.Millisecond)

	cfg.Set(config.ConfigSearchStrategy, "mcts")
	_, err = OptionsFromConfig(cfg)
	is.True(errors.Is(err, ErrUnknownStrategy))
}
