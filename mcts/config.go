package mcts

import (
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// CreditFn assigns the backprop sign for ply k (0-indexed, nearest the
// expanded leaf first) of a traversal path. When Config.Credit is nil the
// sign is derived from Discount; with the default Discount of -1 that
// matches TwoPlayerCredit, which alternates -1/+1 starting with a flip at
// ply 0. Games with
// non-alternating turn order can supply their own, per the N-player open
// question in the design notes: the per-ply player identity is not
// assumed, it is an explicit extension point.
type CreditFn func(ply int) float32

// TwoPlayerCredit implements strict two-player zero-sum alternation:
// value flips sign at every ply up the path (γ = -1). ply 0 is the node
// immediately adjacent to the newly expanded leaf, which is always the
// opposing player's perspective, so it always receives one flip.
func TwoPlayerCredit(ply int) float32 {
	if ply%2 == 0 {
		return -1
	}
	return 1
}

// CooperativeCredit never flips sign (γ = +1): every node on the path
// shares the same value.
func CooperativeCredit(ply int) float32 {
	return 1
}

// Config holds every construction-time parameter recognized by the
// engine (§6). JSON tags let it round-trip the way the teacher's
// dualnet.Config and agogo.MetaData are persisted.
type Config struct {
	MaxNodes        int     `json:"max_nodes"`
	Actions         int     `json:"actions"`
	PUCTCoeff       float32 `json:"puct_coeff"`
	DirichletAlpha  float32 `json:"dirichlet_alpha"`
	DirichletEps    float32 `json:"dirichlet_epsilon"`
	NumIterations   int     `json:"num_iterations"`
	Temperature     float32 `json:"temperature"`
	Discount        float32 `json:"discount"`
	MaxDepth        int     `json:"max_depth"` // 0 = unbounded
	NumPlayers      int     `json:"num_players"`
	Credit          CreditFn `json:"-"`
}

// DefaultConfig returns a two-player zero-sum configuration with
// conventional AlphaZero-style defaults, analogous to the teacher's
// mcts.DefaultConf / dualnet.DefaultConf pattern.
func DefaultConfig(actions int) Config {
	return Config{
		MaxNodes:       512,
		Actions:        actions,
		PUCTCoeff:      1.5,
		DirichletAlpha: 0.3,
		DirichletEps:   0.25,
		NumIterations:  200,
		Temperature:    1.0,
		Discount:       -1,
		NumPlayers:     2,
	}
}

// Validate checks the construction-time invariants of §7, collecting
// every violation instead of stopping at the first (mirroring the
// teacher's agent.go use of go-multierror to report every collaborator
// close error at once).
func (c Config) Validate() error {
	var result *multierror.Error
	if c.MaxNodes < 2 {
		result = multierror.Append(result, errors.Errorf("max_nodes must be >= 2, got %d", c.MaxNodes))
	}
	if c.Actions < 1 {
		result = multierror.Append(result, errors.Errorf("actions must be >= 1, got %d", c.Actions))
	}
	if c.DirichletEps < 0 || c.DirichletEps > 1 {
		result = multierror.Append(result, errors.Errorf("dirichlet_epsilon must be in [0,1], got %f", c.DirichletEps))
	}
	if c.DirichletAlpha <= 0 {
		result = multierror.Append(result, errors.Errorf("dirichlet_alpha must be > 0, got %f", c.DirichletAlpha))
	}
	if c.PUCTCoeff < 0 {
		result = multierror.Append(result, errors.Errorf("puct_coeff must be >= 0, got %f", c.PUCTCoeff))
	}
	if c.NumIterations < 1 {
		result = multierror.Append(result, errors.Errorf("num_iterations must be >= 1, got %d", c.NumIterations))
	}
	if c.Temperature < 0 {
		result = multierror.Append(result, errors.Errorf("temperature must be >= 0, got %f", c.Temperature))
	}
	if c.NumPlayers < 1 {
		result = multierror.Append(result, errors.Errorf("num_players must be >= 1, got %d", c.NumPlayers))
	}
	if result.ErrorOrNil() != nil {
		return errors.Wrap(result, "invalid mcts config")
	}
	return nil
}

// creditFn returns c.Credit if set. Otherwise it derives per-ply credit
// from Discount by cascading multiplication (sign = discount^(ply+1):
// the node adjacent to the leaf, ply 0, always receives one flip since
// it is necessarily the opposing player's perspective), reproducing the
// source's "value *= discount at each step up, applied before the first
// node's update" for the two-player case, while still falling back
// sensibly for a zero-valued Config (e.g. one decoded from JSON, where
// function fields can't round-trip).
func (c Config) creditFn() CreditFn {
	if c.Credit != nil {
		return c.Credit
	}
	discount := c.Discount
	if discount == 0 {
		discount = -1
	}
	return func(ply int) float32 {
		sign := float32(1)
		for i := 0; i <= ply; i++ {
			sign *= discount
		}
		return sign
	}
}
