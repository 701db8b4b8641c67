package agent

import (
	"errors"
	"math/rand"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/djpetti/hearts-pomdp/engine"
)

// Phase is the controller's position in the turn cycle.
type Phase uint8

const (
	PhaseAwaitingAgentTurn Phase = iota
	PhaseAwaitingOpponentObservation
	PhaseTerminal
)

func (p Phase) String() string {
	switch p {
	case PhaseAwaitingAgentTurn:
		return "awaiting_agent_turn"
	case PhaseAwaitingOpponentObservation:
		return "awaiting_opponent_observation"
	case PhaseTerminal:
		return "terminal"
	}
	return "unknown"
}

// ControllerConfig configures one game instance.
type ControllerConfig struct {
	// Particles is the belief filter size N.
	Particles int
	// Planner is the per-decision search budget and tuning.
	Planner PlannerConfig
	// Seed drives the belief filter rng (the planner seeds its own
	// workers from Planner.Seed).
	Seed int64
}

const defaultParticles = 2000

// Controller orchestrates the online planning loop for one game: plan
// an action, commit it, fold the opponent's observed reply into the
// belief, repeat until terminal. It owns the authoritative observable
// state and the belief; the planner only ever samples the belief.
type Controller struct {
	id      uuid.UUID
	cfg     ControllerConfig
	log     *logrus.Entry
	model   *GenerativeModel
	planner *Planner
	belief  *Belief

	// public mirrors the observable game: the agent's true hand, the
	// table, and the unseen pool standing in for the opponent's hand.
	public       engine.GameState
	oppRemaining int
	phase        Phase
}

// NewController creates a controller for a single game. A nil logger
// falls back to the process-standard logrus logger.
func NewController(cfg ControllerConfig, logger *logrus.Logger) *Controller {
	if cfg.Particles <= 0 {
		cfg.Particles = defaultParticles
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	id := uuid.New()
	model := &GenerativeModel{}
	return &Controller{
		id:      id,
		cfg:     cfg,
		log:     logger.WithField("game", id),
		model:   model,
		planner: NewPlanner(cfg.Planner, model),
		phase:   PhaseTerminal, // no game until BeginGame
	}
}

// ID returns the game instance id.
func (c *Controller) ID() uuid.UUID { return c.id }

// Phase returns the controller's current state-machine phase.
func (c *Controller) Phase() Phase { return c.phase }

// BeginGame initializes the loop from the agent's dealt hand and the
// opening leader, and returns the initial belief: the uniform
// distribution over opponent hands consistent with the deal.
func (c *Controller) BeginGame(dealtHand engine.CardSet, leader uint8) (*Belief, error) {
	rng := rand.New(rand.NewSource(c.cfg.Seed))
	belief, err := NewBelief(dealtHand, leader, c.cfg.Particles, rng)
	if err != nil {
		return nil, err
	}
	c.belief = belief

	c.public = engine.GameState{
		Hands: [engine.NumPlayers]engine.CardSet{
			engine.PlayerAgent:    dealtHand,
			engine.PlayerOpponent: engine.FullDeck() &^ dealtHand,
		},
	}
	c.public.Table.FirstTrick = true
	c.public.Table.LeadCard = engine.EmptyCard
	c.public.Table.Leader = leader
	c.oppRemaining = engine.HandSize

	if leader == engine.PlayerAgent {
		c.phase = PhaseAwaitingAgentTurn
	} else {
		c.phase = PhaseAwaitingOpponentObservation
	}

	c.log.WithFields(logrus.Fields{
		"hand":   dealtHand,
		"leader": leader,
		"phase":  c.phase,
	}).Info("game started")
	return belief, nil
}

// RequestAgentAction plans and commits the agent's next play. A
// planning timeout is retried once with a doubled budget before being
// surfaced.
func (c *Controller) RequestAgentAction() (engine.Card, error) {
	if c.phase != PhaseAwaitingAgentTurn {
		return engine.EmptyCard, engine.ErrInvalidState(
			"agent action requested in phase " + c.phase.String())
	}

	action, err := c.planner.Search(c.belief)
	var timeout PlanningTimeoutError
	if errors.As(err, &timeout) {
		relaxed := c.cfg.Planner
		relaxed.PlanTime *= 2
		c.log.WithField("budget", relaxed.PlanTime).Warn("planning timed out, retrying with relaxed budget")
		action, err = NewPlanner(relaxed, c.model).Search(c.belief)
	}
	if err != nil {
		return engine.EmptyCard, err
	}

	res, err := c.public.ApplyPlay(engine.PlayerAgent, action)
	if err != nil {
		return engine.EmptyCard, err
	}
	if err := c.belief.ApplyAgentPlay(action); err != nil {
		return engine.EmptyCard, err
	}
	c.advancePhase()

	c.log.WithFields(logrus.Fields{
		"play":       action,
		"trick_done": res.Complete,
		"score":      c.public.Table.Score(engine.PlayerAgent),
		"phase":      c.phase,
	}).Info("agent played")
	return action, nil
}

// SubmitOpponentObservation folds the opponent's real play into the
// belief and the authoritative state, and returns the next phase.
func (c *Controller) SubmitOpponentObservation(card engine.Card) (Phase, error) {
	if c.phase != PhaseAwaitingOpponentObservation {
		return c.phase, engine.ErrInvalidState(
			"opponent observation submitted in phase " + c.phase.String())
	}

	if err := c.belief.UpdateOpponentPlay(card); err != nil {
		return c.phase, err
	}
	res, err := c.public.ApplyObserved(engine.PlayerOpponent, card)
	if err != nil {
		return c.phase, err
	}
	c.oppRemaining--
	c.advancePhase()

	c.log.WithFields(logrus.Fields{
		"observed":   card,
		"trick_done": res.Complete,
		"particles":  len(c.belief.particles),
		"phase":      c.phase,
	}).Info("opponent observed")
	return c.phase, nil
}

// terminal reports whether the real game has ended. The public state's
// opponent hand is the unseen pool (it always retains the held-out
// cards), so terminality is tracked via the opponent's remaining card
// count instead of GameState.IsTerminal.
func (c *Controller) terminal() bool {
	return c.public.Hands[engine.PlayerAgent].IsEmpty() &&
		c.oppRemaining == 0 &&
		c.public.Table.LeadCard == engine.EmptyCard
}

// advancePhase moves the state machine after any committed play.
func (c *Controller) advancePhase() {
	switch {
	case c.terminal():
		c.phase = PhaseTerminal
		scores := engine.RoundScores(c.public.Table.Captured)
		c.log.WithFields(logrus.Fields{
			"agent_score":    scores[engine.PlayerAgent],
			"opponent_score": scores[engine.PlayerOpponent],
		}).Info("game over")
	case c.public.ToAct() == engine.PlayerAgent:
		c.phase = PhaseAwaitingAgentTurn
	default:
		c.phase = PhaseAwaitingOpponentObservation
	}
}

// FinalScores reports the end-of-round scores, including the moonshot
// adjustment. Only valid in the terminal phase.
func (c *Controller) FinalScores() ([engine.NumPlayers]int, error) {
	if c.belief == nil || c.phase != PhaseTerminal {
		return [engine.NumPlayers]int{}, engine.ErrInvalidState(
			"final scores requested in phase " + c.phase.String())
	}
	return engine.RoundScores(c.public.Table.Captured), nil
}

// Belief exposes the current belief state, e.g. for diagnostics.
func (c *Controller) Belief() *Belief { return c.belief }
