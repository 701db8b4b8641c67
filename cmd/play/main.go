// Command play runs self-play games: the planning agent against a
// uniform-random opponent, over freshly dealt ground-truth hands.
package main

import (
	"math/rand"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/djpetti/hearts-pomdp/agent"
	"github.com/djpetti/hearts-pomdp/appconfig"
	"github.com/djpetti/hearts-pomdp/engine"
)

func main() {
	cfg, err := appconfig.LoadAppConfig()
	if err != nil {
		logrus.WithError(err).Fatal("could not load config")
	}

	log := logrus.New()
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithError(err).Fatal("bad log level")
	}
	log.SetLevel(level)

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	var agentTotal, oppTotal int
	for game := 0; game < cfg.Games; game++ {
		scores, err := playOne(cfg, rng, log)
		if err != nil {
			log.WithError(err).WithField("game_num", game).Error("game aborted")
			os.Exit(1)
		}
		agentTotal += scores[engine.PlayerAgent]
		oppTotal += scores[engine.PlayerOpponent]
		log.WithFields(logrus.Fields{
			"game_num":       game,
			"agent_score":    scores[engine.PlayerAgent],
			"opponent_score": scores[engine.PlayerOpponent],
		}).Info("game finished")
	}

	log.WithFields(logrus.Fields{
		"games":          cfg.Games,
		"agent_total":    agentTotal,
		"opponent_total": oppTotal,
	}).Info("run finished")
}

// playOne deals a fresh game and drives the controller against a
// uniform-random legal opponent until the round ends.
func playOne(cfg *appconfig.AppConfig, rng *rand.Rand, log *logrus.Logger) ([engine.NumPlayers]int, error) {
	var scores [engine.NumPlayers]int

	truth := engine.NewDeal(rng)
	ctrl := agent.NewController(agent.ControllerConfig{
		Particles: cfg.Particles,
		Planner: agent.PlannerConfig{
			Simulations: cfg.Simulations,
			PlanTime:    cfg.PlanTime,
			Exploration: cfg.Exploration,
			Discount:    cfg.Discount,
			Workers:     cfg.Workers,
			Seed:        rng.Int63(),
		},
		Seed: rng.Int63(),
	}, log)

	if _, err := ctrl.BeginGame(truth.Hands[engine.PlayerAgent], truth.Table.Leader); err != nil {
		return scores, err
	}

	for ctrl.Phase() != agent.PhaseTerminal {
		switch ctrl.Phase() {
		case agent.PhaseAwaitingAgentTurn:
			play, err := ctrl.RequestAgentAction()
			if err != nil {
				return scores, err
			}
			if _, err := truth.ApplyPlay(engine.PlayerAgent, play); err != nil {
				return scores, err
			}

		case agent.PhaseAwaitingOpponentObservation:
			legal, err := engine.LegalPlays(truth.Hands[engine.PlayerOpponent], &truth.Table)
			if err != nil {
				return scores, err
			}
			cards := legal.Cards()
			play := cards[rng.Intn(len(cards))]
			if _, err := truth.ApplyPlay(engine.PlayerOpponent, play); err != nil {
				return scores, err
			}
			if _, err := ctrl.SubmitOpponentObservation(play); err != nil {
				return scores, err
			}
		}
	}

	return ctrl.FinalScores()
}
