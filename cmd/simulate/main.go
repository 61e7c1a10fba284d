// Command simulate plays a headless match between two scripted players and
// prints the rule events of every shot.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/playmatatu/billiards/internal/config"
	"github.com/playmatatu/billiards/internal/game"
)

func main() {
	cfg := config.Load()

	maxShots := flag.Int("shots", 200, "stop after this many shots")
	seed := flag.Int64("seed", 1, "random seed for aim jitter")
	power := flag.Float64("power", 1100, "shot power")
	jitter := flag.Float64("jitter", 0.04, "max aim error in radians")
	foul := flag.String("foul", cfg.FoulPolicy, "foul policy: turn or ball_in_hand")
	eight := flag.String("eight", cfg.EightBallRule, "eight-ball rule: reference or cleared_group")
	asJSON := flag.Bool("json", false, "print each shot result as JSON")
	realtime := flag.Bool("realtime", false, "advance by measured wall-clock frames instead of fixed steps")
	fps := flag.Int("fps", 120, "target frame rate with -realtime")
	flag.Parse()

	foulPolicy, err := game.ParseFoulPolicy(*foul)
	if err != nil {
		log.Fatal(err)
	}
	eightRule, err := game.ParseEightBallRule(*eight)
	if err != nil {
		log.Fatal(err)
	}

	m := game.NewMatch("sim", "sim", "p1", "Player 1", "p2", "Player 2",
		game.RuleOptions{FoulPolicy: foulPolicy, EightBallRule: eightRule})
	if err := m.Initialize(); err != nil {
		log.Fatal(err)
	}

	rng := rand.New(rand.NewSource(*seed))
	enc := json.NewEncoder(os.Stdout)

	for i := 0; i < *maxShots; i++ {
		snap := m.Snapshot()
		if snap.Status != game.StatusInProgress {
			break
		}

		angle := aim(snap) + (rng.Float64()*2-1)*(*jitter)
		params := game.ShotParams{Angle: angle, Power: *power}
		if *realtime {
			if err := playFrames(m, snap.CurrentTurn, params, *fps); err != nil {
				log.Fatalf("shot %d: %v", i+1, err)
			}
			continue
		}

		result, err := m.TakeShot(snap.CurrentTurn, params)
		if err != nil {
			log.Fatalf("shot %d: %v", i+1, err)
		}

		if *asJSON {
			result.Frames = nil
			enc.Encode(result)
			continue
		}
		fmt.Printf("shot %d by %s: pocketed=%v ticks=%d\n", result.ShotNumber, result.Player, result.PocketedBalls, result.Ticks)
		for _, ev := range result.Events {
			fmt.Printf("  [%6d] %-20s %s\n", ev.Tick, ev.Kind, ev.Message)
		}
	}

	snap := m.Snapshot()
	if snap.Winner == "" {
		fmt.Printf("no winner after %d shots\n", snap.ShotNumber)
		return
	}
	fmt.Printf("%s wins (%s) after %d shots\n", snap.Winner, snap.Rules.WinType, snap.ShotNumber)
}

// playFrames strikes the cue ball and advances the table by the wall-clock
// time measured between frames until everything is at rest.
func playFrames(m *game.Match, playerID string, params game.ShotParams, fps int) error {
	if fps <= 0 {
		fps = 60
	}
	if err := m.Strike(playerID, params); err != nil {
		return err
	}

	frame := time.Second / time.Duration(fps)
	var pocketed []int
	frames := 0
	last := time.Now()
	for !m.Settled() && frames < game.MaxSettleTicks {
		time.Sleep(frame)
		now := time.Now()
		res := m.Advance(now.Sub(last).Seconds())
		last = now
		frames++

		pocketed = append(pocketed, res.Pocketed...)
		for _, ev := range res.Events {
			fmt.Printf("  [%6d] %-20s %s\n", ev.Tick, ev.Kind, ev.Message)
		}
	}
	fmt.Printf("shot %d by %s: pocketed=%v frames=%d\n", m.Snapshot().ShotNumber, playerID, pocketed, frames)
	return nil
}

// aim returns the angle from the cue ball to the nearest legal target.
func aim(snap game.MatchSnapshot) float64 {
	group := snap.Rules.Player1Group
	if snap.Rules.CurrentPlayer == game.Player2 {
		group = snap.Rules.Player2Group
	}

	var cue *game.BallState
	var targets []game.BallState
	var eight *game.BallState
	for i := range snap.Balls {
		b := snap.Balls[i]
		if !b.Active {
			continue
		}
		switch {
		case b.ID == game.CueBallID:
			cue = &snap.Balls[i]
		case b.ID == game.EightBallID:
			eight = &snap.Balls[i]
		case group == game.GroupNone || b.Group == group:
			targets = append(targets, b)
		}
	}
	if cue == nil {
		return 0
	}
	if len(targets) == 0 && eight != nil {
		targets = append(targets, *eight)
	}

	best, bestDist := 0.0, math.Inf(1)
	for _, t := range targets {
		dx, dy := t.X-cue.X, t.Y-cue.Y
		if d := dx*dx + dy*dy; d < bestDist {
			best, bestDist = math.Atan2(dy, dx), d
		}
	}
	return best
}
