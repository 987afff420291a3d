package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	plt "github.com/phil-mansfield/pyplot"

	"reclevel-sim/internal/config"
	"reclevel-sim/internal/reclevel"
	"reclevel-sim/internal/simulation"
	"reclevel-sim/internal/visualization"
	"reclevel-sim/internal/visualization/live"
)

func main() {
	var (
		configFile = flag.String("config", "", "scenario file (default: built-in 12-mic room tutorial)")
		example    = flag.Bool("example", false, "print an example scenario file and exit")
		plotDir    = flag.String("plot", "", "directory to write scenario and level figures to (needs python + matplotlib)")
		view       = flag.Bool("view", false, "open a window showing the scenario")
		parallel   = flag.Int("parallel", 0, "calls computed concurrently (default: one per CPU)")
	)
	flag.Parse()

	if *example {
		fmt.Println(config.ExampleScenarioFile)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sim, plan, opts, err := load(*configFile)
	if err != nil {
		log.Fatalf("Error creating simulation: %v", err)
	}
	if *parallel > 0 {
		opts = append(opts, reclevel.WithParallelism(*parallel))
	}
	sim.SetLevelOptions(opts...)

	if err := sim.Run(ctx, plan); err != nil {
		log.Fatalf("Simulation failed: %v", err)
	}
	sim.PrintState(os.Stdout)

	if *plotDir == "" && !*view {
		return
	}
	scene, err := visualization.NewScene(sim, visualization.NewPCAProjector())
	if err != nil {
		log.Fatalf("Error building scene: %v", err)
	}

	if *plotDir != "" {
		if err := os.MkdirAll(*plotDir, 0o755); err != nil {
			log.Fatalf("Error creating plot directory: %v", err)
		}
		visualization.PlotScenario(scene, filepath.Join(*plotDir, "scenario.png"))
		visualization.PlotLevels(scene, filepath.Join(*plotDir, "levels.png"))
		plt.Execute()
		log.Printf("Figures written to %s", *plotDir)
	}

	if *view {
		if err := live.Run(scene); err != nil {
			log.Fatalf("Viewer failed: %v", err)
		}
	}
}

func load(fname string) (*simulation.Simulation, []simulation.CallPlan, []reclevel.Option, error) {
	if fname == "" {
		sim, err := simulation.TutorialScenario()
		return sim, simulation.TutorialPlan(), nil, err
	}

	sc, err := config.ReadFile(fname)
	if err != nil {
		return nil, nil, nil, err
	}
	sim, err := sc.Build()
	if err != nil {
		return nil, nil, nil, err
	}
	return sim, sc.Plan, sc.LevelOptions, nil
}
