// Command fsprobe prints how the booster would classify the foreground
// window, without changing any process.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/fpsboost/fpsboost/internal/config"
	"github.com/fpsboost/fpsboost/internal/tuner"
	"github.com/fpsboost/fpsboost/pkg/detector"
	"github.com/fpsboost/fpsboost/pkg/integrations/process"
	"github.com/fpsboost/fpsboost/pkg/utils"
	"github.com/fpsboost/fpsboost/pkg/window"
)

func main() {
	duration := flag.Duration("for", 30*time.Second, "how long to monitor")
	interval := flag.Duration("every", 2*time.Second, "sample interval")
	flag.Parse()

	cfg := config.New()

	fmt.Println("Fullscreen Probe")
	fmt.Println("================")

	probe, err := detector.New()
	if err != nil {
		log.Fatalf("Failed to create window probe: %v", err)
	}
	defer probe.Close()

	ctrl, err := process.NewSystem()
	if err != nil {
		log.Fatalf("Failed to create process controller: %v", err)
	}

	classifier := window.NewClassifier(probe, cfg.Booster.Tolerance, cfg.Booster.ShellClasses)
	throttler := tuner.NewThrottler(ctrl,
		tuner.NewTargets(cfg.Targets.Background, cfg.Targets.Protected), nil, cfg.Targets.BalancedLimit)

	fmt.Printf("\nDisplay Server: %s\n", probe.DisplayServer())
	fmt.Printf("Is Available: %v\n", probe.Available())
	fmt.Printf("Can Raise Priority: %v\n", process.CanRaisePriority())
	fmt.Printf("Tolerance: %dpx\n\n", classifier.Tolerance())

	fmt.Printf("Monitoring the foreground window for %v...\n", *duration)
	fmt.Println("Switch between windowed and fullscreen applications to test detection")
	fmt.Println()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	timeout := time.After(*duration)
	count := 0

	for {
		select {
		case <-timeout:
			fmt.Println("\nProbe completed!")
			return

		case <-ticker.C:
			count++
			h, ok := probe.ForegroundWindow()
			if !ok {
				log.Printf("[%d] No foreground window", count)
				continue
			}

			pid, _ := probe.OwningProcess(h)
			name, _ := ctrl.Name(pid)
			win, _ := probe.Geometry(h)
			mon, _ := probe.MonitorGeometry(h)

			fmt.Printf("[%d] %-20s | pid %-7d | class %-20s | %dx%d on %dx%d | fullscreen=%v\n",
				count,
				utils.Truncate(name, 20),
				pid,
				utils.Truncate(probe.ClassName(h), 20),
				win.Width, win.Height,
				mon.Width, mon.Height,
				classifier.IsFullscreen(h),
			)

			if candidates, err := throttler.Candidates(pid, cfg.Booster.Turbo); err == nil && len(candidates) > 0 {
				fmt.Printf("     would throttle %s\n", utils.Plural(len(candidates), "background app"))
			}
		}
	}
}
