package cmd

import (
	"context"
	"fmt"
	"iter"
	"math"
	"math/rand/v2"
	"os"
	"os/signal"
	"time"

	"github.com/Iron-Ham/sparcli"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Chart two synthetic producers",
	Long: `Run two producers side by side: a random walk recorded through a
scoped producer and a sine wave recorded through an iterator. Both print
the occasional line so you can watch program output scroll above the
chart.`,
	Args: cobra.NoArgs,
	RunE: runDemo,
}

func init() {
	rootCmd.AddCommand(demoCmd)

	demoCmd.Flags().Duration("duration", 10*time.Second, "how long to run")
}

func runDemo(cmd *cobra.Command, args []string) (err error) {
	duration, _ := cmd.Flags().GetDuration("duration")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, duration)
	defer cancel()

	s, err := openSession()
	if err != nil {
		return err
	}
	defer closeSession(s, &err)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.Do(func(p *sparcli.Producer) error {
			return randomWalk(ctx, p, 50*time.Millisecond)
		})
	})
	g.Go(func() error {
		i := 0
		for v := range sparcli.SeqOn(s, sine(ctx, 30*time.Millisecond), "sine") {
			if i++; i%100 == 0 {
				fmt.Printf("sine: %d samples, now %.2f\n", i, v)
			}
		}
		return nil
	})
	return g.Wait()
}

// randomWalk records a bounded random walk under "random" every interval
// until ctx is done.
func randomWalk(ctx context.Context, p *sparcli.Producer, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	x := 0.0
	for step := 1; ; step++ {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		x = max(-10, min(10, x+rand.NormFloat64()))
		if err := p.Set("random", x); err != nil {
			return err
		}
		if step%40 == 0 {
			fmt.Printf("random: step %d at %.2f\n", step, x)
		}
	}
}

// sine yields one period of a sine wave every 64 ticks until ctx is done.
func sine(ctx context.Context, interval time.Duration) iter.Seq[float64] {
	return func(yield func(float64) bool) {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for t := 0; ; t++ {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			if !yield(math.Sin(2 * math.Pi * float64(t) / 64)) {
				return
			}
		}
	}
}
