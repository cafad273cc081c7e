package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/Iron-Ham/sparcli"
	"github.com/spf13/cobra"
)

var pipeCmd = &cobra.Command{
	Use:   "pipe",
	Short: "Chart numbers read from stdin",
	Long: `Read lines from stdin and chart the numbers in them.

Each line is either a bare number, recorded under --name, or name=value
pairs separated by spaces or commas:

  vmstat 1 | awk '{print "free=" $4, "cpu=" 100-$15; fflush()}' | sparcli pipe

Any other line is printed unchanged above the chart.`,
	Args: cobra.NoArgs,
	RunE: runPipe,
}

func init() {
	rootCmd.AddCommand(pipeCmd)

	pipeCmd.Flags().StringP("name", "n", "value", "variable name for bare numbers")
}

func runPipe(cmd *cobra.Command, args []string) (err error) {
	name, _ := cmd.Flags().GetString("name")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	s, err := openSession()
	if err != nil {
		return err
	}
	defer closeSession(s, &err)

	return s.Do(func(p *sparcli.Producer) error {
		return consume(ctx, cmd.InOrStdin(), os.Stdout, p, name)
	})
}

// consume records every numeric line of r and copies the rest to w until r
// is exhausted or ctx is done. On cancellation r is closed when it is an
// io.Closer, so the reading goroutine is released from a blocked read.
func consume(ctx context.Context, r io.Reader, w io.Writer, p *sparcli.Producer, name string) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			if c, ok := r.(io.Closer); ok {
				_ = c.Close()
			}
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					if err != nil {
						return fmt.Errorf("failed to read input: %w", err)
					}
				default:
				}
				return nil
			}
			values, numeric := parseSample(line, name)
			if !numeric {
				fmt.Fprintln(w, line)
				continue
			}
			if err := p.Record(values); err != nil {
				return err
			}
		}
	}
}
