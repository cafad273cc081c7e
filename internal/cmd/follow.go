package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/Iron-Ham/sparcli"
	"github.com/fsnotify/fsnotify"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"
)

var followCmd = &cobra.Command{
	Use:   "follow FILE...",
	Short: "Chart numbers appended to files",
	Long: `Watch files and chart the numbers appended to them, one variable per
file named after its base name. Lines use the same format as "sparcli pipe".
Following stops for a file when it is removed or renamed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFollow,
}

func init() {
	rootCmd.AddCommand(followCmd)

	followCmd.Flags().Bool("from-start", false, "read existing contents before following")
}

func runFollow(cmd *cobra.Command, args []string) (err error) {
	fromStart, _ := cmd.Flags().GetBool("from-start")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	s, err := openSession()
	if err != nil {
		return err
	}
	defer closeSession(s, &err)

	p := pool.New().WithErrors().WithContext(ctx)
	for _, path := range args {
		p.Go(func(ctx context.Context) error {
			return s.Do(func(prod *sparcli.Producer) error {
				return follow(ctx, path, fromStart, prod)
			})
		})
	}
	return p.Wait()
}

// follow records the samples appended to path until ctx is done or the
// file goes away.
func follow(ctx context.Context, path string, fromStart bool, p *sparcli.Producer) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	t, err := openTail(path, fromStart)
	if err != nil {
		return err
	}
	defer t.Close()

	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	name := filepath.Base(path)
	record := func() error {
		lines, err := t.Lines()
		if err != nil {
			return err
		}
		for _, line := range lines {
			values, ok := parseSample(line, name)
			if !ok {
				fmt.Printf("%s: %s\n", name, line)
				continue
			}
			if err := p.Record(values); err != nil {
				return err
			}
		}
		return nil
	}

	if err := record(); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
				fmt.Printf("%s: no longer available, stopped following\n", name)
				return nil
			}
			if ev.Has(fsnotify.Write) {
				if err := record(); err != nil {
					return err
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch %s: %w", path, err)
		}
	}
}

// tail reads complete lines appended to a file, holding back a trailing
// partial line until its newline arrives.
type tail struct {
	f       *os.File
	r       *bufio.Reader
	offset  int64
	pending strings.Builder
}

func openTail(path string, fromStart bool) (*tail, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	t := &tail{f: f, r: bufio.NewReader(f)}
	if !fromStart {
		if t.offset, err = f.Seek(0, io.SeekEnd); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to seek %s: %w", path, err)
		}
	}
	return t, nil
}

// Lines returns the complete lines written since the last call. A file
// that shrank was truncated and is read again from the start.
func (t *tail) Lines() ([]string, error) {
	if info, err := t.f.Stat(); err == nil && info.Size() < t.offset {
		if _, err := t.f.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
		t.r.Reset(t.f)
		t.offset = 0
		t.pending.Reset()
	}

	var lines []string
	for {
		chunk, err := t.r.ReadString('\n')
		t.offset += int64(len(chunk))
		if err != nil {
			t.pending.WriteString(chunk)
			if errors.Is(err, io.EOF) {
				return lines, nil
			}
			return lines, err
		}
		t.pending.WriteString(strings.TrimSuffix(chunk, "\n"))
		lines = append(lines, strings.TrimSuffix(t.pending.String(), "\r"))
		t.pending.Reset()
	}
}

func (t *tail) Close() error {
	return t.f.Close()
}
