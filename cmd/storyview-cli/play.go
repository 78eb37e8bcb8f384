package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"storyview/internal/deck"
	"storyview/internal/gesture"
	"storyview/internal/playback"
	"storyview/internal/progress"
	"storyview/internal/remote"
	"storyview/internal/service"
	"storyview/internal/story"
)

type playOptions struct {
	name      string
	dir       string
	shuffle   bool
	repeat    bool
	listen    string
	jwtSecret string
	frame     time.Duration
	width     int
	noInput   bool
}

func newPlayCmd() *cobra.Command {
	var opts playOptions
	cmd := &cobra.Command{
		Use:   "play [deck.yaml]",
		Short: "Play a story in the terminal",
		Long: `Play a story from a deck file, a library deck (--name) or a media directory (--dir).
The indicator row is printed as the story plays. Type ? and enter for the key map.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("repeat") {
				opts.repeat = cfg.Repeat
			}
			if !cmd.Flags().Changed("listen") {
				opts.listen = cfg.ListenAddr
			}
			if opts.jwtSecret == "" {
				opts.jwtSecret = cfg.JWTSecret
			}
			return runPlay(cmd, args, opts)
		},
	}
	cmd.Flags().StringVar(&opts.name, "name", "", "Play a deck from the library")
	cmd.Flags().StringVar(&opts.dir, "dir", "", "Play the media found in a directory")
	cmd.Flags().BoolVar(&opts.shuffle, "shuffle", false, "Shuffle pages built with --dir")
	cmd.Flags().BoolVar(&opts.repeat, "repeat", false, "Start over after the last page")
	cmd.Flags().StringVar(&opts.listen, "listen", "", "Serve the remote control API on this address")
	cmd.Flags().StringVar(&opts.jwtSecret, "jwt-secret", "", "Require bearer tokens signed with this secret")
	cmd.Flags().DurationVar(&opts.frame, "frame", cfg.FrameInterval, "Indicator refresh interval (0 redraws on changes only)")
	cmd.Flags().IntVar(&opts.width, "width", cfg.BarWidth, "Width of each indicator bar")
	cmd.Flags().BoolVar(&opts.noInput, "no-input", false, "Ignore standard input")
	return cmd
}

func loadPlayDeck(args []string, opts playOptions) (*deck.Deck, error) {
	sources := 0
	for _, set := range []bool{len(args) == 1, opts.name != "", opts.dir != ""} {
		if set {
			sources++
		}
	}
	if sources != 1 {
		return nil, errors.New("give exactly one of a deck file, --name or --dir")
	}
	switch {
	case opts.name != "":
		return svc.LoadDeck(opts.name)
	case opts.dir != "":
		return svc.DeckFromDirectory(opts.dir, service.DirOptions{Shuffle: opts.shuffle})
	default:
		return deck.Load(args[0])
	}
}

func runPlay(cmd *cobra.Command, args []string, opts playOptions) error {
	d, err := loadPlayDeck(args, opts)
	if err != nil {
		return err
	}
	if opts.repeat {
		d.Repeat = true
	}
	out := &lockedWriter{w: cmd.OutOrStdout()}

	images := service.NewImageService()
	player, err := service.NewPlayer(service.PlayerConfig{
		Name:          opts.name,
		Deck:          d,
		FrameInterval: opts.frame,
		Logger:        cliLogger,
		Loader: func(it story.Item) error {
			page, err := images.LoadPage(it)
			if err == nil && page.Caption != "" {
				if _, ok := it.Content.(story.Image); ok {
					fmt.Fprintf(out, "  %s\n", page.Caption)
				}
			}
			return err
		},
		OnStoryShow: func(it story.Item, index int) {
			fmt.Fprintf(out, "page %d/%d: %s\n", index+1, len(d.Items), story.Describe(it))
		},
		OnContentError: func(it story.Item, index int, err error) {
			fmt.Fprintf(out, "page %d failed to load: %v\n", index+1, err)
		},
	})
	if err != nil {
		return err
	}

	if d.Indicator.Position != progress.Hidden {
		renderer := progress.NewTextRenderer(out, opts.width)
		defer player.Watch(renderer.Render)()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	interp := gesture.NewInterpreter(gesture.Config{
		Controller: player.Controller(),
		State:      player.Engine(),
		OnTapNext: func(it story.Item, index int) {
			fmt.Fprintf(out, "tap: skipping page %d\n", index+1)
		},
		OnTapPrevious: func(it story.Item, index int, hasEarlier bool) {
			fmt.Fprintf(out, "tap: back to page %d\n", index+1)
		},
		OnVerticalSwipeComplete: func(dir gesture.Direction) {
			fmt.Fprintf(out, "swipe %s\n", dir)
			if dir == gesture.Down {
				cancel()
			}
		},
		OnHorizontalSwipeComplete: func(dir gesture.Direction) {
			fmt.Fprintf(out, "swipe %s\n", dir)
		},
	})

	player.Start()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		select {
		case <-player.Done():
			fmt.Fprintln(out, "story complete")
		case <-gctx.Done():
		}
		cancel()
		return nil
	})

	if !opts.noInput {
		lines := make(chan string)
		go func() {
			defer close(lines)
			sc := bufio.NewScanner(cmd.InOrStdin())
			for sc.Scan() {
				select {
				case lines <- sc.Text():
				case <-gctx.Done():
					return
				}
			}
		}()
		h := &inputHandler{interp: interp, ctrl: player.Controller(), out: out}
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				case line, ok := <-lines:
					if !ok {
						return nil
					}
					if h.handle(line) {
						cancel()
						return nil
					}
				}
			}
		})
	}

	if opts.listen != "" {
		srv := remote.NewServer(remote.Config{JWTSecret: opts.jwtSecret, Logger: cliLogger})
		id := srv.Register(player)
		fmt.Fprintf(out, "remote session %s on %s\n", id, opts.listen)
		g.Go(func() error {
			if err := srv.ListenAndServe(gctx, opts.listen); err != nil {
				return fmt.Errorf("remote control: %w", err)
			}
			return nil
		})
	}

	err = g.Wait()
	final := player.Stop()
	if final.State != playback.Completed {
		fmt.Fprintf(out, "stopped at page %d/%d\n", final.Index+1, len(final.Entries))
	}
	return err
}

// lockedWriter serializes writes from the engine, loader and input goroutines.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
