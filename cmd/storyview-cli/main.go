package main

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"storyview/internal/config"
	"storyview/internal/controller"
	"storyview/internal/library"
	"storyview/internal/remote"
	"storyview/internal/scan"
	"storyview/internal/service"
	"storyview/internal/story"
)

var (
	dbPathFlag string
	lib        *library.Library
	svc        *service.Service
	cfg        config.Config
)

func cliLogger(msg string) {
	log.Printf("[storyview-cli] %s", msg)
}

// NewRootCmd creates the root command for the CLI application.
// getService opens the deck library and builds the service on top of it, so
// tests can point the CLI at a temporary library.
func NewRootCmd(getService func(dbPath string, logger library.LoggerFunc) (*service.Service, *library.Library, error)) *cobra.Command {
	cfg = config.Load()

	var rootCmd = &cobra.Command{
		Use:           "storyview-cli",
		Short:         "storyview CLI - play and manage story decks",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			closeLibrary() // left open by a command that failed
			path := dbPathFlag
			if path == "" {
				path = cfg.LibraryDir
			}
			var err error
			svc, lib, err = getService(path, cliLogger)
			if err != nil {
				return fmt.Errorf("failed to initialize deck library: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			closeLibrary()
		},
	}

	rootCmd.AddCommand(newPlayCmd())

	var importName string
	var importTags []string
	importCmd := &cobra.Command{
		Use:   "import [deck.yaml]",
		Short: "Import a deck file into the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := svc.ImportDeck(args[0], importName)
			if err != nil {
				return err
			}
			if len(importTags) > 0 {
				if err := svc.TagDeck(info.Name, importTags); err != nil {
					return err
				}
			}
			cmd.Printf("Imported '%s' (%s): %d pages, %s\n", info.Name, info.Title, info.Items, info.Duration)
			return nil
		},
	}
	importCmd.Flags().StringVar(&importName, "name", "", "Library name (defaults to the file name)")
	importCmd.Flags().StringSliceVar(&importTags, "tag", nil, "Tags to add to the deck")
	rootCmd.AddCommand(importCmd)

	var dirName string
	var dirOpts service.DirOptions
	importDirCmd := &cobra.Command{
		Use:   "import-dir [directory]",
		Short: "Build a deck from the media in a directory and import it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := svc.DeckFromDirectory(args[0], dirOpts)
			if err != nil {
				return err
			}
			name := dirName
			if name == "" {
				name = service.DeckName(args[0])
			}
			info, err := svc.StoreDeck(name, d)
			if err != nil {
				return err
			}
			cmd.Printf("Imported '%s' (%s): %d pages, %s\n", info.Name, info.Title, info.Items, info.Duration)
			return nil
		},
	}
	importDirCmd.Flags().StringVar(&dirName, "name", "", "Library name (defaults to the directory name)")
	importDirCmd.Flags().StringVar(&dirOpts.Title, "title", "", "Deck title")
	importDirCmd.Flags().BoolVar(&dirOpts.Shuffle, "shuffle", false, "Shuffle the pages")
	importDirCmd.Flags().Int64Var(&dirOpts.Seed, "seed", 0, "Shuffle seed (0 picks one)")
	importDirCmd.Flags().DurationVar(&dirOpts.PageDuration, "duration", 0, "Duration of every page")
	rootCmd.AddCommand(importDirCmd)

	var listTag string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List decks in the library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			infos, err := svc.ListDecks(listTag)
			if err != nil {
				return err
			}
			if len(infos) == 0 {
				cmd.Println("No decks found in the library.")
				return nil
			}
			for _, info := range infos {
				line := fmt.Sprintf("%s\t%s\t%d pages\t%s", info.Name, info.Title, info.Items, info.Duration)
				if len(info.Tags) > 0 {
					line += "\t[" + strings.Join(info.Tags, ", ") + "]"
				}
				cmd.Println(line)
			}
			return nil
		},
	}
	listCmd.Flags().StringVar(&listTag, "tag", "", "Only list decks with this tag")
	rootCmd.AddCommand(listCmd)

	showCmd := &cobra.Command{
		Use:   "show [name]",
		Short: "Show the pages of a deck",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := svc.LoadDeck(args[0])
			if err != nil {
				return err
			}
			cmd.Printf("%s (repeat: %v, indicator: %s/%s %s)\n", d.Title, d.Repeat, d.Indicator.Position, d.Indicator.Height, d.Indicator.Color)
			for i, it := range d.Items {
				mark := " "
				if it.Shown {
					mark = "*"
				}
				cmd.Printf("%s %2d. %-6s %s\n", mark, i+1, it.Duration, story.Describe(it))
			}
			missing, err := svc.MissingMedia(args[0])
			if err != nil {
				return err
			}
			for _, m := range missing {
				cmd.Printf("missing: %s\n", m)
			}
			return nil
		},
	}
	rootCmd.AddCommand(showCmd)

	removeCmd := &cobra.Command{
		Use:   "remove [name]",
		Short: "Remove a deck from the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := svc.RemoveDeck(args[0]); err != nil {
				return err
			}
			cmd.Printf("Removed deck '%s'\n", args[0])
			return nil
		},
	}
	rootCmd.AddCommand(removeCmd)

	tagCmd := &cobra.Command{
		Use:   "tag [name] [tag1,tag2,...]",
		Short: "Add tags to a deck",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return svc.TagDeck(args[0], strings.Split(args[1], ","))
		},
	}
	rootCmd.AddCommand(tagCmd)

	untagCmd := &cobra.Command{
		Use:   "untag [name] [tag1,tag2,...]",
		Short: "Remove tags from a deck",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return svc.UntagDeck(args[0], strings.Split(args[1], ","))
		},
	}
	rootCmd.AddCommand(untagCmd)

	tagsCmd := &cobra.Command{
		Use:   "tags",
		Short: "List all tags with deck counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tags, err := svc.ListAllTags()
			if err != nil {
				return err
			}
			if len(tags) == 0 {
				cmd.Println("No tags found in the library.")
				return nil
			}
			for _, tag := range tags {
				cmd.Printf("%s (%d)\n", tag.Name, tag.Count)
			}
			return nil
		},
	}
	rootCmd.AddCommand(tagsCmd)

	var tokenSubject, tokenSecret string
	var tokenTTL time.Duration
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the remote control API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := tokenSecret
			if secret == "" {
				secret = cfg.JWTSecret
			}
			token, expiresAt, err := remote.IssueToken(secret, tokenSubject, tokenTTL)
			if err != nil {
				return err
			}
			cmd.Println(token)
			cmd.PrintErrf("expires %s\n", expiresAt.Format(time.RFC3339))
			return nil
		},
	}
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "viewer", "Token subject")
	tokenCmd.Flags().StringVar(&tokenSecret, "jwt-secret", "", "Signing secret (defaults to STORYVIEW_JWT_SECRET)")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", cfg.TokenTTL, "Token lifetime")
	rootCmd.AddCommand(tokenCmd)

	var serverURL, serverToken string
	sessionsCmd := &cobra.Command{
		Use:   "sessions",
		Short: "List the sessions of a running player",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			infos, err := remote.NewClient(serverURL, serverToken).Sessions(cmd.Context())
			if err != nil {
				return err
			}
			for _, info := range infos {
				cmd.Printf("%s\t%s\tpage %d/%d\t%s\n", info.ID, info.Title, info.Snapshot.Index+1, len(info.Snapshot.Entries), info.Snapshot.State)
			}
			return nil
		},
	}
	sendCmd := &cobra.Command{
		Use:   "send [session] [pause|play|next|previous]",
		Short: "Send a playback command to a running player",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := controller.ParseCommand(args[1])
			if err != nil {
				return err
			}
			return remote.NewClient(serverURL, serverToken).Send(cmd.Context(), args[0], c)
		},
	}
	for _, c := range []*cobra.Command{sessionsCmd, sendCmd} {
		c.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "Remote control base URL")
		c.Flags().StringVar(&serverToken, "token", "", "Bearer token")
		rootCmd.AddCommand(c)
	}

	rootCmd.PersistentFlags().StringVar(&dbPathFlag, "dbpath", "", "Directory holding the deck library")

	return rootCmd
}

func closeLibrary() {
	if lib != nil {
		lib.Close()
		lib = nil
	}
}

func main() {
	if err := config.LoadEnv(); err != nil {
		cliLogger(fmt.Sprintf("Ignoring .env: %v", err))
	}
	getSvc := func(dbPath string, logger library.LoggerFunc) (*service.Service, *library.Library, error) {
		l, err := library.NewLibrary(dbPath, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open deck library: %w", err)
		}
		return service.NewService(l, scan.FileScannerImpl{}, logger), l, nil
	}
	rootCmd := NewRootCmd(getSvc)
	rootCmd.SetOut(os.Stdout)
	err := rootCmd.Execute()
	closeLibrary()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
