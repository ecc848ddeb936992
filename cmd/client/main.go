package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prasannakumar32/smart-bookmark/internal/client/api"
	"github.com/prasannakumar32/smart-bookmark/internal/client/broadcast"
	"github.com/prasannakumar32/smart-bookmark/internal/client/config"
	"github.com/prasannakumar32/smart-bookmark/internal/client/session"
	"github.com/prasannakumar32/smart-bookmark/internal/client/store"
	"github.com/prasannakumar32/smart-bookmark/internal/errors"
	"github.com/prasannakumar32/smart-bookmark/internal/logging"
	"github.com/prasannakumar32/smart-bookmark/internal/types"
	"github.com/spf13/cobra"
)

func main() {
	logging.Init("development", getEnvWithDefault("LOG_LEVEL", "warn"))
	defer logging.Sync()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func getEnvWithDefault(envName, defaultValue string) string {
	if value := os.Getenv(envName); value != "" {
		return value
	}
	return defaultValue
}

var rootCmd = &cobra.Command{
	Use:   "smark",
	Short: "Bookmark client with near-real-time sync",
	Long: `smark keeps a local view of your bookmarks in sync with the server.

Mutations apply optimistically, a push feed delivers changes from other
devices, and sibling smark processes on the same machine converge through
a shared state directory. When the push channel is down the client falls
back to polling.`,
	SilenceUsage: true,
}

func init() {
	addCmd.Flags().StringP("title", "t", "", "bookmark title (fetched from the page when empty)")
	settingsCmd.Flags().String("theme", "", "set theme (light or dark)")
	settingsCmd.Flags().String("language", "", "set language code")
	settingsCmd.Flags().Bool("reset", false, "reset settings to defaults")

	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd, listCmd, addCmd, rmCmd, watchCmd, settingsCmd)
}

// environment loads config and wires the shared state-dir plumbing.
type environment struct {
	cfg *config.Config
	bus *broadcast.Bus
}

func setup() (*environment, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return &environment{
		cfg: cfg,
		bus: broadcast.NewBus(cfg.StateDir),
	}, nil
}

// authenticated builds the sync stack for the signed-in user. The returned
// syncer is usable for one-shot mutations without Run: Add and Remove go
// straight through the engine and API.
func authenticated(ctx context.Context, env *environment) (*session.Session, *store.Syncer, error) {
	manager := session.NewManager(env.cfg.ServerURL, env.cfg.StateDir, env.bus)
	current, err := manager.Current(ctx)
	if err != nil {
		if errors.Is(err, errors.ErrNotAuthenticated) {
			return nil, nil, errors.New("not signed in, run `smark login` first")
		}
		return nil, nil, err
	}

	client := api.New(env.cfg.ServerURL, current.Token)
	email := current.Email
	userId := userIdFromEmail(email)
	cache := &store.Cache{Dir: env.cfg.StateDir, UserId: userId}
	engine := store.NewEngine(cache, env.bus)
	return current, store.NewSyncer(client, engine, env.bus), nil
}

// userIdFromEmail derives a stable cache key from the account email. The
// server does not expose its numeric user id over the API, and the cache
// only needs per-user separation on one machine.
func userIdFromEmail(email string) types.UserId {
	var h uint32 = 2166136261
	for i := 0; i < len(email); i++ {
		h ^= uint32(email[i])
		h *= 16777619
	}
	return types.UserId(h)
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in through the server's browser flow",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup()
		if err != nil {
			return err
		}
		manager := session.NewManager(env.cfg.ServerURL, env.cfg.StateDir, env.bus)
		current, err := manager.SignIn(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Signed in as %s\n", current.Email)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and revoke this device's token",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup()
		if err != nil {
			return err
		}
		manager := session.NewManager(env.cfg.ServerURL, env.cfg.StateDir, env.bus)
		if err := manager.SignOut(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("Signed out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup()
		if err != nil {
			return err
		}
		current, _, err := authenticated(cmd.Context(), env)
		if err != nil {
			return err
		}
		fmt.Println(current.Email)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List bookmarks, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup()
		if err != nil {
			return err
		}
		_, syncer, err := authenticated(cmd.Context(), env)
		if err != nil {
			return err
		}

		list, err := syncer.Api.ListBookmarks(cmd.Context())
		if err != nil {
			return err
		}
		printBookmarks(list)
		return nil
	},
}

var addCmd = &cobra.Command{
	Use:   "add <url>",
	Short: "Add a bookmark",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup()
		if err != nil {
			return err
		}
		_, syncer, err := authenticated(cmd.Context(), env)
		if err != nil {
			return err
		}
		title, _ := cmd.Flags().GetString("title")

		created, err := syncer.Add(cmd.Context(), title, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s  %s  %s\n", created.Id, created.Title, created.Url)
		return nil
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a bookmark by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup()
		if err != nil {
			return err
		}
		_, syncer, err := authenticated(cmd.Context(), env)
		if err != nil {
			return err
		}
		return syncer.Remove(cmd.Context(), types.BookmarkId(args[0]))
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the bookmark list as it changes",
	Long: `Watch prints the bookmark list every time it changes: your own
mutations, changes pushed from the server, and snapshots broadcast by
sibling smark processes. A sign-out in any process ends the watch.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup()
		if err != nil {
			return err
		}
		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		_, syncer, err := authenticated(ctx, env)
		if err != nil {
			return err
		}

		if err := env.bus.Start(ctx); err != nil {
			return fmt.Errorf("starting broadcast watcher: %w", err)
		}
		defer env.bus.Close()

		env.bus.OnAuth(func(message broadcast.AuthMessage) {
			if message.Event == broadcast.AuthSignedOut {
				fmt.Println("Signed out in another process")
				syncer.Engine.Clear()
				cancel()
			}
		})
		syncer.Engine.OnChange(func(list []types.Bookmark) {
			fmt.Printf("--- %d bookmark(s) ---\n", len(list))
			printBookmarks(list)
		})

		err = syncer.Run(ctx)
		if err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	},
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change local preferences",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup()
		if err != nil {
			return err
		}

		if reset, _ := cmd.Flags().GetBool("reset"); reset {
			return store.ResetSettings(env.cfg.StateDir)
		}

		settings := store.LoadSettings(env.cfg.StateDir)
		changed := false
		if theme, _ := cmd.Flags().GetString("theme"); theme != "" {
			if theme != "light" && theme != "dark" {
				return errors.New("theme must be light or dark")
			}
			settings.Theme = theme
			changed = true
		}
		if language, _ := cmd.Flags().GetString("language"); language != "" {
			settings.Language = language
			changed = true
		}
		if changed {
			if err := store.SaveSettings(env.cfg.StateDir, settings); err != nil {
				return err
			}
		}

		fmt.Printf("theme: %s\nnotifications: %t\nautoSave: %t\nlanguage: %s\n",
			settings.Theme, settings.Notifications, settings.AutoSave, settings.Language)
		return nil
	},
}

func printBookmarks(list []types.Bookmark) {
	for _, b := range list {
		fmt.Printf("%s  %s  %s  %s\n", b.Id, b.CreatedAt.Format("2006-01-02 15:04"), b.Title, b.Url)
	}
}
