package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/fqclock-backend/internal/client"
	"github.com/heartmarshall/fqclock-backend/internal/client/cache"
)

type rootOptions struct {
	server    string
	cachePath string
	verbose   bool
}

func defaultServer() string {
	if s := os.Getenv("FQCLOCK_SERVER"); s != "" {
		return s
	}
	return "http://localhost:3000"
}

func defaultCachePath() string {
	if p := os.Getenv("FQCLOCK_CACHE"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".fqclock", "cache.db")
	}
	return filepath.Join(home, ".fqclock", "cache.db")
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "fqclock",
		Short:         "Sync fqclock tasks and reviews with the server",
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `fqclock pushes and pulls full snapshots of your tasks and reviews.

A push replaces everything stored on the server. When the server cannot be
reached the snapshot is kept in the local cache; read it back with
'fqclock pull --offline'.`,
	}

	root.PersistentFlags().StringVar(&opts.server, "server", defaultServer(), "server base URL (env FQCLOCK_SERVER)")
	root.PersistentFlags().StringVar(&opts.cachePath, "cache", defaultCachePath(), "local cache file (env FQCLOCK_CACHE)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log requests to stderr")

	root.AddCommand(
		newLoginCmd(opts),
		newWhoamiCmd(opts),
		newPullCmd(opts),
		newPushCmd(opts),
		newLogoutCmd(opts),
	)
	return root
}

// session opens the cache and restores the logged-in user. The returned
// func closes the cache.
func (o *rootOptions) session(cmd *cobra.Command) (*client.Client, func(), error) {
	store, err := cache.Open(o.cachePath)
	if err != nil {
		return nil, nil, err
	}

	var out io.Writer = io.Discard
	if o.verbose {
		out = cmd.ErrOrStderr()
	}
	log := slog.New(slog.NewTextHandler(out, nil))

	c := client.New(o.server, store, client.WithLogger(log))
	if _, err := c.Init(cmd.Context()); err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return c, func() { _ = store.Close() }, nil
}
