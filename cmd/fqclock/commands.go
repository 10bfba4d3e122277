package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/fqclock-backend/internal/client"
)

func newLoginCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "login <username>",
		Short: "Log in, creating the user on first use",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, done, err := opts.session(cmd)
			if err != nil {
				return err
			}
			defer done()

			user, err := c.Login(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", user.Username, user.ID)
			return nil
		},
	}
}

func newWhoamiCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, done, err := opts.session(cmd)
			if err != nil {
				return err
			}
			defer done()

			user := c.CurrentUser()
			if user == nil {
				return client.ErrNoUser
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", user.Username, user.ID)
			return nil
		},
	}
}

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the session; cached snapshots are kept",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, done, err := opts.session(cmd)
			if err != nil {
				return err
			}
			defer done()

			if err := c.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newPullCmd(opts *rootOptions) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Print the stored snapshot as JSON",
		Long: `Print the snapshot stored on the server as JSON.

With --offline the snapshot kept by the last failed push is printed instead.
A failed online pull never falls back to the cache on its own.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, done, err := opts.session(cmd)
			if err != nil {
				return err
			}
			defer done()

			var snap *client.Snapshot
			if offline {
				snap, err = c.CachedSnapshot(cmd.Context())
			} else {
				snap, err = c.Load(cmd.Context())
			}
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(snap)
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "read the local cache instead of the server")
	return cmd
}

func newPushCmd(opts *rootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "push",
		Short: "Replace the stored snapshot with a JSON file",
		Long: `Replace everything stored on the server with the snapshot in --file
("-" reads stdin). The file holds {"tasks": [...], "reviews": [...]}.

If the server cannot take the snapshot it is written to the local cache and
the command fails. The command also fails, without a local copy, when the
cache cannot be written.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := readSnapshot(cmd, file)
			if err != nil {
				return err
			}

			c, done, err := opts.session(cmd)
			if err != nil {
				return err
			}
			defer done()

			msg, err := c.Save(cmd.Context(), snap.Tasks, snap.Reviews)
			if errors.Is(err, client.ErrSaveFailed) {
				fmt.Fprintln(cmd.ErrOrStderr(), "Snapshot kept in local cache; run 'fqclock pull --offline' to see it")
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d tasks, %d reviews)\n", msg, len(snap.Tasks), len(snap.Reviews))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", `snapshot JSON file, "-" for stdin`)
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func readSnapshot(cmd *cobra.Command, path string) (*client.Snapshot, error) {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open snapshot: %w", err)
		}
		defer f.Close()
		r = f
	}

	var snap client.Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}
