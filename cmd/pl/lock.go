package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/conn-castle/pio-layer/internal/config"
	"github.com/conn-castle/pio-layer/internal/lockstore"
	"github.com/conn-castle/pio-layer/internal/messages"
)

// openLockStore resolves the lock without wiring a whole session. An invalid
// config falls back to lenient values so a broken file never blocks cleanup.
func openLockStore(flags *rootFlags, cmd *cobra.Command) (*lockstore.Store, error) {
	paths, err := resolvePaths(flags.options(cmd))
	if err != nil {
		return nil, err
	}
	cfg, err := loadConfig(paths)
	if err != nil {
		if cfg, err = config.LoadLenient(paths.ConfigPath); err != nil {
			return nil, err
		}
	}
	return newLockStore(paths, cfg)
}

func newLockCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   messages.LockUse,
		Short: messages.LockShort,
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   messages.LockStatusUse,
			Short: messages.LockStatusShort,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := openLockStore(flags, cmd)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				rec, found, err := store.Read()
				if err != nil {
					return err
				}
				if !found {
					_, _ = fmt.Fprintf(out, messages.LockNoneFmt, store.Path())
					return nil
				}
				_, _ = fmt.Fprintf(out, messages.LockRecordFmt, rec.Owner, rec.PID, rec.Host,
					rec.CreatedAt.Format(time.RFC3339), rec.HeartbeatAt.Format(time.RFC3339), store.IsStale(rec))
				return nil
			},
		},
		&cobra.Command{
			Use:   messages.LockClearStaleUse,
			Short: messages.LockClearStaleShort,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := openLockStore(flags, cmd)
				if err != nil {
					return err
				}
				removed, err := store.DestroyStaleIfOrphaned()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if removed {
					_, _ = fmt.Fprintf(out, messages.LockClearedFmt, store.Path())
					return nil
				}
				if _, found, err := store.Read(); err == nil && !found {
					_, _ = fmt.Fprintf(out, messages.LockNoneFmt, store.Path())
					return nil
				}
				_, _ = fmt.Fprintf(out, messages.LockNotStaleFmt, store.Path())
				return nil
			},
		},
		&cobra.Command{
			Use:   messages.LockDestroyUse,
			Short: messages.LockDestroyShort,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := openLockStore(flags, cmd)
				if err != nil {
					return err
				}
				if err := store.Destroy(); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), messages.LockDestroyedFmt, store.Path())
				return nil
			},
		},
	)
	return cmd
}
