package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"bookreel/internal/resultcache"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the result cache",
	}

	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCacheCleanCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))

	return cacheCmd
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached results",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := openCacheOrExplain(ctx, cmd)
			if err != nil || cache == nil {
				return err
			}

			entries := cache.List()
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "Cached results: none")
				return nil
			}

			const stampLayout = "2006-01-02 15:04"
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				rows = append(rows, []string{
					entry.Title,
					entry.Author,
					entry.JobID,
					strconv.FormatInt(entry.RequestCount, 10),
					entry.CreatedAt.Local().Format(stampLayout),
					entry.ExpiresAt.Local().Format(stampLayout),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Title", "Author", "Job", "Hits", "Created", "Expires"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}
}

func newCacheCleanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Evict expired cache entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := openCacheOrExplain(ctx, cmd)
			if err != nil || cache == nil {
				return err
			}
			removed := cache.CleanExpired()
			if removed == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No expired entries")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Evicted %d expired entries\n", removed)
			return nil
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached results",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := openCacheOrExplain(ctx, cmd)
			if err != nil || cache == nil {
				return err
			}
			count := cache.Count()
			if err := cache.Clear(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d entries\n", count)
			return nil
		},
	}
}

func openCacheOrExplain(ctx *commandContext, cmd *cobra.Command) (*resultcache.Cache, error) {
	logger, err := ctx.newLogger()
	if err != nil {
		return nil, err
	}
	cache, err := ctx.openResultCache(logger)
	if err != nil {
		return nil, err
	}
	if cache == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "Result cache is disabled (set cache.enabled = true in config)")
		return nil, nil
	}
	return cache, nil
}
