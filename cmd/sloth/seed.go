package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Alp4ka/sloth/blog"
	"github.com/Alp4ka/sloth/internal/config"
)

const defaultSeed = 12

var (
	seedTags       = []string{"go, databases", "caching", "go, pagination", "notes"}
	seedCategories = []string{"Engineering", "Notes", ""}
)

var seedCmd = &cobra.Command{
	Use:   "seed [n]",
	Short: "Insert n demo posts",
	Long:  "Insert n demo posts (12 by default). Without a database they are lost on exit, use serve --seed instead.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n := defaultSeed
		if len(args) == 1 {
			var err error
			if n, err = strconv.Atoi(args[0]); err != nil || n <= 0 {
				return fmt.Errorf("invalid post count '%s'", args[0])
			}
		}

		e := envFrom(cmd)
		a, err := newApp(cmd.Context(), e.cfg, e.logger)
		if err != nil {
			return err
		}
		defer a.Close()

		return seedPosts(cmd.Context(), a.repo, n, seedActor(e.cfg))
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func seedActor(cfg *config.Config) blog.Actor {
	if len(cfg.Admins) == 0 {
		return blog.Actor{}
	}

	return blog.Actor{Email: cfg.Admins[0]}
}

// seedPosts creates n posts; every fifth one stays a draft.
func seedPosts(ctx context.Context, repo *blog.Repository, n int, actor blog.Actor) error {
	for i := 1; i <= n; i++ {
		in := blog.PostInput{
			Title:     fmt.Sprintf("Demo post %d", i),
			Body:      fmt.Sprintf("This is demo post number %d.\n\nIt exists to fill a few pages.", i),
			Published: i%5 != 0,
			Tags:      seedTags[i%len(seedTags)],
			Category:  seedCategories[i%len(seedCategories)],
		}
		if _, err := repo.CreatePost(ctx, actor, in); err != nil {
			return fmt.Errorf("failed to seed post %d: %w", i, err)
		}
	}

	return nil
}
