package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/blog-articles-api/internal/models"
	"github.com/blog-articles-api/internal/service"
	"github.com/spf13/cobra"
)

// connectFunc opens the services and returns a closer
type connectFunc func() (*service.Services, func(), error)

func newRootCmd(connect connectFunc, out io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "blogctl",
		Short:         "blogctl - operator commands for the blog articles store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)

	// withServices runs fn against freshly connected services
	withServices := func(fn func(cmd *cobra.Command, svcs *service.Services, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			svcs, closeFn, err := connect()
			if err != nil {
				return err
			}
			defer closeFn()
			return fn(cmd, svcs, args)
		}
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every article and user",
		Args:  cobra.NoArgs,
		RunE: withServices(func(cmd *cobra.Command, svcs *service.Services, args []string) error {
			if err := svcs.Reset(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "All articles and users deleted")
			return nil
		}),
	}

	userCmd := &cobra.Command{Use: "user", Short: "Manage users"}
	userCmd.AddCommand(&cobra.Command{
		Use:   "create [name]",
		Short: "Create a user",
		Args:  cobra.ExactArgs(1),
		RunE: withServices(func(cmd *cobra.Command, svcs *service.Services, args []string) error {
			user, err := svcs.User.Create(cmd.Context(), &models.CreateUserInput{Name: args[0]})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), user)
		}),
	})

	articleCmd := &cobra.Command{Use: "article", Short: "Inspect and modify articles"}

	articleCmd.AddCommand(&cobra.Command{
		Use:   "find [title]",
		Short: "Print the article with exactly this title",
		Args:  cobra.ExactArgs(1),
		RunE: withServices(func(cmd *cobra.Command, svcs *service.Services, args []string) error {
			article, err := svcs.Article.FindByTitle(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if article == nil {
				return fmt.Errorf("no article titled %q", args[0])
			}
			return printJSON(cmd.OutOrStdout(), article)
		}),
	})

	articleCmd.AddCommand(&cobra.Command{
		Use:   "set-author [articleID] [userID]",
		Short: "Associate a user as the article author",
		Args:  cobra.ExactArgs(2),
		RunE: withServices(func(cmd *cobra.Command, svcs *service.Services, args []string) error {
			articleID, err := parseIDArg("articleID", args[0])
			if err != nil {
				return err
			}
			userID, err := parseIDArg("userID", args[1])
			if err != nil {
				return err
			}
			article, err := svcs.Article.SetAuthor(cmd.Context(), articleID, userID)
			if errors.Is(err, models.ErrNotFound) {
				return fmt.Errorf("article %d or user %d does not exist", articleID, userID)
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), article)
		}),
	})

	var save bool
	truncateCmd := &cobra.Command{
		Use:   "truncate [id] [length]",
		Short: "Show the article content cut to length characters",
		Args:  cobra.ExactArgs(2),
		RunE: withServices(func(cmd *cobra.Command, svcs *service.Services, args []string) error {
			id, err := parseIDArg("id", args[0])
			if err != nil {
				return err
			}
			length, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid length %q: %w", args[1], err)
			}

			ctx := cmd.Context()
			article, err := svcs.Article.GetByID(ctx, id)
			if err != nil {
				return err
			}
			if article == nil {
				return fmt.Errorf("article %d does not exist", id)
			}

			svcs.Article.Truncate(article, length)
			if save {
				article, err = svcs.Article.Update(ctx, id, models.ArticleChanges{Content: &article.Content})
				if err != nil {
					return err
				}
			}
			return printJSON(cmd.OutOrStdout(), article)
		}),
	}
	truncateCmd.Flags().BoolVar(&save, "save", false, "Persist the truncated content as a new version")
	articleCmd.AddCommand(truncateCmd)

	rootCmd.AddCommand(clearCmd, userCmd, articleCmd)
	return rootCmd
}

func parseIDArg(name, value string) (int64, error) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, value, err)
	}
	return id, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
