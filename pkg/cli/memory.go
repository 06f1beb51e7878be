package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/shopmate-ai/shopmate/pkg/cli/config"
	"github.com/shopmate-ai/shopmate/pkg/domain/interfaces"
	"github.com/shopmate-ai/shopmate/pkg/domain/model"
	domainConfig "github.com/shopmate-ai/shopmate/pkg/domain/model/config"
	"github.com/shopmate-ai/shopmate/pkg/domain/types"
	"github.com/shopmate-ai/shopmate/pkg/usecase"
	"github.com/shopmate-ai/shopmate/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdMemory() *cli.Command {
	var repoCfg config.Repository
	var userID string

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "user",
			Aliases:     []string{"u"},
			Usage:       "User ID whose memories are inspected",
			Required:    true,
			Destination: &userID,
		},
	}
	flags = append(flags, repoCfg.Flags()...)

	// open builds a memory use case without embeddings; the operator commands
	// only need stored vectors, never new ones.
	open := func(ctx context.Context) (*usecase.MemoryUseCase, interfaces.Repository, error) {
		repo, err := repoCfg.Configure(ctx)
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to initialize repository")
		}
		return usecase.NewMemoryUseCase(repo, nil, domainConfig.DefaultAppConfig().Memory), repo, nil
	}
	closeRepo := func(repo interfaces.Repository) {
		if err := repo.Close(); err != nil {
			logging.Default().Error("failed to close repository", "error", err.Error())
		}
	}

	var query string
	var limit int
	var keep int

	return &cli.Command{
		Name:  "memory",
		Usage: "Inspect and maintain stored user memories",
		Flags: flags,
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List memories, newest first",
				Action: func(ctx context.Context, c *cli.Command) error {
					uc, repo, err := open(ctx)
					if err != nil {
						return err
					}
					defer closeRepo(repo)

					memories, err := uc.List(ctx, userID)
					if err != nil {
						return err
					}
					printMemories(os.Stdout, memories)
					return nil
				},
			},
			{
				Name:  "search",
				Usage: "Search memories by text",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "query",
						Aliases:     []string{"q"},
						Usage:       "Search text",
						Required:    true,
						Destination: &query,
					},
					&cli.IntFlag{
						Name:        "limit",
						Usage:       "Maximum number of results",
						Value:       5,
						Destination: &limit,
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					uc, repo, err := open(ctx)
					if err != nil {
						return err
					}
					defer closeRepo(repo)

					memories, err := uc.Search(ctx, query, userID, limit)
					if err != nil {
						return err
					}
					printMemories(os.Stdout, memories)
					return nil
				},
			},
			{
				Name:  "prune",
				Usage: "Delete the least important memories beyond a cap",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:        "max",
						Usage:       "Number of memories to keep",
						Value:       domainConfig.DefaultAppConfig().Memory.MaxPerUser,
						Destination: &keep,
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					uc, repo, err := open(ctx)
					if err != nil {
						return err
					}
					defer closeRepo(repo)

					deleted, err := uc.Prune(ctx, userID, keep)
					if err != nil {
						return err
					}
					fmt.Fprintf(os.Stdout, "%s %d memories deleted\n", color.GreenString("pruned"), deleted)
					return nil
				},
			},
		},
	}
}

func importanceColor(imp types.Importance) *color.Color {
	switch imp {
	case types.ImportanceHigh:
		return color.New(color.FgRed, color.Bold)
	case types.ImportanceLow:
		return color.New(color.Faint)
	default:
		return color.New(color.FgYellow)
	}
}

func printMemories(w io.Writer, memories []*model.Memory) {
	if len(memories) == 0 {
		fmt.Fprintln(w, color.New(color.Faint).Sprint("no memories"))
		return
	}

	keyColor := color.New(color.FgCyan)
	for _, m := range memories {
		fmt.Fprintf(w, "%s %s %s %s\n",
			keyColor.Sprint(m.Key),
			importanceColor(m.Metadata.Importance).Sprintf("[%s]", m.Metadata.Importance),
			color.New(color.FgMagenta).Sprintf("(%s)", m.Metadata.Category),
			m.Content,
		)
	}
}
