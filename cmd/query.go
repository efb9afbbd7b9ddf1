package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/FloThinksPi-Forks/vstutils/internal/bulk"
	"github.com/FloThinksPi-Forks/vstutils/internal/queryset"
	"github.com/FloThinksPi-Forks/vstutils/internal/schema"
	"github.com/FloThinksPi-Forks/vstutils/internal/util"
	"github.com/charmbracelet/huh"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// parseFilters turns key=value arguments into a filter map.
func parseFilters(args []string) (map[string]any, error) {
	res := make(map[string]any, len(args))
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid filter %q, expected key=value", arg)
		}
		res[k] = v
	}
	return res, nil
}

// buildQuery applies the query flags to qs.
func buildQuery(cmd *cobra.Command, qs *queryset.QuerySet) (*queryset.QuerySet, error) {
	filters, err := parseFilters(mustFlagStringSlice(cmd, "filter"))
	if err != nil {
		return nil, err
	}
	excludes, err := parseFilters(mustFlagStringSlice(cmd, "exclude"))
	if err != nil {
		return nil, err
	}
	if limit := mustFlagInt(cmd, "limit", false); limit > 0 {
		filters["limit"] = limit
	}
	if offset := mustFlagInt(cmd, "offset", false); offset > 0 {
		filters["offset"] = offset
	}
	if len(filters) > 0 {
		qs = qs.Filter(filters)
	}
	if len(excludes) > 0 {
		qs = qs.Exclude(excludes)
	}
	names := mustFlagStringSlice(cmd, "prefetch-field")
	if all := mustFlagBool(cmd, "prefetch", false); all || len(names) > 0 {
		qs = qs.Prefetch(all, names...)
	}
	return qs, nil
}

func printStats() {
	stats, err := bulk.GetSystemStats()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error reading stats: %s\n", err)
		return
	}
	black := color.New(color.FgBlack).SprintFunc()
	fmt.Println()
	fmt.Println(black(fmt.Sprintf("transactions: %.0f, parts: %.0f, responses: %.0f, time: %.3fs",
		stats.Metrics.Transactions, stats.Metrics.TransactionParts, stats.Metrics.Responses, stats.Metrics.TransactionDuration)))
	if stats.Memory != nil {
		fmt.Println(black(fmt.Sprintf("memory used: %.1f%%", stats.Memory.UsedPercent)))
	}
	if stats.Load != nil {
		fmt.Println(black(fmt.Sprintf("load: %.2f %.2f %.2f", stats.Load.Load1, stats.Load.Load5, stats.Load.Load15)))
	}
}

func confirmDelete(count int, path string) (bool, error) {
	var confirmed bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete %d items of %s?", count, path)).
				Affirmative("Confirm").
				Negative("Cancel").
				Value(&confirmed),
		),
	)
	form.WithTheme(huh.ThemeBase())
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}
	return confirmed, nil
}

var queryCmd = &cobra.Command{
	Use:   "query <path>",
	Short: "Run a query against a view of the API",
	Long: "Run a query against a list or page view of the API.\n\n" +
		util.HelpSection("Filtering", "Filters are passed as key=value pairs with --filter and --exclude,\nthe path is a concrete path such as /project/7/task/.") + "\n\n" +
		util.HelpSection("References", "Use --prefetch to resolve every reference field of the listed rows,\nor --prefetch-field to resolve only the named ones."),
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		logger := newLogger(cmd).WithPrefix("[query]")
		defer util.RecoverPanic(logger)

		ctx := context.Background()
		r, err := startSession(ctx, cmd, logger)
		if err != nil {
			logger.Fatal("error starting session: %s", err)
		}
		defer r.Close()

		qs, err := r.session.QuerySet(args[0])
		if err != nil {
			logger.Fatal("%s", err)
		}
		qs, err = buildQuery(cmd, qs)
		if err != nil {
			logger.Fatal("%s", err)
		}
		logger.Debug("running %s", qs)

		yellow := color.New(color.FgYellow, color.Bold).SprintFunc()
		green := color.New(color.FgGreen).SprintFunc()
		view, _ := r.session.Views().Get(qs.View())

		if view != nil && view.Type == schema.PageView {
			instance, err := qs.Get(ctx)
			if err != nil {
				logger.Fatal("error loading %s: %s", qs.Path(), err)
			}
			fmt.Println(util.JSONStringify(instance.Represent()))
		} else {
			list, err := qs.Items(ctx)
			if err != nil {
				logger.Fatal("error loading %s: %s", qs.Path(), err)
			}
			fmt.Printf("%s %s\n", yellow(qs.Path()), green(fmt.Sprintf("%d of %d", len(list.Instances), list.Total)))
			for _, instance := range list.Instances {
				fmt.Println(util.JSONStringify(instance.Represent()))
			}
			if mustFlagBool(cmd, "delete", false) && len(list.Instances) > 0 {
				confirmed := mustFlagBool(cmd, "confirm", false)
				if !confirmed {
					confirmed, err = confirmDelete(len(list.Instances), qs.Path())
					if err != nil {
						logger.Error("error running form: %s", err)
						logger.Info("You may use --confirm to skip this prompt")
						os.Exit(1)
					}
				}
				if confirmed {
					if err := qs.Delete(ctx); err != nil {
						logger.Error("error deleting: %s", err)
					} else {
						fmt.Printf("deleted %s\n", green(fmt.Sprintf("%d items", len(list.Instances))))
					}
				}
			}
		}
		if mustFlagBool(cmd, "stats", false) {
			printStats()
		}
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringSlice("filter", nil, "filter as key=value, may be repeated")
	queryCmd.Flags().StringSlice("exclude", nil, "exclude as key=value, may be repeated")
	queryCmd.Flags().Bool("prefetch", false, "resolve every reference field")
	queryCmd.Flags().StringSlice("prefetch-field", nil, "resolve only the named reference fields")
	queryCmd.Flags().Int("limit", 0, "the page size")
	queryCmd.Flags().Int("offset", 0, "the page offset")
	queryCmd.Flags().Bool("stats", false, "print transport and system stats")
	queryCmd.Flags().Bool("delete", false, "delete the listed items")
	queryCmd.Flags().Bool("confirm", false, "skip the delete confirmation")
}
