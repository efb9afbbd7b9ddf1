package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/FloThinksPi-Forks/vstutils/internal/util"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var translationsCmd = &cobra.Command{
	Use:   "translations [lang]",
	Short: "Print the languages of the API or the translations of one language",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		logger := newLogger(cmd).WithPrefix("[translations]")
		defer util.RecoverPanic(logger)

		ctx := context.Background()
		r, err := startSession(ctx, cmd, logger)
		if err != nil {
			logger.Fatal("error starting session: %s", err)
		}
		defer r.Close()

		yellow := color.New(color.FgYellow, color.Bold).SprintFunc()
		if len(args) == 0 {
			for _, lang := range r.session.Languages() {
				marker := " "
				if lang.Code == r.session.Language() {
					marker = "*"
				}
				fmt.Printf("%s %-8s%s\n", marker, yellow(lang.Code), lang.Name)
			}
			return
		}
		client := r.session.API()
		translations, err := client.GetTranslations(ctx, args[0])
		if err != nil {
			logger.Fatal("error loading translations: %s", err)
		}
		keys := make([]string, 0, len(translations))
		for k := range translations {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("%s = %s\n", yellow(k), translations[k])
		}
	},
}

func init() {
	rootCmd.AddCommand(translationsCmd)
}
