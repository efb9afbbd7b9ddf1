package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/FloThinksPi-Forks/vstutils/internal/util"
	"github.com/charmbracelet/x/ansi"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Load the API schema and print its models and views",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		logger := newLogger(cmd).WithPrefix("[schema]")
		defer util.RecoverPanic(logger)

		r, err := startSession(context.Background(), cmd, logger)
		if err != nil {
			logger.Fatal("error starting session: %s", err)
		}
		defer r.Close()

		if mustFlagBool(cmd, "json", false) {
			fmt.Println(util.JSONStringify(r.session.Document()))
			return
		}

		blue := color.New(color.FgBlue, color.Bold).SprintFunc()
		yellow := color.New(color.FgYellow, color.Bold).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()
		black := color.New(color.FgBlack).SprintFunc()

		var out strings.Builder
		doc := r.session.Document()
		fmt.Fprintf(&out, "%s %s\n\n", blue(doc.Info.Title), black("version: "+doc.Info.Version))
		fmt.Fprintln(&out, blue("Models"))
		for _, m := range r.session.Models().Models {
			fmt.Fprintf(&out, "  %s %s\n", yellow(m.Name), black("pk: "+m.PK()))
			for _, f := range m.Fields() {
				fmt.Fprintf(&out, "    %-24s%s\n", f.Name(), cyan(f.Format()))
			}
		}
		fmt.Fprintln(&out)
		fmt.Fprintln(&out, blue("Views"))
		for _, v := range r.session.Views().All() {
			fmt.Fprintf(&out, "  %-48s%-6s%-20s%s\n", v.Path(), v.Type, yellow(v.Model), black(strings.Join(v.Methods, ",")))
		}
		text := out.String()
		if mustFlagBool(cmd, "plain", false) {
			text = ansi.Strip(text)
		}
		fmt.Fprint(os.Stdout, text)
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
	schemaCmd.Flags().Bool("json", false, "print the schema document as JSON")
	schemaCmd.Flags().Bool("plain", false, "print without colors")
}
