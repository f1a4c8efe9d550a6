package main

import (
	"github.com/spf13/cobra"

	"github.com/VisageDvachevsky/wink-ai-model/internal/taxonomy"
)

type categoryRow struct {
	Key   taxonomy.Category `json:"key"`
	Label string            `json:"label"`
	Icon  string            `json:"icon"`
	Group string            `json:"group"`
}

func newTaxonomyCmd(opts *rootOptions) *cobra.Command {
	var (
		file string
		lang string
	)
	cmd := &cobra.Command{
		Use:   "taxonomy [key]",
		Short: "Print the content category taxonomy",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tax, err := taxonomy.Default()
			if file != "" {
				tax, err = taxonomy.Load(file)
			}
			if err != nil {
				return err
			}

			row := func(info taxonomy.Info) categoryRow {
				return categoryRow{
					Key:   info.Key,
					Label: tax.Label(string(info.Key), lang),
					Icon:  info.Icon,
					Group: info.Group,
				}
			}

			if len(args) == 1 {
				info, err := tax.Lookup(args[0])
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), opts.output, row(info))
			}

			var rows []categoryRow
			for _, info := range tax.Entries() {
				rows = append(rows, row(info))
			}
			return render(cmd.OutOrStdout(), opts.output, rows)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "taxonomy YAML file (default: built-in table)")
	cmd.Flags().StringVarP(&lang, "lang", "l", taxonomy.DefaultLanguage, "label language")
	return cmd
}
