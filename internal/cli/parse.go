package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/infobox2wd/internal/model"
	"github.com/ppiankov/infobox2wd/internal/patterns"
	"github.com/ppiankov/infobox2wd/internal/quantity"
	"github.com/ppiankov/infobox2wd/internal/timeval"
)

var (
	parseLang    string
	parseInteger bool
	parseJulian  bool
)

// parseCmd tries the value parsers on a piece of text
var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Parse a single value without fetching anything",
	Long: `Parse runs one value parser on text given on the command line and prints
the resulting Wikibase value. Useful when writing locale patterns.

Example:
  infobox2wd parse quantity "1.2 million"
  infobox2wd parse time "12 апреля 1961" --lang ru
  infobox2wd parse time "1914–1918"`,
}

var parseQuantityCmd = &cobra.Command{
	Use:   "quantity <text>",
	Short: "Parse a number with optional bounds",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		set, err := patterns.Load(parseLang)
		if err != nil {
			return err
		}
		q, err := quantity.NewParser(set).Parse(strings.Join(args, " "), parseInteger)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), model.QuantitySnak("P1181", q).String())
		return nil
	},
}

var parseTimeCmd = &cobra.Command{
	Use:   "time <text>",
	Short: "Parse a date, a range or a century",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		set, err := patterns.Load(parseLang)
		if err != nil {
			return err
		}
		p := timeval.NewParser(set)
		text := strings.Join(args, " ")

		r, err := p.ParseRange(text)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if r.IsRange() {
			fmt.Fprintf(out, "start: %s\n", resultString(*r.Start))
			fmt.Fprintf(out, "end:   %s\n", resultString(*r.End))
			return nil
		}

		res, err := p.Parse(text, parseJulian)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, resultString(res))
		return nil
	},
}

func resultString(r timeval.Result) string {
	if r.Kind != timeval.KindValue {
		return r.Kind.String()
	}
	return model.TimeSnak("P585", r.Value).String()
}

func init() {
	rootCmd.AddCommand(parseCmd)
	parseCmd.AddCommand(parseQuantityCmd)
	parseCmd.AddCommand(parseTimeCmd)

	parseCmd.PersistentFlags().StringVar(&parseLang, "lang", "en", "pattern language")
	parseQuantityCmd.Flags().BoolVar(&parseInteger, "integer", false, "require an integer amount")
	parseTimeCmd.Flags().BoolVar(&parseJulian, "julian", false, "force the Julian calendar")
}
