package cmd

import (
	"fmt"
	"os"

	"sqlprep/internal/apperr"
	"sqlprep/internal/sanitizer"

	"github.com/spf13/cobra"
)

var (
	rulesFile   string
	nameTags    []string
	addressTags []string
)

var sanitizeCmd = &cobra.Command{
	Use:   "sanitize",
	Short: "Run place name tags through a sanitizer rule file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var rules []sanitizer.Rule
		if rulesFile != "" {
			content, err := os.ReadFile(rulesFile)
			if err != nil {
				return &apperr.ConfigurationError{Msg: "cannot read rules file", Err: err}
			}
			if rules, err = sanitizer.ParseRules(content); err != nil {
				return err
			}
		}
		s, err := sanitizer.New(rules)
		if err != nil {
			return err
		}

		place := sanitizer.PlaceInfo{}
		if place.Name, err = parseTags(nameTags); err != nil {
			return err
		}
		if place.Address, err = parseTags(addressTags); err != nil {
			return err
		}

		names, address := s.ProcessNames(place)
		out := cmd.OutOrStdout()
		printNames := func(title string, list []sanitizer.PlaceName) {
			fmt.Fprintf(out, "%s (%d):\n", title, len(list))
			for _, n := range list {
				key := n.Kind
				if n.Suffix != "" {
					key += ":" + n.Suffix
				}
				fmt.Fprintf(out, "  %-20s %s\n", key, n.Name)
			}
		}
		printNames("names", names)
		printNames("address", address)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(sanitizeCmd)

	sanitizeCmd.Flags().StringVar(&rulesFile, "rules", "", "YAML file with a 'sanitizers' list")
	sanitizeCmd.Flags().StringArrayVar(&nameTags, "name", nil, "name tag as key=value (repeatable)")
	sanitizeCmd.Flags().StringArrayVar(&addressTags, "address", nil, "address tag as key=value (repeatable)")
}
