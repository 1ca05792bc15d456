package main

import (
	"encoding/json"
	"fmt"

	"github.com/GriffinCanCode/awardtoken/internal/domain/token"
	"github.com/GriffinCanCode/awardtoken/internal/providers/cookiestore"
	"github.com/spf13/cobra"
)

var (
	cookiesDomain string
	cookiesJSON   bool
)

var cookiesCmd = &cobra.Command{
	Use:   "cookies",
	Short: "Print the local browsers' cookies for a domain",
	Long: `Reads cookies for the domain from every supported local browser and
prints them as a cookie string, or as a JSON array with --json.

The output can be passed back to "tokenctl get --cookies-file -".`,
	RunE: runCookies,
}

func init() {
	cookiesCmd.Flags().StringVar(&cookiesDomain, "domain", "bytick.com", "cookie domain suffix")
	cookiesCmd.Flags().BoolVar(&cookiesJSON, "json", false, "print a JSON cookie array")
}

func runCookies(cmd *cobra.Command, args []string) error {
	found, err := cookiestore.New(logger.Logger).Cookies(cmd.Context(), cookiesDomain)
	if err != nil {
		return err
	}

	if !cookiesJSON {
		fmt.Fprintln(cmd.OutOrStdout(), token.CookieHeader(found))
		return nil
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(found)
}
