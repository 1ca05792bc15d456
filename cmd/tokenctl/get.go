package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/GriffinCanCode/awardtoken/internal/client"
	"github.com/GriffinCanCode/awardtoken/internal/providers/cookiestore"
	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
)

var (
	getURL         string
	getCookies     string
	getCookiesFile string
	getFromBrowser string
	getProxy       string
	getAwardID     int64
	getShowLog     bool
)

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Fetch an act token for a logged-in session",
	Long: `Sends the session cookies to the server, which replays them in a
headless browser and returns the act token.

Exactly one cookie source is required:
  --cookies       "name=value; name2=value2" or a JSON cookie array
  --cookies-file  file holding either of the above ("-" for stdin)
  --from-browser  domain to read cookies for from local browsers

Example:
  tokenctl get --url https://www.bytick.com/en/task --from-browser bytick.com`,
	RunE: runGet,
}

func init() {
	getCmd.Flags().StringVar(&getURL, "url", "", "target page URL")
	getCmd.Flags().StringVar(&getCookies, "cookies", "", "cookie string or JSON cookie array")
	getCmd.Flags().StringVar(&getCookiesFile, "cookies-file", "", "read cookies from file")
	getCmd.Flags().StringVar(&getFromBrowser, "from-browser", "", "read cookies for this domain from local browsers")
	getCmd.Flags().StringVar(&getProxy, "proxy", "", "proxy as host:port or host:port:user:pass")
	getCmd.Flags().Int64Var(&getAwardID, "award-id", 0, "award id (server default when unset)")
	getCmd.Flags().BoolVar(&getShowLog, "log", false, "print the server step log")
	_ = getCmd.MarkFlagRequired("url")
	getCmd.MarkFlagsMutuallyExclusive("cookies", "cookies-file", "from-browser")
	getCmd.MarkFlagsOneRequired("cookies", "cookies-file", "from-browser")
}

func runGet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var cookies interface{}
	switch {
	case getFromBrowser != "":
		found, err := cookiestore.New(logger.Logger).Cookies(ctx, getFromBrowser)
		if err != nil {
			return err
		}
		cookies = found
	case getCookiesFile != "":
		raw, err := readCookiesFile(cmd.InOrStdin(), getCookiesFile)
		if err != nil {
			return err
		}
		cookies = parseCookiesArg(raw)
	default:
		cookies = parseCookiesArg(getCookies)
	}

	resp, err := newClient().GetToken(ctx, client.TokenRequest{
		Cookies: cookies,
		URL:     getURL,
		Proxy:   getProxy,
		AwardID: getAwardID,
	})

	out := cmd.OutOrStdout()
	if resp != nil && (getShowLog || err != nil) {
		for _, line := range resp.Log {
			fmt.Fprintln(cmd.ErrOrStderr(), "  "+line)
		}
	}

	var apiErr *client.APIError
	if errors.As(err, &apiErr) && len(apiErr.Response) > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "upstream response: %s\n", apiErr.Response)
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(out, resp.Token)
	return nil
}

func readCookiesFile(stdin io.Reader, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read cookies: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// parseCookiesArg passes a JSON array through untouched so the server sees
// the cookie objects, and anything else as a cookie string.
func parseCookiesArg(raw string) interface{} {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "[") {
		var arr []json.RawMessage
		if err := sonic.UnmarshalString(raw, &arr); err == nil {
			return arr
		}
	}
	return raw
}
