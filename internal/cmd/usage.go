package cmd

import (
	"fmt"
	"io"

	"github.com/router-for-me/oauth2nmail/internal/buildinfo"
)

// ProgramName is used in help and version output.
const ProgramName = "oauth2nmail"

const usageText = `%[1]s is a utility tool for handling OAuth2 authentication and
token renewals. Primarily written for use by the nmail email client.
Parameters must be passed using environment variables, see examples below.

Usage: %[1]s --generate
   or: %[1]s --refresh
   or: %[1]s --help
   or: %[1]s --version

Options:
   -g, --generate    perform authentication and generate refresh/access tokens
   -r, --refresh     refresh access token using refresh token
   -h, --help        display this help and exit
   -v, --version     output version information and exit

Return values:
   0                 success
   1                 syntax / usage error
   2                 authentication timeout
   3                 user permission not granted
   4                 http request network error
   5                 http request returned non-200
   6                 access token not available
   7                 token store read/write error
   130               keyboard interrupt (ctrl-c)

Optional environment:
   OAUTH2_CONFIG        YAML file with listener, polling and endpoint settings
   OAUTH2_ENV_FILE      dotenv file providing any of the variables above
   OAUTH2_PROXY_URL     socks5/http/https proxy for provider requests
   OAUTH2_NO_BROWSER    print the authorization URL instead of opening it
   OAUTH2_LOG_LEVEL     debug, info, warn (default) or error
   OAUTH2_LOG_FILE      write logs to a rotating file instead of stderr

Examples:
   OAUTH2_TYPE="gmail-oauth2" OAUTH2_CLIENT_ID="9" OAUTH2_CLIENT_SECRET="j" \
   OAUTH2_TOKEN_STORE="${HOME}/.nmail/oauth2.tokens" %[1]s -g

   OAUTH2_TYPE="gmail-oauth2" OAUTH2_CLIENT_ID="9" OAUTH2_CLIENT_SECRET="j" \
   OAUTH2_TOKEN_STORE="${HOME}/.nmail/oauth2.tokens" %[1]s -r

`

// PrintUsage writes the help text.
func PrintUsage(w io.Writer) {
	_, _ = fmt.Fprintf(w, usageText, ProgramName)
}

// PrintVersion writes the version banner.
func PrintVersion(w io.Writer) {
	_, _ = fmt.Fprintf(w, "%s %s\n\n%s is distributed under the MIT license.\n", ProgramName, buildinfo.Summary(), ProgramName)
}
