// Package token obtains an award token by driving a real browser session.
//
// Decode validates the raw request and normalizes its cookies and proxy.
// Service.Run then launches a browser, sets the cookies, visits the home
// page and the target page, and evaluates the embedded fetch.js in the
// page. The script calls the awarding endpoint for a risk token, then
// exchanges it for the act token at result.token_info.token.
//
// Every step is written to a Journal, which is returned to the caller as
// the diagnostic log and mirrored to zap.
package token
