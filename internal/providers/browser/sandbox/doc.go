/*
Package sandbox runs page scripts inside a goja VM instead of a browser.

A Runtime exposes a page-like global scope: console capture, a fetch()
bridged to a host FetchFunc, and no Node.js globals. Evaluate takes a
function expression plus JSON arguments, awaits the returned promise and
hands back the settled value as JSON, which is the same contract the
browser engine offers for real pages. The token package uses it to
syntax-check its in-page script at startup and to rehearse it against
canned upstream responses.

	rt, err := sandbox.New(sandbox.Config{
		Timeout: 5 * time.Second,
		Fetch: func(ctx context.Context, req sandbox.FetchRequest) (sandbox.FetchResponse, error) {
			return sandbox.FetchResponse{Status: 200, Body: `{"ok":true}`}, nil
		},
	})
	out, err := rt.Evaluate(ctx, script, args...)

Fetch answers synchronously, so every promise a script awaits settles
before Evaluate returns. A promise left pending yields ErrPending.
*/
package sandbox
