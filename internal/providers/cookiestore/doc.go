// Package cookiestore reads a logged-in session's cookies from the local
// browsers so tokenctl can submit them without copying them by hand.
package cookiestore
