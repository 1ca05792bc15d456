// Command tokenctl is a command line client for the award token server.
//
// Usage:
//
//	tokenctl get --url https://www.bytick.com/en/task --cookies "a=1; b=2"
//	tokenctl get --url https://www.bytick.com/en/task --from-browser bytick.com --log
//	tokenctl cookies --domain bytick.com --json > cookies.json
//	tokenctl health --server http://token-host:3000
package main
