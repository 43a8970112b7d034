// Command scripthost is the CLI entrypoint: load an HTML fixture, run its
// inline <script> tags, optionally run a separate driver script against the
// resulting page, and report what the page did (alerts, navigations,
// downloads, unhandled promise rejections). Thin by design — the real surface is the harness package,
// meant to be imported straight into Go tests; this binary exists for the
// same reason the teacher ships a `k6` binary alongside its importable
// packages: a way to exercise a fixture without writing Go.
package main

import "github.com/module/scripthost/cmd/scripthost/cmd"

func main() {
	cmd.Execute()
}
