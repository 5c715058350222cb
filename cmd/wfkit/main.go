// Command wfkit generates the CI workflows of this repository:
//
//	go run ./cmd/wfkit          # write .github/workflows
//	go run ./cmd/wfkit check    # fail when the files are stale
package main

import "github.com/rendis/wfkit/pkg/cli"

func main() {
	cli.Main(workflows()...)
}
