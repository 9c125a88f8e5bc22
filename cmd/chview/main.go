// Command chview infers and serves ClickHouse materialized view lineage.
package main

import (
	"os"

	"github.com/chview-io/chview/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
