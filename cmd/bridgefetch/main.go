// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"os"

	"github.com/z5labs/bridge/internal/cli"
)

func main() {
	if err := cli.Run(os.Args[1:]...); err != nil {
		os.Exit(1)
	}
}
