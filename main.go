// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OIS contributors

package main

import (
	"fmt"
	"os"

	"github.com/openois/oishub/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "oishub: %v\n", err)
		os.Exit(1)
	}
}
