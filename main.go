// Copyright 2025 The Liftfinder Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/liftfinder/liftfinder/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
