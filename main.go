// Copyright 2026 The CivicEye Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/civiceye/civiceye/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
