// Copyright 2024 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package versioninfo

import "fmt"

// These variables are overwritten by -ldflags at build time.
var (
	StmtExecVersion   = "None"
	StmtExecGitBranch = "None"
	StmtExecGitHash   = "None"
	StmtExecBuildTS   = "None"
)

func Version() string {
	return fmt.Sprintf("%s, branch %s, commit %s, built at %s", StmtExecVersion, StmtExecGitBranch, StmtExecGitHash, StmtExecBuildTS)
}
