// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Heliobot Contributors

package lua

// Error codes for script loading and execution failures.
const (
	CodeLoadFailed   = "SCRIPT_LOAD_FAILED"
	CodeInvalidShape = "SCRIPT_INVALID_SHAPE"
	CodeActionFailed = "SCRIPT_ACTION_FAILED"
)
