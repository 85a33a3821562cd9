// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Heliobot Contributors

package bot

// Error codes for gateway and dispatch failures.
const (
	CodeLoginFailed    = "LOGIN_FAILED"
	CodePublishFailed  = "COMMAND_PUBLISH_FAILED"
	CodeDispatchFailed = "DISPATCH_FAILED"
)

// failureNotice is the generic ephemeral message shown to the invoking user
// when a command action fails. The real error stays in the logs.
const failureNotice = "Something went wrong running that command. Please try again."
