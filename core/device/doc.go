// Package device is the boundary to the remote configuration API of a managed
// device.
//
// The Client interface is the only contract the reconciliation core relies on:
// create, modify, createOrModify and transaction. HTTPClient implements it against
// an iControl-REST style API, Recorder implements it in memory for dry runs, and
// mocks.Client is a testify mock for unit tests.
//
// # Transactions
//
// Transaction submits a batch of commands under one coordination id and asks the
// device to validate and commit them together. Whether a failed commit leaves any
// command applied is up to the device; callers that need strict all-or-nothing
// semantics must enforce it on the device side.
//
// # Retries
//
// Only CreateOrModify accepts a RetryPolicy. Create, Modify and Transaction are
// attempted exactly once.
package device
