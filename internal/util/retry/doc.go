// Package retry polls an operation with exponential backoff until it succeeds
// or a deadline passes.
//
// The orchestration itself never retries: a failing external command aborts
// the run. Polling is only used where a value is expected to appear
// asynchronously, such as the address a controller writes into a Gateway
// status after the run has configured it.
package retry
