package loadtest

import "os"

// ShowHelp prints usage information for the load test tool.
func ShowHelp() {
	os.Stdout.WriteString(`welltest load test
==================

Generates synthetic well-test records, posts them to a running service's
/detect endpoint concurrently, scores the answers through /score and
checks the mean F1.

Usage:
  go run ./cmd/loadtest [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -records int
        Number of records to generate and submit (default 200)
  -seed uint
        Seed of the first record (default 1)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -min-f1 float
        Fail when the mean F1 is below this value (default 0, disabled)
  -verbose
        Log every failed request
  -help
        Show this help message

Examples:
  go run ./cmd/loadtest -records 1000 -workers 16 -min-f1 0.8
`)
}
