//go:build tools

// Package tools records the development tools this repository expects on
// PATH. None of them are runtime dependencies, so they stay out of go.mod
// and are installed globally with go install.
//
// golangci-lint - lint aggregator backing the //nolint directives in this tree
//
//	go install github.com/golangci/golangci-lint/cmd/golangci-lint@v1.64.8
//
// air - live reload while developing the HTTP server
//
//	go install github.com/air-verse/air@v1.63.0
//
// mockgen is deliberately absent: internal/mocks/generate.go runs it
// through `go run go.uber.org/mock/mockgen@v0.6.0`, which pins the version
// in the directive itself.
package tools
