// Package mocks provides generated mock implementations for testing.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for
// the core port interfaces. The mocks are generated using go:generate
// directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	mockRepo := mocks.NewMockTicketRepository(ctrl)
//	mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(ticket, nil)
package mocks

// Generate mock for ReportJobStore interface from internal/core package.
// This creates MockReportJobStore with methods for all ReportJobStore interface methods:
// Insert, GetByID, Start, Complete, Fail, List, Stats, DeleteTerminalBefore
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=report_job_store_mock.go github.com/tallyworks/backoffice-api/internal/core ReportJobStore

// Generate mock for ReportGenerator interface from internal/core package.
// This creates MockReportGenerator with methods for all ReportGenerator interface methods:
// Generate
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=report_generator_mock.go github.com/tallyworks/backoffice-api/internal/core ReportGenerator

// Generate mock for CacheRepository interface from internal/core package.
// This creates MockCacheRepository with methods for all CacheRepository interface methods:
// Set, Get, Delete, Health
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=cache_repository_mock.go github.com/tallyworks/backoffice-api/internal/core CacheRepository

// Generate mock for TicketRepository interface from internal/core package.
// This creates MockTicketRepository with methods for all TicketRepository interface methods:
// Create, GetByID, List, UpdateStatus, Assign, Delete, ExistsOpenDuplicate, Stats
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=ticket_repository_mock.go github.com/tallyworks/backoffice-api/internal/core TicketRepository

// Generate mock for AssignmentRuleRepository interface from internal/core package.
// This creates MockAssignmentRuleRepository with methods for all AssignmentRuleRepository interface methods:
// Create, ListByCategory, List, Delete, ReplaceCategoryRules
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=assignment_rule_repository_mock.go github.com/tallyworks/backoffice-api/internal/core AssignmentRuleRepository
