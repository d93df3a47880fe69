package data

import "errors"

// Shared sentinel errors for data-layer repositories.
var (
	// Report job store sentinels.
	ErrReportJobNotFound  = errors.New("report job not found")
	ErrDuplicateReportJob = errors.New("report job id already exists")
	ErrInvalidTransition  = errors.New("illegal job status transition")

	// Ticket repository sentinels.
	ErrTicketNotFound         = errors.New("ticket not found")
	ErrAssignmentRuleNotFound = errors.New("assignment rule not found")
)
