package data

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallyworks/backoffice-api/internal/domain/model"
	"github.com/tallyworks/backoffice-api/internal/testutil"
)

// TestTicketRepo_Integration_ConcurrentCreate tests concurrent ticket creation with unique subjects.
func TestTicketRepo_Integration_ConcurrentCreate(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewTicketRepo(db)
		ctx := context.Background()

		const numWorkers = 10
		results := make(chan *model.Ticket, numWorkers)
		errors := make(chan error, numWorkers)
		var wg sync.WaitGroup

		// Create tickets concurrently with unique subjects
		for i := range numWorkers {
			wg.Add(1)
			go func(id int) {
				defer wg.Done()
				params := newTicketParams(fmt.Sprintf("concurrent-ticket-%d", id), "reporting")
				ticket, err := repo.Create(ctx, params)
				if err != nil {
					errors <- err
				} else {
					results <- ticket
				}
			}(i)
		}

		wg.Wait()
		close(results)
		close(errors)

		// All should succeed
		var tickets []*model.Ticket
		for ticket := range results {
			tickets = append(tickets, ticket)
		}

		var errs []error
		for err := range errors {
			errs = append(errs, err)
		}

		assert.Len(t, tickets, numWorkers, "All workers should succeed")
		assert.Empty(t, errs, "No errors should occur")

		// Verify all tickets have unique IDs and subjects
		seenIDs := make(map[string]bool)
		seenSubjects := make(map[string]bool)
		for _, ticket := range tickets {
			assert.False(t, seenIDs[ticket.ID], "Ticket ID should be unique: %s", ticket.ID)
			assert.False(t, seenSubjects[ticket.Subject], "Ticket subject should be unique: %s", ticket.Subject)
			seenIDs[ticket.ID] = true
			seenSubjects[ticket.Subject] = true
		}
	})
}

// TestTicketRepo_Integration_ConcurrentCreateDuplicateSubject tests concurrent creation with duplicate subjects.
func TestTicketRepo_Integration_ConcurrentCreateDuplicateSubject(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewTicketRepo(db)
		ctx := context.Background()

		const numWorkers = 5
		duplicateSubject := fmt.Sprintf("duplicate-test-%d", time.Now().UnixNano())
		results := make(chan *model.Ticket, numWorkers)
		errors := make(chan error, numWorkers)
		var wg sync.WaitGroup

		// Try to open tickets with the same category+subject concurrently
		for i := range numWorkers {
			wg.Add(1)
			go func(int) {
				defer wg.Done()
				ticket, err := repo.Create(ctx, newTicketParams(duplicateSubject, "billing"))
				if err != nil {
					errors <- err
				} else {
					results <- ticket
				}
			}(i)
		}

		wg.Wait()
		close(results)
		close(errors)

		// Exactly one should succeed, others should fail with ErrDuplicateTicket
		var tickets []*model.Ticket
		for ticket := range results {
			tickets = append(tickets, ticket)
		}

		var errs []error
		for err := range errors {
			errs = append(errs, err)
		}

		assert.Len(t, tickets, 1, "Exactly one worker should succeed")
		assert.Len(t, errs, numWorkers-1, "All other workers should fail")

		for _, err := range errs {
			require.ErrorIs(t, err, ErrDuplicateTicket)
		}

		assert.Equal(t, duplicateSubject, tickets[0].Subject)
	})
}

// TestTicketRepo_Integration_ConcurrentReadWrite tests concurrent read/write operations.
func TestTicketRepo_Integration_ConcurrentReadWrite(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewTicketRepo(db)
		ctx := context.Background()

		category := fmt.Sprintf("rw-%d", time.Now().UnixNano())
		ticket, err := repo.Create(ctx, newTicketParams(fmt.Sprintf("rw-test-%d", time.Now().UnixNano()), category))
		require.NoError(t, err)

		const numReaders = 5
		const numWriters = 3
		var wg sync.WaitGroup
		errors := make(chan error, numReaders+numWriters)

		// Start readers
		for i := range numReaders {
			wg.Add(1)
			go func(readerID int) {
				defer wg.Done()
				for j := range 10 {
					var err error
					// Alternate between GetByID and List
					if j%2 == 0 {
						_, err = repo.GetByID(ctx, ticket.ID)
					} else {
						_, err = repo.List(ctx, model.TicketsListOptions{Category: &category})
					}
					if err != nil {
						errors <- fmt.Errorf("reader %d iteration %d: %w", readerID, j, err)
						return
					}
					time.Sleep(time.Millisecond)
				}
			}(i)
		}

		// Start writers toggling the workflow state
		for i := range numWriters {
			wg.Add(1)
			go func(writerID int) {
				defer wg.Done()
				statuses := []model.TicketStatus{model.TicketStatusInProgress, model.TicketStatusOpen}
				for j := range 6 {
					if _, err := repo.UpdateStatus(ctx, ticket.ID, statuses[j%2]); err != nil {
						errors <- fmt.Errorf("writer %d iteration %d: %w", writerID, j, err)
						return
					}
					time.Sleep(time.Millisecond)
				}
			}(i)
		}

		wg.Wait()
		close(errors)

		for err := range errors {
			assert.NoError(t, err)
		}

		// The ticket ends in one of the two toggled states
		final, err := repo.GetByID(ctx, ticket.ID)
		require.NoError(t, err)
		assert.Contains(t,
			[]model.TicketStatus{model.TicketStatusOpen, model.TicketStatusInProgress},
			final.Status)
	})
}
