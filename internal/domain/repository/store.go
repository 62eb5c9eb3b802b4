package repository

import "context"

// Store groups the relational repositories that take part in one unit of work
type Store interface {
	Departments() DepartmentRepository
	Doctors() DoctorRepository
	DataSources() DataSourceRepository
	FetchLogs() FetchLogRepository
	ShiftLists() ShiftListRepository
	Shifts() ShiftRepository

	// Transaction runs fn against a store bound to a single transaction.
	// The transaction commits when fn returns nil and rolls back otherwise.
	// Calling Transaction on a transactional store opens a savepoint.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}
