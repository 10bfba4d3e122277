package domain

// StorageMode names the backend chosen at startup. It never changes while
// the process runs.
type StorageMode string

const (
	StorageDurable StorageMode = "postgres"
	StorageMemory  StorageMode = "memory"
)

// SaveMessage is the success message returned to clients after a save.
func (m StorageMode) SaveMessage() string {
	if m == StorageDurable {
		return "saved to database"
	}
	return "saved to in-memory storage"
}
