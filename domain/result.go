package domain

// DeleteResult answers a single-record delete.
type DeleteResult struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

// DeleteManyResult answers a bulk delete. IDs echoes the requested ids.
type DeleteManyResult struct {
	DeletedCount int      `json:"deletedCount"`
	IDs          []string `json:"ids"`
}

// CheckResult is the payload of a session check.
type CheckResult struct {
	User User `json:"user"`
}

type IDsCommand struct {
	IDs []string `json:"ids"`
}

type CreateUserCommand struct {
	Name string `json:"name"`
}
