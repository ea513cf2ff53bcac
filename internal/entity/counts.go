package entity

import "fmt"

// Counts is the aggregate account counter. Users is also the next account ID.
// Users may exceed Students+Teachers when IDs were skipped over user rows
// that have no role row.
type Counts struct {
	Users    int64 `json:"usrcnt" yaml:"usrcnt"`
	Students int64 `json:"stdcnt" yaml:"stdcnt"`
	Teachers int64 `json:"tchcnt" yaml:"tchcnt"`
}

func (c Counts) Valid() bool {
	return c.Students >= 0 && c.Teachers >= 0 && c.Users >= c.Students+c.Teachers
}

// Ahead reports whether c has seen more accounts than other.
func (c Counts) Ahead(other Counts) bool {
	return c.Users > other.Users
}

func (c Counts) String() string {
	return fmt.Sprintf("users=%d students=%d teachers=%d", c.Users, c.Students, c.Teachers)
}
