package types

import "github.com/google/uuid"

// ID is a UUID in its canonical string form. Diagnoses get random IDs;
// knowledge base versions are derived from content.
type ID string

// contentNamespace roots every content-derived ID of this service.
var contentNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:fuzzydx:content"))

func NewID() ID {
	return ID(uuid.New().String())
}

// NewDeterministicID derives a UUID v5 from kind and name; equal inputs
// always give the same ID.
func NewDeterministicID(kind, name string) ID {
	return ID(uuid.NewSHA1(contentNamespace, []byte(kind+":"+name)).String())
}

func (id ID) String() string {
	return string(id)
}

func (id ID) IsZero() bool {
	return id == ""
}

// Short is the first UUID group, enough to tell knowledge versions apart in logs.
func (id ID) Short() string {
	if len(id) < 8 {
		return string(id)
	}
	return string(id[:8])
}
