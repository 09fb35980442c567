package user

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

var ErrMissingID = errors.New("user record has no id")

// ID is the opaque identifier of a user. The upstream API sends it either
// as a JSON number or as a JSON string, we always keep the string form.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or a number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string {
	return string(id)
}

// Record is a single user as returned by the remote source.
// It is treated as immutable once received.
type Record struct {
	ID        ID     `json:"id" msgpack:"i"`
	FirstName string `json:"first_name" msgpack:"f"`
	LastName  string `json:"last_name" msgpack:"l"`
	AvatarURL string `json:"avatar" msgpack:"a,omitempty"`

	// optional fields the upstream API sends along
	Username string `json:"username,omitempty" msgpack:"u,omitempty"`
	Email    string `json:"email,omitempty" msgpack:"e,omitempty"`
}

// Validate checks the fields the list relies on.
func (r Record) Validate() error {
	if strings.TrimSpace(string(r.ID)) == "" {
		return ErrMissingID
	}
	return nil
}

func (r Record) FullName() string {
	return strings.TrimSpace(r.FirstName + " " + r.LastName)
}

// Initials returns up to two upper-case letters used by the avatar placeholder.
// Records without any name render as "?".
func (r Record) Initials() string {
	var b strings.Builder
	for _, part := range []string{r.FirstName, r.LastName} {
		first, _ := utf8.DecodeRuneInString(strings.TrimSpace(part))
		if first == utf8.RuneError {
			continue
		}
		b.WriteRune(unicode.ToUpper(first))
	}
	if b.Len() == 0 {
		return "?"
	}
	return b.String()
}

// IDs returns the ids of the given records in order.
func IDs(records []Record) []ID {
	ids := make([]ID, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	return ids
}
