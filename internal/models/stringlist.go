package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// StringList is an ordered list of strings persisted as a JSON array
// (JSONB on PostgreSQL, TEXT elsewhere).
type StringList []string

// Value encodes the list as a JSON array. A nil list is stored as "[]".
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan decodes a JSON array column. NULL and empty values decode to an empty list.
func (l *StringList) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = StringList{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("StringList: unsupported source type %T", src)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		*l = StringList{}
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("StringList: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	*l = out
	return nil
}

// MarshalJSON renders nil as an empty array so API clients never see null.
func (l StringList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

// GormDataType implements schema.GormDataTypeInterface.
func (StringList) GormDataType() string {
	return "json"
}

// GormDBDataType picks the column type per dialect.
func (StringList) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "JSONB"
	}
	return "TEXT"
}

// Contains reports whether value is an exact element of the list.
func (l StringList) Contains(value string) bool {
	for _, v := range l {
		if v == value {
			return true
		}
	}
	return false
}

// ActorList is presented as a list but stored as a comma-joined string.
type ActorList []string

// ParseActorList splits a comma-joined string, trimming blanks.
func ParseActorList(raw string) ActorList {
	out := ActorList{}
	for _, part := range strings.Split(raw, ",") {
		if name := strings.TrimSpace(part); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// String joins the actors with ", ".
func (a ActorList) String() string {
	return strings.Join(a, ", ")
}

func (a ActorList) Value() (driver.Value, error) {
	return a.String(), nil
}

func (a *ActorList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*a = ActorList{}
	case []byte:
		*a = ParseActorList(string(v))
	case string:
		*a = ParseActorList(v)
	default:
		return fmt.Errorf("ActorList: unsupported source type %T", src)
	}
	return nil
}

func (a ActorList) MarshalJSON() ([]byte, error) {
	if a == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(a))
}

// UnmarshalJSON accepts either a JSON array or a comma-joined string.
func (a *ActorList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		out := ActorList{}
		for _, name := range list {
			if name = strings.TrimSpace(name); name != "" {
				out = append(out, name)
			}
		}
		*a = out
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("actors must be a list or a comma separated string")
	}
	*a = ParseActorList(raw)
	return nil
}
