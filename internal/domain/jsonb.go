package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// JSONBMap handles JSONB data in PostgreSQL. It implements sql.Scanner and
// driver.Valuer to convert between map[string]any and the JSONB column type.
type JSONBMap map[string]any

// Scan implements the sql.Scanner interface.
func (j *JSONBMap) Scan(value any) error {
	if value == nil {
		*j = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return errors.New("unsupported type for JSONBMap")
	}

	if len(data) == 0 {
		*j = nil
		return nil
	}

	return json.Unmarshal(data, j)
}

// Value implements the driver.Valuer interface. A nil map stores SQL NULL so
// documents without summarizer metadata stay distinguishable from documents
// with an empty summary.
func (j JSONBMap) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}
