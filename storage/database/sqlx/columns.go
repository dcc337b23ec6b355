package sqlxrepos

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/trezcool/teampoints/core/points"
	"github.com/trezcool/teampoints/core/roster"
)

// JSON-encoded TEXT columns

type (
	stringsColumn []string
	rosterColumn  []roster.Entry
	ratingsColumn []points.Rating
)

func (c stringsColumn) Value() (driver.Value, error) { return jsonValue([]string(c)) }
func (c *stringsColumn) Scan(src interface{}) error  { return scanJSON(src, (*[]string)(c)) }

func (c rosterColumn) Value() (driver.Value, error) { return jsonValue([]roster.Entry(c)) }
func (c *rosterColumn) Scan(src interface{}) error  { return scanJSON(src, (*[]roster.Entry)(c)) }

func (c ratingsColumn) Value() (driver.Value, error) { return jsonValue([]points.Rating(c)) }
func (c *ratingsColumn) Scan(src interface{}) error  { return scanJSON(src, (*[]points.Rating)(c)) }

func jsonValue(v interface{}) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(b) == "null" {
		return "[]", nil
	}
	return string(b), nil
}

func scanJSON(src interface{}, dest interface{}) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		return nil
	case string:
		b = []byte(v)
	case []byte:
		b = v
	default:
		return errors.Errorf("unsupported JSON column type %T", src)
	}
	return errors.Wrap(json.Unmarshal(b, dest), "decoding JSON column")
}
