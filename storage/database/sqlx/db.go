// Package sqlxrepos implements the repositories on Postgres and SQLite with sqlx.
package sqlxrepos

import (
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/studydesk/core"
)

// trapNoRowsErr maps the sql "no rows" err to notFound.
func trapNoRowsErr(err error, notFound error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	return errors.Wrap(err, msg)
}

func orderBy(orderings []core.DBOrdering, exprs map[string]string, fallback string) string {
	list := make([]string, 0, len(orderings)+1)
	for _, ord := range orderings {
		expr, ok := exprs[ord.Field]
		if !ok {
			continue
		}
		list = append(list, core.DBOrdering{Field: expr, Ascending: ord.Ascending}.String())
	}
	list = append(list, fallback)
	return " ORDER BY " + strings.Join(list, ", ")
}

// toJSON encodes the slices kept in TEXT columns.
func toJSON(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", errors.Wrap(err, "encoding column")
	}
	return string(data), nil
}

func fromJSON(data string, v interface{}) error {
	if data == "" {
		return nil
	}
	return errors.Wrap(json.Unmarshal([]byte(data), v), "decoding column")
}

func utc(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}
