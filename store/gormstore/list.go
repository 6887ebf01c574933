package gormstore

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// List is a []string column stored as ",a,b,". The surrounding delimiters
// let a membership filter match one element with LIKE '%,a,%'.
type List []string

const listSep = ","

// Value - implements driver.Valuer.
func (l List) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "", nil
	}

	for _, item := range l {
		if strings.Contains(item, listSep) {
			return nil, fmt.Errorf("list item '%s' contains '%s'", item, listSep)
		}
	}

	return listSep + strings.Join(l, listSep) + listSep, nil
}

// Scan - implements sql.Scanner.
func (l *List) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("cannot scan %T into List", src)
	}

	raw = strings.Trim(raw, listSep)
	if raw == "" {
		*l = List{}
		return nil
	}

	*l = strings.Split(raw, listSep)

	return nil
}

// GormDataType tells the migrator to use a text column.
func (List) GormDataType() string {
	return "text"
}

// likeEscape prefixes LIKE wildcards inside a pattern. It is spelled out in
// the ESCAPE clause because sqlite has no default escape character.
const likeEscape = "!"

var _likeEscaper = strings.NewReplacer(
	likeEscape, likeEscape+likeEscape,
	"%", likeEscape+"%",
	"_", likeEscape+"_",
)

// hasPattern is the LIKE pattern matching lists that contain item exactly.
// Use it with hasClause.
func hasPattern(item any) string {
	return "%" + listSep + _likeEscaper.Replace(fmt.Sprint(item)) + listSep + "%"
}

func hasClause(column string) string {
	return fmt.Sprintf("%s LIKE ? ESCAPE '%s'", column, likeEscape)
}
