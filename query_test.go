package sloth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Query_Builders_DoNotMutate(t *testing.T) {
	base := NewQuery("post", Desc("published_at"), Desc("id")).Where("published", true)
	tagged := base.WhereHas("tags", "go")
	resorted := base.OrderBy(Asc("title"), Asc("id"))

	assert.Len(t, base.Filters(), 1)
	assert.Len(t, tagged.Filters(), 2)
	assert.Equal(t, Orderings{Desc("published_at"), Desc("id")}, base.Sort())
	assert.Equal(t, Orderings{Asc("title"), Asc("id")}, resorted.Sort())

	filters := base.Filters()
	filters[0].Value = false
	assert.Equal(t, true, base.Filters()[0].Value)
}

func Test_Query_Validate(t *testing.T) {
	tests := []struct {
		name    string
		query   Query
		wantErr bool
	}{
		{"valid", NewQuery("post", Asc("id")).Where("published", true), false},
		{"empty kind", NewQuery("", Asc("id")), true},
		{"no sort", NewQuery("post"), true},
		{"bad filter column", NewQuery("post", Asc("id")).Where("a b", 1), true},
		{"bad filter op", Query{kind: "post", filters: []Filter{{Column: "a", Op: "like"}}, sort: Orderings{Asc("id")}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			assert.Equal(t, tt.wantErr, err != nil, "err=%v", err)
		})
	}
}

func Test_Query_Fingerprint(t *testing.T) {
	fingerprint := func(q Query) string {
		t.Helper()
		fp, err := q.Fingerprint()
		require.NoError(t, err)
		return fp
	}

	a := NewQuery("post", Desc("id")).Where("published", true)
	b := NewQuery("post", Desc("id")).Where("published", true)
	c := NewQuery("post", Desc("id")).Where("published", false)
	d := NewQuery("post", Asc("id")).Where("published", true)

	assert.Equal(t, fingerprint(a), fingerprint(b))
	assert.NotEqual(t, fingerprint(a), fingerprint(c))
	assert.NotEqual(t, fingerprint(a), fingerprint(d))
	assert.True(t, strings.HasPrefix(fingerprint(a), "post:"))
}

func Test_Query_Fingerprint_UnserialisableValue(t *testing.T) {
	_, err := NewQuery("post", Desc("id")).Where("published", make(chan int)).Fingerprint()
	assert.ErrorContains(t, err, "cannot fingerprint post query")

	_, err = NewQuery("post", Desc("id")).Where("score", func() {}).Fingerprint()
	assert.Error(t, err)
}

func Test_FilterOp_Valid(t *testing.T) {
	assert.True(t, FilterEq.Valid())
	assert.True(t, FilterHas.Valid())
	assert.False(t, FilterOp("like").Valid())
}
