package pg_test

import (
	"strings"
	"testing"

	// Packages
	pg "github.com/mutablelogic/go-requeue/pkg/pg"
	assert "github.com/stretchr/testify/assert"
)

func Test_Bind_001(t *testing.T) {
	assert := assert.New(t)

	t.Run("Pairs", func(t *testing.T) {
		bind := pg.NewBind("a", "b", "n", 100)
		if assert.NotNil(bind) {
			assert.Equal("b", bind.Get("a"))
			assert.Equal(100, bind.Get("n"))
		}
	})

	t.Run("OddPairs", func(t *testing.T) {
		assert.Nil(pg.NewBind("a", "b", "c"))
	})

	t.Run("EmptyKey", func(t *testing.T) {
		assert.Nil(pg.NewBind("", "b"))
		assert.Equal("", pg.NewBind().Set("", "b"))
	})

	t.Run("Set", func(t *testing.T) {
		bind := pg.NewBind()
		assert.Equal("@queue", bind.Set("queue", "default"))
		assert.True(bind.Has("queue"))
		bind.Del("queue")
		assert.False(bind.Has("queue"))
	})

	t.Run("CopyIsolated", func(t *testing.T) {
		bind := pg.NewBind("a", 1)
		copy := bind.Copy("b", 2)
		copy.Set("a", 3)
		assert.Equal(1, bind.Get("a"))
		assert.False(bind.Has("b"))
		assert.Equal(2, copy.Get("b"))
	})

	t.Run("AppendJoin", func(t *testing.T) {
		bind := pg.NewBind()
		assert.True(bind.Append("where", "a = 1"))
		assert.True(bind.Append("where", "b = 2"))
		assert.Equal("a = 1 AND b = 2", bind.Join("where", " AND "))
		assert.Equal("", bind.Join("missing", " AND "))
		bind.Set("scalar", 1)
		assert.False(bind.Append("scalar", 2))
	})
}

func Test_Bind_002(t *testing.T) {
	assert := assert.New(t)
	bind := pg.NewBind(
		"schema", "requeue",
		"single", "'single'",
		"double", "\"double\"",
		"list", []string{"a", "b"},
	)

	tests := []struct {
		In  string
		Out string
	}{
		{`$schema`, "requeue"},
		{`${'schema'}`, "'requeue'"},
		{`${"schema"}`, `"requeue"`},
		{`$1`, `$1`},
		{`${1}`, `$1`},
		{`$$`, `$$`},
		{`${'single'}`, `'''single'''`},
		{`${"double"}`, `"""double"""`},
		{`IN (${'list'})`, `IN ('a','b')`},
	}
	for _, test := range tests {
		t.Run(test.In, func(t *testing.T) {
			assert.Equal(test.Out, bind.Replace(test.In))
		})
	}
}

func Test_Queries_001(t *testing.T) {
	assert := assert.New(t)

	t.Run("Parse", func(t *testing.T) {
		queries, err := pg.NewQueries(strings.NewReader(`
ignored
-- task.get
SELECT * FROM task
WHERE id = @id

-- task.list
SELECT * FROM task
`))
		if !assert.NoError(err) {
			t.FailNow()
		}
		assert.Equal([]string{"task.get", "task.list"}, queries.Keys())
		assert.Equal("SELECT * FROM task\nWHERE id = @id", queries.Get("task.get"))
		assert.Equal("", queries.Get("missing"))
	})

	t.Run("Duplicate", func(t *testing.T) {
		_, err := pg.NewQueries(strings.NewReader("-- a\nSELECT 1\n-- a\nSELECT 2\n"))
		assert.ErrorIs(err, pg.ErrBadParameter)
	})
}

func Test_OffsetLimit_001(t *testing.T) {
	assert := assert.New(t)
	limit := func(n uint64) *uint64 { return &n }

	tests := []struct {
		In  pg.OffsetLimit
		Max uint64
		Out string
	}{
		{pg.OffsetLimit{}, 0, ""},
		{pg.OffsetLimit{}, 100, "LIMIT 100"},
		{pg.OffsetLimit{Offset: 5}, 0, "OFFSET 5"},
		{pg.OffsetLimit{Limit: limit(10)}, 100, "LIMIT 10"},
		{pg.OffsetLimit{Limit: limit(1000)}, 100, "LIMIT 100"},
		{pg.OffsetLimit{Offset: 5, Limit: limit(10)}, 0, "LIMIT 10 OFFSET 5"},
	}
	for _, test := range tests {
		bind := pg.NewBind()
		test.In.Bind(bind, test.Max)
		assert.Equal(test.Out, bind.Get("offsetlimit"))
	}
}
