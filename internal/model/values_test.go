package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnType_Parse(t *testing.T) {
	tests := []struct {
		name    string
		typ     ColumnType
		raw     string
		want    any
		wantErr bool
	}{
		{name: "int", typ: ColumnInt, raw: " 42 ", want: int64(42)},
		{name: "int rejects text", typ: ColumnInt, raw: "4x", wantErr: true},
		{name: "bool", typ: ColumnBool, raw: "TRUE", want: true},
		{name: "bool rejects yes", typ: ColumnBool, raw: "yes", wantErr: true},
		{name: "date", typ: ColumnTime, raw: "2024-05-01", want: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
		{name: "rfc3339 to utc", typ: ColumnTime, raw: "2024-05-01T12:00:00+02:00", want: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{name: "time rejects junk", typ: ColumnTime, raw: "yesterday", wantErr: true},
		{name: "text is verbatim", typ: ColumnText, raw: " Web ", want: " Web "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.typ.Parse(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestColumnType_Compare(t *testing.T) {
	assert.Equal(t, -1, ColumnInt.Compare(int32(2), int64(10)))
	assert.Equal(t, 0, ColumnInt.Compare(3, "3"))
	assert.Equal(t, 1, ColumnText.Compare("b", "a"))
	assert.Equal(t, -1, ColumnBool.Compare(false, true))
	assert.Equal(t, -1, ColumnText.Compare(nil, "a"), "nil sorts first")
	assert.Equal(t, 0, ColumnText.Compare(nil, nil))
	assert.Equal(t, 1, ColumnTime.Compare("2024-02-01", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestParseSortDirection(t *testing.T) {
	for raw, want := range map[string]SortDirection{"asc": SortAsc, "DESC": SortDesc, " Ascending ": SortAsc} {
		got, ok := ParseSortDirection(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}
	_, ok := ParseSortDirection("sideways")
	assert.False(t, ok)
}

func TestCriteria_IsEmpty(t *testing.T) {
	assert.True(t, Criteria{Search: "  "}.IsEmpty())
	assert.False(t, Criteria{Search: "x"}.IsEmpty())
	assert.False(t, Criteria{Filters: []Filter{{Column: "name", Value: "a"}}}.IsEmpty())
}
