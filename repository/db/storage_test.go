package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewStorageInvalidConnection(t *testing.T) {
	tests := []struct {
		name    string
		connStr string
	}{
		{
			name:    "empty connection string",
			connStr: "",
		},
		{
			name:    "malformed connection string",
			connStr: "not-a-dsn",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewStorage(tt.connStr)
			assert.Error(t, err)
			assert.Nil(t, s)
		})
	}
}

func TestSortColumns(t *testing.T) {
	tests := []struct {
		name   string
		sortBy string
		want   struct {
			column string
			known  bool
		}
	}{
		{
			name:   "due date",
			sortBy: "dueDate",
			want: struct {
				column string
				known  bool
			}{
				column: "due_date",
				known:  true,
			},
		},
		{
			name:   "priority",
			sortBy: "priority",
			want: struct {
				column string
				known  bool
			}{
				column: "priority",
				known:  true,
			},
		},
		{
			name:   "created at",
			sortBy: "createdAt",
			want: struct {
				column string
				known  bool
			}{
				column: "created_at",
				known:  true,
			},
		},
		{
			name:   "unknown field is not mapped",
			sortBy: "ownerId; DROP TABLE tasks",
			want: struct {
				column string
				known  bool
			}{
				column: "",
				known:  false,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			column, ok := sortColumns[tt.sortBy]
			assert.Equal(t, tt.want.known, ok)
			assert.Equal(t, tt.want.column, column)
		})
	}
}
