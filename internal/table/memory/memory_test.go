package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()

	headers, rows, err := s.ReadAll(ctx, "Transactions")
	require.NoError(t, err)
	assert.Nil(t, headers)
	assert.Nil(t, rows)

	require.NoError(t, s.EnsureColumns(ctx, "Transactions", []string{"Date", "Description"}))
	require.NoError(t, s.AppendRows(ctx, "Transactions", [][]string{{"2024-01-01", "Coffee"}}))
	require.NoError(t, s.EnsureColumns(ctx, "Transactions", []string{"date", "Category by Rule"}))

	headers, rows, err = s.ReadAll(ctx, "Transactions")
	require.NoError(t, err)
	assert.Equal(t, []string{"Date", "Description", "Category by Rule"}, headers)
	assert.Equal(t, [][]string{{"2024-01-01", "Coffee"}}, rows)

	require.NoError(t, s.WriteColumn(ctx, "Transactions", "category by rule", 0, []string{"Food"}))
	_, rows, err = s.ReadAll(ctx, "Transactions")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"2024-01-01", "Coffee", "Food"}}, rows)
}

func TestStore_Errors(t *testing.T) {
	ctx := context.Background()
	s := New()
	assert.Error(t, s.AppendRows(ctx, "Missing", [][]string{{"x"}}))
	assert.Error(t, s.WriteColumn(ctx, "Missing", "x", 0, []string{"y"}))

	s.Seed("T", []string{"A"}, nil)
	assert.Error(t, s.WriteColumn(ctx, "T", "B", 0, []string{"y"}))
}

func TestStore_ReadAllReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.Seed("T", []string{"A"}, [][]string{{"1"}})

	_, rows, err := s.ReadAll(ctx, "T")
	require.NoError(t, err)
	rows[0][0] = "changed"

	_, rows, err = s.ReadAll(ctx, "T")
	require.NoError(t, err)
	assert.Equal(t, "1", rows[0][0])
}
