package library

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T) *LibraryManager {
	t.Helper()
	dsn, err := SQLiteDSN(filepath.Join(t.TempDir(), "lib.db"))
	require.NoError(t, err)
	mgr, err := NewLibraryManager(context.Background(), DriverSQLite, dsn, nil)
	require.NoError(t, err, "mgr")
	t.Cleanup(func() { mgr.Close() })
	return mgr
}

func TestAddBookValidation(t *testing.T) {
	mgr := newManager(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		book   NewBook
		fields []string
	}{
		{"missing everything", NewBook{}, []string{"title", "author", "total_copies"}},
		{"blank title", NewBook{Title: "   ", Author: "A", TotalCopies: 1}, []string{"title"}},
		{"missing author", NewBook{Title: "T", TotalCopies: 1}, []string{"author"}},
		{"zero copies", NewBook{Title: "T", Author: "A"}, []string{"total_copies"}},
		{"negative copies", NewBook{Title: "T", Author: "A", TotalCopies: -2}, []string{"total_copies"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := mgr.AddBook(ctx, tt.book)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, msgBookRequired, verr.Message)
			for _, f := range tt.fields {
				assert.Contains(t, verr.Fields, f)
			}
		})
	}

	books, err := mgr.ListBooks(ctx)
	require.NoError(t, err)
	assert.Empty(t, books, "rejected input must not reach the store")
}

func TestAddBookTrimsInput(t *testing.T) {
	mgr := newManager(t)
	ctx := context.Background()

	id, err := mgr.AddBook(ctx, NewBook{Title: "  T ", Author: " A", TotalCopies: 3})
	require.NoError(t, err)

	b, err := mgr.GetBook(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "T", b.Title)
	assert.Equal(t, "A", b.Author)
	assert.Equal(t, 3, b.AvailableCopies)
}

func TestUpdateBookValidation(t *testing.T) {
	mgr := newManager(t)
	ctx := context.Background()
	id, err := mgr.AddBook(ctx, NewBook{Title: "T", Author: "A", TotalCopies: 2})
	require.NoError(t, err)

	assert.ErrorIs(t, mgr.UpdateBook(ctx, id, BookUpdate{}), ErrNothingToUpdate)

	var verr *ValidationError
	err = mgr.UpdateBook(ctx, id, BookUpdate{Title: Some(" ")})
	require.True(t, errors.As(err, &verr), "got %v", err)
	assert.Equal(t, "min", verr.Fields["title"])

	err = mgr.UpdateBook(ctx, id, BookUpdate{TotalCopies: Some(0)})
	require.True(t, errors.As(err, &verr), "got %v", err)
	assert.Equal(t, "gt", verr.Fields["total_copies"])

	assert.ErrorIs(t, mgr.UpdateBook(ctx, id+1, BookUpdate{Author: Some("B")}), ErrBookNotFound)

	require.NoError(t, mgr.UpdateBook(ctx, id, BookUpdate{Author: Some(" B ")}))
	b, _ := mgr.GetBook(ctx, id)
	assert.Equal(t, "B", b.Author)
}

func TestUpdateBookRejectsNullRequiredFields(t *testing.T) {
	mgr := newManager(t)
	ctx := context.Background()
	id, err := mgr.AddBook(ctx, NewBook{Title: "T", Author: "A", TotalCopies: 2})
	require.NoError(t, err)

	var verr *ValidationError
	err = mgr.UpdateBook(ctx, id, BookUpdate{Title: Null[string](), TotalCopies: Some(0)})
	require.True(t, errors.As(err, &verr), "got %v", err)
	assert.Equal(t, map[string]string{"title": "required", "total_copies": "gt"}, verr.Fields)

	err = mgr.UpdateBook(ctx, id, BookUpdate{Author: Null[string](), Category: Some("x")})
	require.True(t, errors.As(err, &verr), "got %v", err)
	assert.Equal(t, map[string]string{"author": "required"}, verr.Fields)

	b, _ := mgr.GetBook(ctx, id)
	assert.Equal(t, "T", b.Title)
	assert.Nil(t, b.Category)
}

func TestIssueReturnRejectsBlankUserName(t *testing.T) {
	mgr := newManager(t)
	ctx := context.Background()
	id, err := mgr.AddBook(ctx, NewBook{Title: "T", Author: "A", TotalCopies: 1})
	require.NoError(t, err)

	var verr *ValidationError
	for _, name := range []Optional[string]{Some("   "), Some(""), Null[string]()} {
		require.True(t, errors.As(mgr.IssueBook(ctx, id, name), &verr))
		assert.Equal(t, "required", verr.Fields["user_name"])
		require.True(t, errors.As(mgr.ReturnBook(ctx, id, name), &verr))
	}

	b, _ := mgr.GetBook(ctx, id)
	assert.Equal(t, 1, b.AvailableCopies)

	require.NoError(t, mgr.IssueBook(ctx, id, Optional[string]{}))
	history, err := mgr.BookHistory(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestIssueReturnTrimsUserName(t *testing.T) {
	mgr := newManager(t)
	ctx := context.Background()
	id, err := mgr.AddBook(ctx, NewBook{Title: "T", Author: "A", TotalCopies: 1})
	require.NoError(t, err)

	require.NoError(t, mgr.IssueBook(ctx, id, Some("  bob ")))
	require.NoError(t, mgr.ReturnBook(ctx, id, Some("bob")))

	history, err := mgr.BookHistory(ctx, id)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "bob", history[0].UserName)
	assert.NotNil(t, history[0].ReturnedAt)
}

func TestIssueReturnSequenceStaysInBounds(t *testing.T) {
	mgr := newManager(t)
	ctx := context.Background()
	const total = 2
	id, err := mgr.AddBook(ctx, NewBook{Title: "T", Author: "A", TotalCopies: total})
	require.NoError(t, err)

	ops := []bool{true, true, true, false, false, false, true, false, false}
	for i, issue := range ops {
		if issue {
			err = mgr.IssueBook(ctx, id, Some("u"))
		} else {
			err = mgr.ReturnBook(ctx, id, Some("u"))
		}
		if err != nil {
			assert.True(t, errors.Is(err, ErrNotAvailable) || errors.Is(err, ErrAllReturned), "op %d: %v", i, err)
		}
		b, getErr := mgr.GetBook(ctx, id)
		require.NoError(t, getErr)
		assert.GreaterOrEqual(t, b.AvailableCopies, 0, "op %d", i)
		assert.LessOrEqual(t, b.AvailableCopies, total, "op %d", i)
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Message: "bad", Fields: map[string]string{"b": "gt", "a": "required"}}
	assert.Equal(t, "bad (a:required, b:gt)", err.Error())
	assert.Equal(t, "bad", (&ValidationError{Message: "bad"}).Error())
}
