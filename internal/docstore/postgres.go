package docstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"recordkeeper/internal/common"
	"recordkeeper/internal/dbx"
)

// PostgresStore implements Store over a single documents table
// (collection, id, data jsonb) through a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresStore struct {
	db dbx.DBTX
}

// NewPostgresStore constructs a store bound to the given DBTX.
func NewPostgresStore(db dbx.DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", common.ErrStorage, op, err)
}

func (s *PostgresStore) Insert(ctx context.Context, collection string, data map[string]any) (string, error) {
	encoded, err := json.Marshal(data)
	if err != nil {
		return "", storageErr("encode document", err)
	}

	id := uuid.NewString()
	query := `
		INSERT INTO documents (collection, id, data)
		VALUES ($1, $2, $3)
	`
	if _, err := s.db.ExecContext(ctx, query, collection, id, encoded); err != nil {
		return "", storageErr("insert into "+collection, err)
	}
	return id, nil
}

func (s *PostgresStore) Read(ctx context.Context, collection, id string) (*Document, error) {
	query := `
		SELECT data FROM documents
		WHERE collection = $1 AND id = $2
	`
	var raw []byte
	if err := s.db.QueryRowContext(ctx, query, collection, id).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, storageErr("read "+collection+"/"+id, err)
	}

	data := map[string]any{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, storageErr("decode "+collection+"/"+id, err)
	}
	return &Document{ID: id, Data: data}, nil
}

func (s *PostgresStore) Update(ctx context.Context, collection, id string, data map[string]any) error {
	// The create-mode sentinel is never a persisted ID; rejecting it here
	// costs nothing and holds even if a caller skips the handler guards.
	if id == common.NewDocumentID {
		return fmt.Errorf("cannot update unsaved document %q", id)
	}

	encoded, err := json.Marshal(data)
	if err != nil {
		return storageErr("encode document", err)
	}

	// Partial merge: existing fields not mentioned in data are kept.
	query := `
		UPDATE documents
		SET data = data || $3::jsonb, updated_at = now()
		WHERE collection = $1 AND id = $2
	`
	res, err := s.db.ExecContext(ctx, query, collection, id, encoded)
	if err != nil {
		return storageErr("update "+collection+"/"+id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr("rows affected", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

// Delete removes the document without checking that it exists first; deleting
// an absent ID reports success. Idempotent by design.
func (s *PostgresStore) Delete(ctx context.Context, collection, id string) error {
	query := `
		DELETE FROM documents
		WHERE collection = $1 AND id = $2
	`
	if _, err := s.db.ExecContext(ctx, query, collection, id); err != nil {
		return storageErr("delete "+collection+"/"+id, err)
	}
	return nil
}

func (s *PostgresStore) ListAll(ctx context.Context, collection string) ([]Document, error) {
	query := `
		SELECT id, data FROM documents
		WHERE collection = $1
		ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, query, collection)
	if err != nil {
		return nil, storageErr("list "+collection, err)
	}
	defer rows.Close()

	return scanDocuments(rows, false)
}

func (s *PostgresStore) ListFiltered(ctx context.Context, collection string, filters []Filter) ([]Document, error) {
	if len(filters) == 0 {
		return nil, ErrNoFilters
	}

	where, args, err := whereClause(collection, filters)
	if err != nil {
		return nil, err
	}

	query := "SELECT id, data FROM documents WHERE " + where + " ORDER BY id"
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("query "+collection, err)
	}
	defer rows.Close()

	return scanDocuments(rows, false)
}

func (s *PostgresStore) ListPaged(ctx context.Context, collection string, pageSize int, cursor *Cursor, filters []Filter, orderBy string) ([]Document, *Cursor, error) {
	if pageSize <= 0 {
		return nil, nil, fmt.Errorf("page size must be positive, got %d", pageSize)
	}

	where, args, err := whereClause(collection, filters)
	if err != nil {
		return nil, nil, err
	}

	// Ordering uses the jsonb operator (->), not the text operator (->>):
	// jsonb comparison sorts numbers numerically, so childrenCount 2 pages
	// before 10. The cursor carries the jsonb serialization of the boundary
	// value and is cast back so the keyset predicate compares the same way.
	selectList := "id, data"
	orderClause := "ORDER BY id"
	if orderBy != "" {
		args = append(args, orderBy)
		n := len(args)
		selectList = fmt.Sprintf("id, data, data -> $%d", n)
		orderClause = fmt.Sprintf("ORDER BY data -> $%d, id", n)
	}

	if cursor != nil {
		if orderBy != "" {
			args = append(args, orderBy, cursor.OrderValue, cursor.ID)
			n := len(args)
			where += fmt.Sprintf(" AND (data -> $%d, id) > ($%d::jsonb, $%d)", n-2, n-1, n)
		} else {
			args = append(args, cursor.ID)
			where += fmt.Sprintf(" AND id > $%d", len(args))
		}
	}

	args = append(args, pageSize)
	query := fmt.Sprintf("SELECT %s FROM documents WHERE %s %s LIMIT $%d",
		selectList, where, orderClause, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, storageErr("query "+collection, err)
	}
	defer rows.Close()

	docs, orderValues, err := scanDocumentsWithOrder(rows, orderBy != "")
	if err != nil {
		return nil, nil, err
	}

	// A short page is the last page.
	if len(docs) < pageSize || len(docs) == 0 {
		return docs, nil, nil
	}

	next := &Cursor{ID: docs[len(docs)-1].ID}
	if orderBy != "" {
		next.OrderValue = orderValues[len(orderValues)-1]
	}
	return docs, next, nil
}

// whereClause compiles the collection match plus the filter conjunction.
// Returned args start at placeholder $1.
func whereClause(collection string, filters []Filter) (string, []any, error) {
	args := []any{collection}
	conditions := []string{"collection = $1"}

	for _, f := range filters {
		predicate, predArgs, err := f.sqlPredicate(len(args) + 1)
		if err != nil {
			return "", nil, err
		}
		conditions = append(conditions, predicate)
		args = append(args, predArgs...)
	}

	return strings.Join(conditions, " AND "), args, nil
}

func scanDocuments(rows *sql.Rows, withOrder bool) ([]Document, error) {
	docs, _, err := scanDocumentsWithOrder(rows, withOrder)
	return docs, err
}

func scanDocumentsWithOrder(rows *sql.Rows, withOrder bool) ([]Document, []string, error) {
	var docs []Document
	var orderValues []string

	for rows.Next() {
		var (
			id    string
			raw   []byte
			order sql.NullString
		)
		var err error
		if withOrder {
			err = rows.Scan(&id, &raw, &order)
		} else {
			err = rows.Scan(&id, &raw)
		}
		if err != nil {
			return nil, nil, storageErr("scan document", err)
		}

		data := map[string]any{}
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, nil, storageErr("decode document "+id, err)
		}
		docs = append(docs, Document{ID: id, Data: data})
		orderValues = append(orderValues, order.String)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, storageErr("iterate documents", err)
	}
	return docs, orderValues, nil
}
