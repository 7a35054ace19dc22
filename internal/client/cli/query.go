package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"recordkeeper/internal/client/notify"
	"recordkeeper/internal/docstore"
)

// List fetches a whole collection: "list <collection>". Meant for small
// reference collections; large ones should go through page.
func (a *App) List(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: list <collection>")
	}
	collection := args[0]
	if _, ok := a.schemas[collection]; !ok {
		return fmt.Errorf("unknown collection %q", collection)
	}

	docs, err := a.docs.ListAll(ctx, collection)
	if err != nil {
		return err
	}
	a.renderDocuments(collection, docs)
	return nil
}

// Find runs a filtered query: "find <collection> <field> <op> <value> ...".
// Filter conditions come in triples and are combined as a conjunction.
func (a *App) Find(ctx context.Context, args []string) error {
	if len(args) < 4 || (len(args)-1)%3 != 0 {
		return fmt.Errorf("usage: find <collection> <field> <op> <value> [<field> <op> <value> ...]")
	}
	collection := args[0]
	if _, ok := a.schemas[collection]; !ok {
		return fmt.Errorf("unknown collection %q", collection)
	}

	filters, err := parseFilters(args[1:])
	if err != nil {
		return err
	}

	docs, err := a.docs.ListFiltered(ctx, collection, filters)
	if err != nil {
		return err
	}
	a.renderDocuments(collection, docs)
	return nil
}

// Page starts a paged scan: "page <collection> <size> [orderBy]". Subsequent
// pages come from next.
func (a *App) Page(ctx context.Context, args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return fmt.Errorf("usage: page <collection> <size> [orderBy]")
	}
	collection := args[0]
	if _, ok := a.schemas[collection]; !ok {
		return fmt.Errorf("unknown collection %q", collection)
	}
	size, err := strconv.Atoi(args[1])
	if err != nil || size <= 0 {
		return fmt.Errorf("page size must be a positive number")
	}
	orderBy := ""
	if len(args) == 3 {
		orderBy = args[2]
	}

	a.lastQuery = &pageQuery{collection: collection, pageSize: size, orderBy: orderBy}
	a.lastCursor = nil
	return a.fetchPage(ctx)
}

// Next continues the last paged scan.
func (a *App) Next(ctx context.Context) error {
	if a.lastQuery == nil {
		return fmt.Errorf("no paged query to continue; use page first")
	}
	if a.lastCursor == nil {
		a.notifier.Notify(notify.Info, "no further pages")
		return nil
	}
	return a.fetchPage(ctx)
}

func (a *App) fetchPage(ctx context.Context) error {
	q := a.lastQuery
	docs, cursor, err := a.docs.ListPaged(ctx, q.collection, q.pageSize, a.lastCursor, q.filters, q.orderBy)
	if err != nil {
		return err
	}
	a.lastCursor = cursor

	a.renderDocuments(q.collection, docs)
	if cursor == nil {
		printlnFn("End of results.")
	} else {
		printlnFn("More results available. Use: next")
	}
	return nil
}

// renderDocuments prints documents as a table with one column per schema
// field. Values are shown as stored; no validation profile is applied here.
func (a *App) renderDocuments(collection string, docs []docstore.Document) {
	if len(docs) == 0 {
		printlnFn("No records found.")
		return
	}

	s := a.schemas[collection]
	headers := []string{"ID"}
	for _, f := range s.Fields {
		headers = append(headers, f.Name)
	}

	table := tablewriter.NewWriter(a.out)
	table.SetHeader(headers)
	for _, doc := range docs {
		row := []string{doc.ID}
		for _, f := range s.Fields {
			row = append(row, formatValue(doc.Data[f.Name]))
		}
		table.Append(row)
	}
	table.Render()
	printlnFn(fmt.Sprintf("%d record(s)", len(docs)))
}

// parseFilters turns flat (field, op, value) triples into filters. Membership
// operators take comma-separated candidate lists.
func parseFilters(args []string) ([]docstore.Filter, error) {
	filters := make([]docstore.Filter, 0, len(args)/3)
	for i := 0; i+2 < len(args); i += 3 {
		op, err := docstore.ParseOperator(args[i+1])
		if err != nil {
			return nil, err
		}

		var value any
		switch op {
		case docstore.OpIn, docstore.OpNotIn, docstore.OpArrayContainsAny:
			parts := strings.Split(args[i+2], ",")
			list := make([]any, 0, len(parts))
			for _, p := range parts {
				list = append(list, parseScalar(strings.TrimSpace(p)))
			}
			value = list
		default:
			value = parseScalar(args[i+2])
		}

		filters = append(filters, docstore.Filter{Field: args[i], Operator: op, Value: value})
	}
	return filters, nil
}

// parseScalar guesses the filter value type: number, boolean, then string.
func parseScalar(raw string) any {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	return raw
}
