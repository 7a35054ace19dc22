package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"recordkeeper/internal/schema"
)

// Open binds the form to a record: "open <collection> <id|new>".
func (a *App) Open(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: open <collection> <id|new>")
	}
	return a.openForm(ctx, args[0], args[1])
}

// Show prints the open record's state and working copy.
func (a *App) Show(ctx context.Context) error {
	if a.form == nil {
		return fmt.Errorf("no record is open")
	}

	printlnFn(fmt.Sprintf("Collection: %s  ID: %s  State: %s", a.collection, a.form.ID(), a.form.State()))

	s := a.schemas[a.collection]
	table := tablewriter.NewWriter(a.out)
	table.SetHeader([]string{"Field", "Value"})
	for _, f := range s.Fields {
		value, _ := a.form.Field(f.Name)
		table.Append([]string{f.Name, formatValue(value)})
	}
	table.Render()
	return nil
}

// Set updates one field: "set <field> <value...>". The value is parsed
// according to the field's declared kind before it reaches the form.
func (a *App) Set(ctx context.Context, args []string) error {
	if a.form == nil {
		return fmt.Errorf("no record is open")
	}
	if len(args) < 2 {
		return fmt.Errorf("usage: set <field> <value>")
	}
	name := args[0]
	raw := strings.Join(args[1:], " ")

	f := a.schemas[a.collection].Field(name)
	if f == nil {
		return fmt.Errorf("unknown field %q", name)
	}

	value, err := parseFieldValue(f, raw)
	if err != nil {
		return err
	}
	a.form.SetField(name, value)
	return nil
}

// Unset clears one field: "unset <field>".
func (a *App) Unset(ctx context.Context, args []string) error {
	if a.form == nil {
		return fmt.Errorf("no record is open")
	}
	if len(args) != 1 {
		return fmt.Errorf("usage: unset <field>")
	}
	a.form.UnsetField(args[0])
	return nil
}

// SaveRecord persists the working copy, creating or updating as needed.
func (a *App) SaveRecord(ctx context.Context) error {
	if a.form == nil {
		return fmt.Errorf("no record is open")
	}
	a.form.Save(ctx)
	return nil
}

// DeleteRecord removes the open record.
func (a *App) DeleteRecord(ctx context.Context) error {
	if a.form == nil {
		return fmt.Errorf("no record is open")
	}
	a.form.Delete(ctx)
	return nil
}

// RevertRecord discards unsaved edits.
func (a *App) RevertRecord(ctx context.Context) error {
	if a.form == nil {
		return fmt.Errorf("no record is open")
	}
	a.form.Revert(ctx)
	return nil
}

// CloseRecord detaches the form, asking first if there are unsaved edits.
func (a *App) CloseRecord(ctx context.Context) error {
	if a.form == nil {
		return nil
	}
	if !a.form.ConfirmLeave() {
		return nil
	}
	a.form = nil
	a.transfer = nil
	a.collection = ""
	a.route = "/"
	return nil
}

// parseFieldValue converts a raw REPL token into the typed value the field
// expects. File lists are managed through attach/detach, never set directly.
func parseFieldValue(f *schema.Field, raw string) (any, error) {
	switch f.Kind {
	case schema.KindString:
		return raw, nil

	case schema.KindInt:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s must be a whole number", f.Name)
		}
		return n, nil

	case schema.KindFloat:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%s must be a number", f.Name)
		}
		return n, nil

	case schema.KindBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%s must be true or false", f.Name)
		}
		return b, nil

	case schema.KindStringList:
		parts := strings.Split(raw, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out, nil

	case schema.KindTime:
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return t, nil
		}
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			return t, nil
		}
		return nil, fmt.Errorf("%s must be an RFC 3339 timestamp or a YYYY-MM-DD date", f.Name)

	case schema.KindFileList:
		return nil, fmt.Errorf("%s is managed with attach and detach", f.Name)
	}
	return nil, fmt.Errorf("cannot set field %s", f.Name)
}

// formatValue renders a field value for table output.
func formatValue(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case time.Time:
		return value.Format(time.RFC3339)
	case []string:
		return strings.Join(value, ", ")
	case []any:
		return fmt.Sprintf("%d file(s)", len(value))
	default:
		if schema.IsUnset(v) {
			return "-"
		}
		return fmt.Sprintf("%v", value)
	}
}
