package cli

import "recordkeeper/internal/schema"

// collectionSchemas declares the editable collections. The rule tables drive
// both the strict form validation and the lenient validation of fetched
// documents.
func collectionSchemas() map[string]*schema.Schema {
	return map[string]*schema.Schema{
		"books": {
			Collection: "books",
			Fields: []schema.Field{
				{Name: "title", Kind: schema.KindString, Required: true, MinLen: 1, MaxLen: 100},
				{Name: "author", Kind: schema.KindString, Required: true, MinLen: 1, MaxLen: 100},
				{Name: "createdDate", Kind: schema.KindTime},
				{Name: "files", Kind: schema.KindFileList},
			},
		},
		"users": {
			Collection: "users",
			Fields: []schema.Field{
				{Name: "fName", Kind: schema.KindString, Required: true, MinLen: 1, MaxLen: 50},
				{Name: "lName", Kind: schema.KindString, Required: true, MinLen: 1},
				{Name: "born", Kind: schema.KindString},
				{Name: "childrenCount", Kind: schema.KindInt, Min: schema.Bound(0)},
				{Name: "userHeight", Kind: schema.KindFloat, Min: schema.Bound(30), Max: schema.Bound(300)},
				{Name: "hasDrivingLic", Kind: schema.KindBool},
				{Name: "hobbies", Kind: schema.KindStringList},
				{Name: "picked", Kind: schema.KindString},
				{Name: "createdDate", Kind: schema.KindTime},
				{Name: "files", Kind: schema.KindFileList},
			},
		},
	}
}
