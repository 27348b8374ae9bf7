package mcpserver

// ItemFormatContract describes collection items for LLM consumers that add or
// update them through the tools.
const ItemFormatContract = `# shelf Item Format

Every collection item has this shape (JSON, camelCase keys):

` + "```" + `json
{
  "id": "3f6c2b1e-6a63-4a55-9a43-2c1d0f1e9b7a",
  "title": "Dune",
  "category": "books",
  "status": "progress",
  "progress": 40,
  "mood": "curious",
  "notes": "Re-reading before the film.",
  "coverImage": "https://books.google.com/.../dune.jpg",
  "dateAdded": "2024-05-01T12:00:00Z"
}
` + "```" + `

## Rules

1. **id** and **dateAdded** are assigned by shelf and can never be changed.
2. **title** is required and may not be blank.
3. **category** is one of ` + "`books`, `shows`, `podcasts`" + `. Movies count as shows.
4. **status** is one of ` + "`todo`, `progress`, `finished`" + `.
5. **progress** is an integer from 0 to 100. It is only kept when an item is
   added with status ` + "`progress`" + `; updates may set it at any time.
6. **mood**, **notes** and **coverImage** are optional free text. Absent fields
   are omitted entirely, never sent as null. In update_item, passing null for
   one of them clears it.
7. Items keep the order in which they were added.

## Importing from a catalog

Call search_catalog first, then import_result with the same query and kind and
the zero-based index of the result. The imported item gets the result's title,
category and cover image, and notes of the form
` + "`Added from search: <first 100 characters of the description>...`" + `.
`
