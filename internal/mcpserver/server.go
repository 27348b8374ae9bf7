// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the shelf collection and catalog search over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/shelf/internal/models"
	"github.com/starford/shelf/internal/search"
	"github.com/starford/shelf/internal/store"
)

const (
	collectionURI = "shelf://collection"
	itemFormatURI = "shelf://item-format"
)

var (
	kindEnum     = []string{string(models.CategoryBooks), string(models.CategoryShows), string(models.CategoryPodcasts)}
	statusEnum   = []string{string(models.StatusTodo), string(models.StatusProgress), string(models.StatusFinished)}
	optionalKeys = []string{"cover_image", "notes", "mood", "progress"}
)

// Server wraps the MCP server with shelf tools.
type Server struct {
	mcp   *server.MCPServer
	store *store.Store
	agg   *search.Aggregator
}

// New creates a new MCP server with all shelf tools registered.
func New(s *store.Store, agg *search.Aggregator, version string) *Server {
	srv := &Server{store: s, agg: agg}

	srv.mcp = server.NewMCPServer(
		"shelf",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	srv.mcp.AddTool(mcp.NewTool("search_catalog",
		mcp.WithDescription("Search an external catalog: Google Books for books, TMDB for shows and movies, iTunes for podcasts. "+
			"Returns at most 10 normalized results; an empty list means nothing was found or the catalog is unavailable."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search text")),
		mcp.WithString("kind", mcp.Required(), mcp.Enum(kindEnum...), mcp.Description("Catalog to search")),
	), srv.searchCatalog)

	srv.mcp.AddTool(mcp.NewTool("import_result",
		mcp.WithDescription("Run a catalog search and add the result at the given position to the collection."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search text, as passed to search_catalog")),
		mcp.WithString("kind", mcp.Required(), mcp.Enum(kindEnum...), mcp.Description("Catalog to search")),
		mcp.WithNumber("index", mcp.Required(), mcp.Min(0), mcp.Description("Zero-based position in the search_catalog results")),
		mcp.WithString("status", mcp.Enum(statusEnum...), mcp.Description("Initial status (default todo)")),
	), srv.importResult)

	srv.mcp.AddTool(mcp.NewTool("list_items",
		mcp.WithDescription("List collection items in the order they were added, optionally filtered."),
		mcp.WithString("category", mcp.Enum(kindEnum...), mcp.Description("Only items of this category")),
		mcp.WithString("status", mcp.Enum(statusEnum...), mcp.Description("Only items with this status")),
	), srv.listItems)

	srv.mcp.AddTool(mcp.NewTool("add_item",
		mcp.WithDescription("Add an item to the collection. See the "+itemFormatURI+" resource for the field contract."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Display title")),
		mcp.WithString("category", mcp.Required(), mcp.Enum(kindEnum...)),
		mcp.WithString("status", mcp.Required(), mcp.Enum(statusEnum...)),
		mcp.WithNumber("progress", mcp.Min(0), mcp.Max(100), mcp.Description("Percent complete; kept only when status is progress")),
		mcp.WithString("mood", mcp.Description("Free-form mood tag")),
		mcp.WithString("notes", mcp.Description("Free-form notes")),
		mcp.WithString("cover_image", mcp.Description("Cover image URL")),
	), srv.addItem)

	srv.mcp.AddTool(mcp.NewTool("update_item",
		mcp.WithDescription("Change fields of an item. Omitted fields are left alone; null clears an optional field. "+
			"An unknown id changes nothing."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Item id")),
		mcp.WithString("title"),
		mcp.WithString("category", mcp.Enum(kindEnum...)),
		mcp.WithString("status", mcp.Enum(statusEnum...)),
		mcp.WithNumber("progress", mcp.Min(0), mcp.Max(100)),
		mcp.WithString("mood"),
		mcp.WithString("notes"),
		mcp.WithString("cover_image"),
	), srv.updateItem)

	srv.mcp.AddTool(mcp.NewTool("delete_item",
		mcp.WithDescription("Remove an item from the collection. Removing a missing id is not an error."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Item id")),
	), srv.deleteItem)

	srv.mcp.AddTool(mcp.NewTool("get_stats",
		mcp.WithDescription("Count items per category, and per status within each category."),
	), srv.getStats)

	srv.mcp.AddResource(
		mcp.NewResource(collectionURI, "Collection",
			mcp.WithResourceDescription("The complete persisted state: items and display preferences."),
			mcp.WithMIMEType("application/json"),
		),
		srv.readCollection,
	)
	srv.mcp.AddResource(
		mcp.NewResource(itemFormatURI, "Item Format Contract",
			mcp.WithResourceDescription("Fields and rules for collection items."),
			mcp.WithMIMEType("text/markdown"),
		),
		srv.readItemFormat,
	)

	return srv
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func (s *Server) searchCatalog(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	kind, err := req.RequireString("kind")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	resp, err := s.agg.Do(ctx, search.Request{Query: query, Kind: models.Category(kind)})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if resp.Degraded {
		return mcp.NewToolResultError(search.FailureNotice), nil
	}
	return jsonResult(resp.Results), nil
}

func (s *Server) importResult(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	kind, err := req.RequireString("kind")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	idx, err := req.RequireFloat("index")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	status := models.Status(req.GetString("status", string(models.StatusTodo)))

	resp, err := s.agg.Do(ctx, search.Request{Query: query, Kind: models.Category(kind)})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if resp.Degraded {
		return mcp.NewToolResultError(search.FailureNotice), nil
	}
	i := int(idx)
	if idx != math.Trunc(idx) || i < 0 || i >= len(resp.Results) {
		return mcp.NewToolResultError(fmt.Sprintf("index %v out of range: search returned %d results", idx, len(resp.Results))), nil
	}

	in := search.ImportItem(resp.Results[i], status)
	if err := in.Validate(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(s.store.AddItem(in.Normalized())), nil
}

func (s *Server) listItems(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category := models.Category(req.GetString("category", ""))
	status := models.Status(req.GetString("status", ""))
	if category != "" && !category.Valid() {
		return mcp.NewToolResultError(fmt.Sprintf("unknown category %q", category)), nil
	}
	if status != "" && !status.Valid() {
		return mcp.NewToolResultError(fmt.Sprintf("unknown status %q", status)), nil
	}
	return jsonResult(s.store.Filter(category, status)), nil
}

func (s *Server) addItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	category, err := req.RequireString("category")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	status, err := req.RequireString("status")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	in := models.NewItem{
		Title:    title,
		Category: models.Category(category),
		Status:   models.Status(status),
	}
	patch, err := optionalFields(req.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	in.CoverImage = patch.CoverImage.Value
	in.Notes = patch.Notes.Value
	in.Mood = patch.Mood.Value
	in.Progress = patch.Progress.Value

	if err := in.Validate(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(s.store.AddItem(in.Normalized())), nil
}

func (s *Server) updateItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	args := req.GetArguments()
	patch, err := optionalFields(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if v, ok := args["title"]; ok {
		patch.Title, err = stringField(v, "title")
	}
	if v, ok := args["category"]; ok && err == nil {
		var f models.Field[string]
		f, err = stringField(v, "category")
		patch.Category = convertField[string, models.Category](f)
	}
	if v, ok := args["status"]; ok && err == nil {
		var f models.Field[string]
		f, err = stringField(v, "status")
		patch.Status = convertField[string, models.Status](f)
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := patch.Validate(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	item, ok := s.store.UpdateItem(id, patch)
	if !ok {
		return mcp.NewToolResultText(fmt.Sprintf("no item with id %s; nothing changed", id)), nil
	}
	return jsonResult(item), nil
}

func (s *Server) deleteItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !s.store.DeleteItem(id) {
		return mcp.NewToolResultText(fmt.Sprintf("no item with id %s", id)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", id)), nil
}

func (s *Server) getStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.store.Stats()), nil
}

func (s *Server) readCollection(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(s.store.Snapshot(), "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      collectionURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) readItemFormat(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      itemFormatURI,
			MIMEType: "text/markdown",
			Text:     ItemFormatContract,
		},
	}, nil
}

// optionalFields reads the optional item fields from tool arguments. A key
// that is present with a null value clears the field.
func optionalFields(args map[string]any) (models.ItemPatch, error) {
	var p models.ItemPatch
	var err error
	for _, key := range optionalKeys {
		v, ok := args[key]
		if !ok {
			continue
		}
		switch key {
		case "cover_image":
			p.CoverImage, err = stringField(v, key)
		case "notes":
			p.Notes, err = stringField(v, key)
		case "mood":
			p.Mood, err = stringField(v, key)
		case "progress":
			p.Progress, err = intField(v, key)
		}
		if err != nil {
			return models.ItemPatch{}, err
		}
	}
	return p, nil
}

var errWrongType = errors.New("wrong argument type")

func stringField(v any, key string) (models.Field[string], error) {
	if v == nil {
		return models.Null[string](), nil
	}
	s, ok := v.(string)
	if !ok {
		return models.Field[string]{}, fmt.Errorf("%s: %w: want string", key, errWrongType)
	}
	return models.Val(s), nil
}

func intField(v any, key string) (models.Field[int], error) {
	if v == nil {
		return models.Null[int](), nil
	}
	f, ok := v.(float64)
	if !ok || f != math.Trunc(f) {
		return models.Field[int]{}, fmt.Errorf("%s: %w: want integer", key, errWrongType)
	}
	return models.Val(int(f)), nil
}

func convertField[From ~string, To ~string](f models.Field[From]) models.Field[To] {
	if f.Value == nil {
		return models.Field[To]{Set: f.Set}
	}
	return models.Val(To(*f.Value))
}
