package notionsync

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dvloznov/spendwise/internal/domain"
	"github.com/jomei/notionapi"
)

const (
	// DefaultTimeout bounds a single Notion API call.
	DefaultTimeout = 30 * time.Second

	// pageSize is the largest page the Notion query endpoint returns.
	pageSize = 100
)

// NotionClient implements NotionService on top of github.com/jomei/notionapi.
type NotionClient struct {
	api *notionapi.Client
}

// NewNotionClient returns a client authenticated with an integration token.
// A non-positive timeout selects DefaultTimeout.
func NewNotionClient(token string, timeout time.Duration) *NotionClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &NotionClient{
		api: notionapi.NewClient(
			notionapi.Token(token),
			notionapi.WithHTTPClient(&http.Client{Timeout: timeout}),
		),
	}
}

func (n *NotionClient) CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error) {
	page, err := n.api.Page.Create(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(databaseID),
		},
		Properties: properties,
	})
	if err != nil {
		return nil, fmt.Errorf("create page in %s: %w", databaseID, mapError(err))
	}
	return page, nil
}

func (n *NotionClient) UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties) (*notionapi.Page, error) {
	page, err := n.api.Page.Update(ctx, notionapi.PageID(pageID), &notionapi.PageUpdateRequest{
		Properties: properties,
	})
	if err != nil {
		return nil, fmt.Errorf("update page %s: %w", pageID, mapError(err))
	}
	return page, nil
}

// QueryPages returns one page of database rows starting at cursor. An empty
// cursor starts from the beginning.
func (n *NotionClient) QueryPages(ctx context.Context, databaseID string, cursor notionapi.Cursor) (*notionapi.DatabaseQueryResponse, error) {
	resp, err := n.api.Database.Query(ctx, notionapi.DatabaseID(databaseID), &notionapi.DatabaseQueryRequest{
		StartCursor: cursor,
		PageSize:    pageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("query database %s: %w", databaseID, mapError(err))
	}
	return resp, nil
}

// ArchivePage moves a page to the trash. Notion has no hard delete.
func (n *NotionClient) ArchivePage(ctx context.Context, pageID string) error {
	_, err := n.api.Page.Update(ctx, notionapi.PageID(pageID), &notionapi.PageUpdateRequest{
		Archived:   true,
		Properties: notionapi.Properties{},
	})
	if err != nil {
		return fmt.Errorf("archive page %s: %w", pageID, mapError(err))
	}
	return nil
}

// mapError turns Notion's 404 into domain.ErrNotFound and keeps the API
// error reachable through errors.As.
func mapError(err error) error {
	var apiErr *notionapi.Error
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return fmt.Errorf("%w: %w", domain.ErrNotFound, err)
	}
	return err
}

var _ NotionService = (*NotionClient)(nil)
