package notionsync

import (
	"context"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/spendwise/internal/domain"
	"github.com/jomei/notionapi"
)

// NotionService is the subset of the Notion API used by the exports.
type NotionService interface {
	CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error)
	UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties) (*notionapi.Page, error)

	// QueryPages returns the rows of a database page by page; pass the
	// previous response's NextCursor to continue.
	QueryPages(ctx context.Context, databaseID string, cursor notionapi.Cursor) (*notionapi.DatabaseQueryResponse, error)

	// ArchivePage moves a page to the trash.
	ArchivePage(ctx context.Context, pageID string) error
}

// TransactionSource lists the transactions to export.
type TransactionSource interface {
	ListRange(ctx context.Context, userID string, from, to civil.Date) ([]domain.Transaction, error)
}
