// Package bigquery implements the repository interfaces on BigQuery.
//
// Writes go through DML statements instead of the streaming inserter so that
// rows can be updated or deleted right after they are written.
package bigquery

import (
	"context"
	"fmt"
	"math/big"

	"cloud.google.com/go/bigquery"
	"github.com/shopspring/decimal"
	"google.golang.org/api/iterator"
)

// Table names inside the dataset.
const (
	transactionsTable  = "transactions"
	rulesTable         = "category_rules"
	budgetsTable       = "budgets"
	investmentsTable   = "investments"
	subscriptionsTable = "subscriptions"
)

// numericScale is the number of fractional digits of a BigQuery NUMERIC.
const numericScale = 9

// DB wraps a BigQuery client bound to one dataset. It is shared by every
// repository in this package.
type DB struct {
	client    *bigquery.Client
	projectID string
	datasetID string
}

// Open creates a client for projectID and binds it to datasetID.
func Open(ctx context.Context, projectID, datasetID string) (*DB, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("Open: creating client: %w", err)
	}
	return NewDB(client, projectID, datasetID), nil
}

// NewDB wraps an existing client.
func NewDB(client *bigquery.Client, projectID, datasetID string) *DB {
	return &DB{client: client, projectID: projectID, datasetID: datasetID}
}

// Client returns the underlying BigQuery client.
func (db *DB) Client() *bigquery.Client {
	return db.client
}

// Close closes the BigQuery client connection.
func (db *DB) Close() error {
	if db.client != nil {
		return db.client.Close()
	}
	return nil
}

// table returns the fully qualified, backquoted name of a table.
func (db *DB) table(name string) string {
	return qualify(db.projectID, db.datasetID, name)
}

func qualify(projectID, datasetID, name string) string {
	return fmt.Sprintf("`%s.%s.%s`", projectID, datasetID, name)
}

// exec runs a DML or DDL statement, waits for it and returns the number of
// rows it changed.
func (db *DB) exec(ctx context.Context, sql string, params []bigquery.QueryParameter) (int64, error) {
	q := db.client.Query(sql)
	q.Parameters = params

	job, err := q.Run(ctx)
	if err != nil {
		return 0, fmt.Errorf("running query: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return 0, fmt.Errorf("waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return 0, fmt.Errorf("job error: %w", err)
	}

	if status.Statistics != nil {
		if qs, ok := status.Statistics.Details.(*bigquery.QueryStatistics); ok {
			return qs.NumDMLAffectedRows, nil
		}
	}
	return 0, nil
}

// readAll runs a query and loads every row into a T.
func readAll[T any](ctx context.Context, db *DB, sql string, params []bigquery.QueryParameter) ([]T, error) {
	q := db.client.Query(sql)
	q.Parameters = params

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("query read: %w", err)
	}

	var rows []T
	for {
		var r T
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iter next: %w", err)
		}
		rows = append(rows, r)
	}
	return rows, nil
}

func toRat(d decimal.Decimal) *big.Rat {
	return d.Rat()
}

func fromRat(r *big.Rat) decimal.Decimal {
	if r == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(r.FloatString(numericScale))
	if err != nil {
		return decimal.Zero
	}
	return d
}
