package notionsync

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/spendwise/internal/domain"
	"github.com/dvloznov/spendwise/internal/metrics"
	"github.com/jomei/notionapi"
)

// Property names of the transactions database.
const (
	PropDescription   = "Description"
	PropTransactionID = "Transaction ID"
	PropDate          = "Date"
	PropAmount        = "Amount"
	PropDirection     = "Direction"
	PropCategory      = "Category"
)

// Property names of the budget database. PropCategory is the title.
const (
	PropBudgetKey = "Budget Key"
	PropMonth     = "Month"
	PropLimit     = "Limit"
	PropSpent     = "Spent"
	PropRemaining = "Remaining"
	PropUsed      = "Used %"
	PropStatus    = "Status"
)

// Budget status options.
const (
	StatusOK       = "OK"
	StatusWarning  = "Warning"
	StatusExceeded = "Exceeded"
)

func richText(s string) []notionapi.RichText {
	return []notionapi.RichText{{
		Type: notionapi.ObjectTypeText,
		Text: &notionapi.Text{Content: s},
	}}
}

func dateProperty(d civil.Date) notionapi.DateProperty {
	start := notionapi.Date(d.In(time.UTC))
	return notionapi.DateProperty{Date: &notionapi.DateObject{Start: &start}}
}

// TransactionProperties maps a transaction to a Notion page.
func TransactionProperties(tx domain.Transaction) notionapi.Properties {
	category := tx.Category
	if category == "" {
		category = domain.UncategorizedCategory
	}
	return notionapi.Properties{
		PropDescription:   notionapi.TitleProperty{Title: richText(tx.Description)},
		PropTransactionID: notionapi.RichTextProperty{RichText: richText(tx.ID)},
		PropDate:          dateProperty(tx.Date),
		PropAmount:        notionapi.NumberProperty{Number: tx.Amount.InexactFloat64()},
		PropDirection:     notionapi.SelectProperty{Select: notionapi.Option{Name: string(tx.Direction)}},
		PropCategory:      notionapi.SelectProperty{Select: notionapi.Option{Name: category}},
	}
}

// BudgetKey identifies one budget line across exports.
func BudgetKey(month, category string) string {
	return month + "/" + category
}

// BudgetLineProperties maps one category line of a budget report.
func BudgetLineProperties(month string, line metrics.BudgetLine) notionapi.Properties {
	status := StatusOK
	switch {
	case line.Exceeded:
		status = StatusExceeded
	case line.Warning:
		status = StatusWarning
	}
	return notionapi.Properties{
		PropCategory:  notionapi.TitleProperty{Title: richText(line.Category)},
		PropBudgetKey: notionapi.RichTextProperty{RichText: richText(BudgetKey(month, line.Category))},
		PropMonth:     notionapi.RichTextProperty{RichText: richText(month)},
		PropLimit:     notionapi.NumberProperty{Number: line.Limit.InexactFloat64()},
		PropSpent:     notionapi.NumberProperty{Number: line.Spent.InexactFloat64()},
		PropRemaining: notionapi.NumberProperty{Number: line.Remaining.InexactFloat64()},
		PropUsed:      notionapi.NumberProperty{Number: line.PercentageUsed},
		PropStatus:    notionapi.SelectProperty{Select: notionapi.Option{Name: status}},
	}
}

// richTextValue reads the plain text of a rich-text property, or "".
func richTextValue(page notionapi.Page, name string) string {
	switch p := page.Properties[name].(type) {
	case *notionapi.RichTextProperty:
		return plainText(p.RichText)
	case notionapi.RichTextProperty:
		return plainText(p.RichText)
	}
	return ""
}

func plainText(rt []notionapi.RichText) string {
	if len(rt) == 0 {
		return ""
	}
	if rt[0].PlainText != "" {
		return rt[0].PlainText
	}
	if rt[0].Text != nil {
		return rt[0].Text.Content
	}
	return ""
}

// dateValue reads the start of a date property.
func dateValue(page notionapi.Page, name string) (civil.Date, bool) {
	var obj *notionapi.DateObject
	switch p := page.Properties[name].(type) {
	case *notionapi.DateProperty:
		obj = p.Date
	case notionapi.DateProperty:
		obj = p.Date
	}
	if obj == nil || obj.Start == nil {
		return civil.Date{}, false
	}
	return civil.DateOf(time.Time(*obj.Start)), true
}
