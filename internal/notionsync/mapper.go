package notionsync

import (
	"fmt"

	"github.com/jomei/notionapi"

	"github.com/ddaros/financas/internal/domain"
)

// TransactionToNotionProperties maps one transaction onto the Notion
// database schema. The page title is the description; the transaction ID
// lives in its own rich-text property and is what the sync dedupes on.
func TransactionToNotionProperties(tx *domain.Transaction) notionapi.Properties {
	props := notionapi.Properties{
		"Description": notionapi.TitleProperty{
			Title: richText(tx.Description),
		},
		"Transaction ID": notionapi.RichTextProperty{
			RichText: richText(tx.ID),
		},
		"Amount": notionapi.NumberProperty{
			Number: tx.Amount,
		},
		"Date": notionapi.DateProperty{
			Date: &notionapi.DateObject{
				Start: notionDate(tx),
			},
		},
		"Forecast": notionapi.CheckboxProperty{
			Checkbox: tx.IsForecast,
		},
		"Verified": notionapi.CheckboxProperty{
			Checkbox: tx.IsVerified,
		},
	}

	if c := tx.CategoryOrFallback(); c != "" {
		props["Category"] = notionapi.SelectProperty{
			Select: notionapi.Option{Name: c},
		}
	}
	if b := tx.BehaviorOrFallback(); b != "" {
		props["Behavior"] = notionapi.SelectProperty{
			Select: notionapi.Option{Name: b},
		}
	}
	if tx.Entity != "" {
		props["Entity"] = notionapi.RichTextProperty{
			RichText: richText(tx.Entity),
		}
	}
	if tx.InstallmentTotal > 1 {
		props["Installment"] = notionapi.RichTextProperty{
			RichText: richText(fmt.Sprintf("%d/%d", tx.InstallmentCurrent, tx.InstallmentTotal)),
		}
	}
	if tx.BankName != "" {
		props["Bank"] = notionapi.SelectProperty{
			Select: notionapi.Option{Name: tx.BankName},
		}
	}

	return props
}

// extractTransactionID reads the Transaction ID property back off a page,
// returning "" when the page does not carry one.
func extractTransactionID(page notionapi.Page) string {
	prop, ok := page.Properties["Transaction ID"]
	if !ok {
		return ""
	}
	rt, ok := prop.(*notionapi.RichTextProperty)
	if !ok || len(rt.RichText) == 0 {
		return ""
	}
	return rt.RichText[0].PlainText
}

func richText(content string) []notionapi.RichText {
	return []notionapi.RichText{
		{
			Type: notionapi.ObjectTypeText,
			Text: &notionapi.Text{Content: content},
		},
	}
}

func notionDate(tx *domain.Transaction) *notionapi.Date {
	d := notionapi.Date(tx.DateIncurred)
	return &d
}
