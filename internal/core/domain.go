package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Column names of an order-history export.
const (
	ColCreatedAt       = "CREATED_AT"
	ColDeliveryTime    = "DELIVERY_TIME"
	ColItem            = "ITEM"
	ColCategory        = "CATEGORY"
	ColStoreName       = "STORE_NAME"
	ColUnitPrice       = "UNIT_PRICE"
	ColQuantity        = "QUANTITY"
	ColSubtotal        = "SUBTOTAL"
	ColDeliveryAddress = "DELIVERY_ADDRESS"
)

// Columns lists the recognised export columns in their usual order.
var Columns = []string{
	ColCreatedAt, ColDeliveryTime, ColItem, ColCategory, ColStoreName,
	ColUnitPrice, ColQuantity, ColSubtotal, ColDeliveryAddress,
}

type (
	// RawRow is one row of the export keyed by column name. Unknown keys are ignored.
	RawRow map[string]string

	// LineItem is a single product entry of an order.
	LineItem struct {
		Item            string          `json:"item"`
		Category        string          `json:"category"`
		StoreName       string          `json:"storeName"`
		UnitPrice       decimal.Decimal `json:"unitPrice"`
		Quantity        int             `json:"quantity"`
		Subtotal        decimal.Decimal `json:"subtotal"`
		CreatedAt       time.Time       `json:"createdAt"`
		DeliveryTime    time.Time       `json:"deliveryTime"`
		DeliveryAddress string          `json:"deliveryAddress"`
		OrderID         string          `json:"orderId"`
	}

	// Order groups the line items of one checkout. Orders are derived on every
	// aggregation and never mutated afterwards.
	Order struct {
		ID           string          `json:"id"`
		StoreName    string          `json:"storeName"`
		CreatedAt    time.Time       `json:"createdAt"`
		DeliveryTime time.Time       `json:"deliveryTime"`
		Items        []LineItem      `json:"items"`
		Total        decimal.Decimal `json:"total"`
	}
)

// DeliveryMinutes returns the time between checkout and delivery in minutes.
func (o Order) DeliveryMinutes() float64 {
	return o.DeliveryTime.Sub(o.CreatedAt).Minutes()
}

// OrderKey derives the grouping key of a line item from the raw creation
// timestamp text and the store name. Characters outside [A-Za-z0-9] become '_'.
func OrderKey(createdAt, storeName string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, createdAt+"_"+storeName)
}
