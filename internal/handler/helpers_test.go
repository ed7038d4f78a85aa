package handler_test

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/cravewave/api/internal/database"
	"github.com/cravewave/api/internal/enum"
)

// --- Shared test fixtures ---

func makePgNumeric(s string) pgtype.Numeric {
	var n pgtype.Numeric
	if err := n.Scan(s); err != nil {
		panic(err)
	}
	return n
}

func makePgText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: true}
}

func makePgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

// sampleRestaurant is a restaurant with 5% GST, 10% service charge on the
// discounted base, and a UPI ID so payment links get attached.
func sampleRestaurant(id uuid.UUID) database.Restaurant {
	return database.Restaurant{
		ID:                    id,
		Name:                  "Spice Route",
		Slug:                  "spice-route",
		Cuisine:               []string{"North Indian"},
		Rating:                makePgNumeric("4.50"),
		UpiID:                 makePgText("spiceroute@upi"),
		DefaultDeliveryCharge: makePgNumeric("30.00"),
		GstPercent:            makePgNumeric("5.00"),
		ServiceChargePercent:  makePgNumeric("10.00"),
		ApplyTax:              true,
		TaxBase:               "TAXABLE",
		Theme:                 []byte(`{}`),
		IsActive:              true,
		CreatedAt:             time.Now(),
	}
}

func sampleMenuItem(id, restaurantID uuid.UUID) database.MenuItem {
	return database.MenuItem{
		ID:           id,
		RestaurantID: restaurantID,
		Name:         "Paneer Tikka",
		Price:        makePgNumeric("250.00"),
		Category:     enum.MenuCategoryVeg,
		Rating:       makePgNumeric("0"),
		Available:    true,
		CreatedAt:    time.Now(),
	}
}

func sampleOrder(id, restaurantID uuid.UUID) database.Order {
	return database.Order{
		ID:             id,
		RestaurantID:   restaurantID,
		OrderNumber:    "CW-007",
		Status:         enum.OrderStatusPending,
		OrderType:      enum.OrderTypeDineIn,
		Source:         enum.OrderSourcePOS,
		PaymentStatus:  enum.PaymentStatusPending,
		Subtotal:       makePgNumeric("500.00"),
		DiscountAmount: makePgNumeric("50.00"),
		TaxableAmount:  makePgNumeric("450.00"),
		GstRate:        makePgNumeric("5.00"),
		GstAmount:      makePgNumeric("22.50"),
		ServiceRate:    makePgNumeric("10.00"),
		ServiceAmount:  makePgNumeric("45.00"),
		DeliveryFee:    makePgNumeric("0"),
		Total:          makePgNumeric("517.50"),
		TaxBase:        "TAXABLE",
		CreatedAt:      time.Now(),
	}
}
