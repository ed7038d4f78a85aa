package database

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type Restaurant struct {
	ID                    uuid.UUID
	Name                  string
	Slug                  string
	Cuisine               []string
	Location              pgtype.Text
	Contact               pgtype.Text
	OpeningHours          pgtype.Text
	DeliveryTime          pgtype.Text
	Rating                pgtype.Numeric
	BannerImage           pgtype.Text
	Logo                  pgtype.Text
	WhatsappNumber        pgtype.Text
	UpiID                 pgtype.Text
	ReceiptFooter         pgtype.Text
	DefaultDeliveryCharge pgtype.Numeric
	GstPercent            pgtype.Numeric
	ServiceChargePercent  pgtype.Numeric
	ApplyTax              bool
	TaxBase               string
	Theme                 json.RawMessage
	IsActive              bool
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

type User struct {
	ID           uuid.UUID
	RestaurantID pgtype.UUID
	Email        string
	PasswordHash string
	FullName     string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
}

type MenuItem struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
	Name         string
	Description  pgtype.Text
	Price        pgtype.Numeric
	ImageURL     pgtype.Text
	Category     string
	IsBestseller bool
	Rating       pgtype.Numeric
	Votes        int32
	Available    bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Order struct {
	ID             uuid.UUID
	RestaurantID   uuid.UUID
	OrderNumber    string
	Status         string
	OrderType      string
	Source         string
	PaymentStatus  string
	PaymentMethod  pgtype.Text
	CustomerName   pgtype.Text
	CustomerPhone  pgtype.Text
	TableNo        pgtype.Text
	Subtotal       pgtype.Numeric
	DiscountAmount pgtype.Numeric
	TaxableAmount  pgtype.Numeric
	GstRate        pgtype.Numeric
	GstAmount      pgtype.Numeric
	ServiceRate    pgtype.Numeric
	ServiceAmount  pgtype.Numeric
	DeliveryFee    pgtype.Numeric
	Total          pgtype.Numeric
	TaxBase        string
	CreatedBy      pgtype.UUID
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type OrderItem struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	MenuItemID pgtype.UUID
	Name       string
	UnitPrice  pgtype.Numeric
	Quantity   int32
	LineTotal  pgtype.Numeric
}

type Expense struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
	Title        string
	Amount       pgtype.Numeric
	Category     string
	IncurredOn   time.Time
	Note         pgtype.Text
	CreatedAt    time.Time
}
