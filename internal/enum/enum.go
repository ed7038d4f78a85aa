package enum

// Values below mirror the CHECK constraints in the schema. Changing one
// requires a migration.

const (
	OrderStatusPending   = "PENDING"
	OrderStatusPreparing = "PREPARING"
	OrderStatusReady     = "READY"
	OrderStatusCompleted = "COMPLETED"
	OrderStatusCancelled = "CANCELLED"
)

const (
	PaymentStatusPending = "PENDING"
	PaymentStatusPaid    = "PAID"
)

const (
	UserRoleOwner   = "OWNER"
	UserRoleManager = "MANAGER"
	UserRoleCashier = "CASHIER"
)

const (
	OrderTypeDineIn   = "DINE_IN"
	OrderTypeTakeaway = "TAKEAWAY"
	OrderTypeDelivery = "DELIVERY"
)

const (
	OrderSourceOnline = "ONLINE"
	OrderSourcePOS    = "POS"
)

const (
	MenuCategoryVeg     = "VEG"
	MenuCategoryNonVeg  = "NON_VEG"
	MenuCategoryDrinks  = "DRINKS"
	MenuCategoryDessert = "DESSERT"
)

const (
	PaymentMethodCash   = "CASH"
	PaymentMethodOnline = "ONLINE"
	PaymentMethodCard   = "CARD"
	PaymentMethodUPI    = "UPI"
)

const (
	ExpenseCategoryInventory = "INVENTORY"
	ExpenseCategorySalary    = "SALARY"
	ExpenseCategoryRent      = "RENT"
	ExpenseCategoryUtilities = "UTILITIES"
	ExpenseCategoryOther     = "OTHER"
)
