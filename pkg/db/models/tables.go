package models

// Table names shared by the hosted row API and the embedded GORM schema.
const (
	TableCustomerProfiles = "customer_profiles"
	TableMaterials        = "materials"
	TableOrders           = "orders"
	TableOrderItems       = "order_items"
	TableAuthIdentities   = "auth_identities"
)
