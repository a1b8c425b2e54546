// Package access holds the single role/capability table the API checks.
package access

import "strings"

type Role string

const (
	RoleMasterAdmin Role = "master_admin"
	RoleSubAdmin    Role = "sub_admin"
	RoleDelivery    Role = "delivery"
	RoleCustomer    Role = "customer"
)

type Action string

const (
	ViewOrders            Action = "view_orders"
	UpdateOrderStatus     Action = "update_order_status"
	CancelOwnOrder        Action = "cancel_own_order"
	MarkDelivered         Action = "mark_delivered"
	ViewDeliveryDashboard Action = "view_delivery_dashboard"
	ManageInvoices        Action = "manage_invoices"
	ManageProducts        Action = "manage_products"
	ManageSettings        Action = "manage_settings"
	UploadMedia           Action = "upload_media"
	Checkout              Action = "checkout"
)

var table = map[Role]map[Action]bool{
	RoleMasterAdmin: {
		ViewOrders: true, UpdateOrderStatus: true, MarkDelivered: true, ViewDeliveryDashboard: true,
		ManageInvoices: true, ManageProducts: true, ManageSettings: true, UploadMedia: true,
	},
	RoleSubAdmin: {
		ViewOrders: true, UpdateOrderStatus: true, MarkDelivered: true, ViewDeliveryDashboard: true,
		ManageInvoices: true, ManageProducts: true, UploadMedia: true,
	},
	RoleDelivery: {
		ViewOrders: true, MarkDelivered: true, ViewDeliveryDashboard: true,
	},
	RoleCustomer: {
		ViewOrders: true, CancelOwnOrder: true, Checkout: true,
	},
}

// ParseRole accepts the spellings found in issued tokens ("Sub Admin",
// "sub-admin", "admin"). Anything else yields an empty role, which is denied
// every action.
func ParseRole(s string) Role {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	switch Role(s) {
	case RoleMasterAdmin, RoleSubAdmin, RoleDelivery, RoleCustomer:
		return Role(s)
	case "admin", "master":
		return RoleMasterAdmin
	case "subadmin":
		return RoleSubAdmin
	case "delivery_partner", "rider":
		return RoleDelivery
	case "user", "buyer":
		return RoleCustomer
	}
	return ""
}

func Allowed(role Role, action Action) bool {
	return table[role][action]
}

// Staff reports whether role works in the back office, which widens order
// listings from "own orders" to "all orders".
func Staff(role Role) bool {
	return role == RoleMasterAdmin || role == RoleSubAdmin || role == RoleDelivery
}
