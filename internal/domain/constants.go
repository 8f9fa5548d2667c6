package domain

const (
	RoleClient  = "CLIENT"
	RolePartner = "PARTNER"
	RoleAdmin   = "ADMIN"
	RoleSystem  = "SYSTEM"
)

// Realtime groups derived from roles on connect.
const (
	GroupPartners = "partners"
	GroupAdmins   = "admins"
)

const (
	OrderTypePremier      = "premier"
	OrderTypeWingman      = "wingman"
	OrderTypeLevelFarming = "level_farming"
)

var OrderTypes = []string{OrderTypePremier, OrderTypeWingman, OrderTypeLevelFarming}

const (
	PayoutStatusPending  = "PENDING"
	PayoutStatusApproved = "APPROVED"
	PayoutStatusDeclined = "DECLINED"
)

const (
	TxTypeSale              = "SALE"
	TxTypePayout            = "PAYOUT"
	TxTypePartnerCommission = "PARTNER_COMMISSION"
	TxTypeFee               = "FEE"
	TxTypeRefund            = "REFUND"
	TxTypeAdjustment        = "ADJUSTMENT"
)

var TxTypes = []string{TxTypeSale, TxTypePayout, TxTypePartnerCommission, TxTypeFee, TxTypeRefund, TxTypeAdjustment}

const (
	TxStatusCompleted = "COMPLETED"
	TxStatusPending   = "PENDING"
)

const (
	NotifNewOrder         = "NEW_ORDER"
	NotifOrderAssigned    = "ORDER_ASSIGNED"
	NotifOrderAccepted    = "ORDER_ACCEPTED"
	NotifOrderCompleted   = "ORDER_COMPLETED"
	NotifOrderCanceled    = "ORDER_CANCELED"
	NotifOrderRefused     = "ORDER_REFUSED"
	NotifPayoutRequested  = "PAYOUT_REQUESTED"
	NotifPayoutApproved   = "PAYOUT_APPROVED"
	NotifPayoutDeclined   = "PAYOUT_DECLINED"
	NotifOrderStatusAdmin = "ORDER_STATUS_ADMIN"
)

// Realtime event names pushed over the WebSocket channel.
const (
	EventOrderStatusChanged = "order.statusChanged"
	EventNotificationNew    = "notification.new"
	EventOrderNewAvailable  = "order.newAvailable"
	EventPayoutRequested    = "payout.requested"
)

// Event types published to the event bus after commit.
const (
	BusOrderCreated       = "order.created"
	BusOrderStatusChanged = "order.status_changed"
	BusOrderDeleted       = "order.deleted"
	BusPayoutRequested    = "payout.requested"
	BusPayoutProcessed    = "payout.processed"
	BusLedgerPosted       = "ledger.posted"
)

// NewOrderAdvertKey is the singleton key of the pool-wide "new order available" notification.
const NewOrderAdvertKey = "new_order_advert"

const DefaultCurrency = "USD"
