package domain

import "slices"

const (
	OrderStatusPending    = "PENDING"
	OrderStatusWaiting    = "WAITING"
	OrderStatusInActive   = "IN_ACTIVE"
	OrderStatusInProgress = "IN_PROGRESS"
	OrderStatusCompleted  = "COMPLETED"
	OrderStatusCancel     = "CANCEL"
)

var OrderStatuses = []string{
	OrderStatusPending, OrderStatusWaiting, OrderStatusInActive,
	OrderStatusInProgress, OrderStatusCompleted, OrderStatusCancel,
}

// orderTransitions is the directed graph of allowed status moves. COMPLETED and CANCEL are
// terminal: renew and recover spawn new orders instead of moving these.
var orderTransitions = map[string][]string{
	OrderStatusPending:    {OrderStatusWaiting, OrderStatusInActive},
	OrderStatusWaiting:    {OrderStatusInProgress, OrderStatusInActive},
	OrderStatusInActive:   {OrderStatusInProgress},
	OrderStatusInProgress: {OrderStatusCompleted, OrderStatusCancel},
}

func CanTransition(from, to string) bool {
	return slices.Contains(orderTransitions[from], to)
}

func ValidOrderStatus(s string) bool { return slices.Contains(OrderStatuses, s) }

func ValidOrderType(t string) bool { return slices.Contains(OrderTypes, t) }

func IsTerminal(status string) bool {
	return status == OrderStatusCompleted || status == OrderStatusCancel
}
