package domain

import (
	"slices"
	"strings"
)

// OrderStatus описывает жизненный цикл заказа.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusRejected  OrderStatus = "REJECTED"
	// OrderStatusConfirmed встречается в сохранённых данных, но переходов в него нет.
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
)

var knownStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusPaid,
	OrderStatusShipped,
	OrderStatusCompleted,
	OrderStatusCancelled,
	OrderStatusRejected,
	OrderStatusConfirmed,
}

// orderStateTransitions — допустимые переходы. Переходы в PAID/COMPLETED из CANCELLED и REJECTED
// разрешены: администратор может подтвердить оплату уже истёкшего или отклонённого заказа.
var orderStateTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusPaid, OrderStatusCompleted, OrderStatusCancelled, OrderStatusRejected},
	OrderStatusCancelled: {OrderStatusPaid, OrderStatusCompleted},
	OrderStatusRejected:  {OrderStatusPaid, OrderStatusCompleted},
	OrderStatusPaid:      {OrderStatusShipped, OrderStatusCompleted},
	OrderStatusConfirmed: {OrderStatusShipped, OrderStatusCompleted},
	OrderStatusShipped:   {OrderStatusCompleted},
}

// ParseOrderStatus нормализует строку в OrderStatus. Второе значение false, если статус неизвестен.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	status := OrderStatus(strings.ToUpper(strings.TrimSpace(s)))
	return status, slices.Contains(knownStatuses, status)
}

// AwaitsPayment — статусы, из которых вход в PAID/COMPLETED списывает остаток и выдаёт ваучеры.
func (s OrderStatus) AwaitsPayment() bool {
	return s == OrderStatusPending || s == OrderStatusCancelled || s == OrderStatusRejected
}

// IsSettlement сообщает, что статус означает подтверждённую оплату.
func (s OrderStatus) IsSettlement() bool {
	return s == OrderStatusPaid || s == OrderStatusCompleted
}

// IsTerminal сообщает, что из статуса нет обычных переходов.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled || s == OrderStatusRejected
}

// CanTransition сообщает, допустим ли переход current -> target.
func CanTransition(current, target OrderStatus) bool {
	return slices.Contains(orderStateTransitions[current], target)
}
