package notify

import (
	"fmt"

	"github.com/Skotchmaster/ezpickup/services/order/internal/models"
)

const (
	TypeOrderCreated   = "order_created"
	TypeNewOrder       = "new_order"
	TypeOrderRejected  = "order_rejected"
	TypeOrderPreparing = "order_preparing"
	TypePickupReady    = "pickup_ready"
	TypeOrderCompleted = "order_completed"
	TypeOrderCanceled  = "order_canceled"
	TypeCustom         = "custom"

	defaultRejectReason = "가게 사정"
	defaultCustomerName = "고객"
	defaultStoreName    = "매장"
	preparationMinutes  = "10"
)

// Notice is one notification to persist and push.
type Notice struct {
	RecipientID   uint
	RecipientType models.RecipientType
	Type          string
	Title         string
	Message       string
}

func createdNotices(o *models.Order, store *models.StoreInfo) []Notice {
	var out []Notice
	if o.CustomerID != nil {
		out = append(out, Notice{
			RecipientID:   *o.CustomerID,
			RecipientType: models.RecipientCustomer,
			Type:          TypeOrderCreated,
			Title:         "주문이 접수되었습니다",
			Message:       fmt.Sprintf("%s에서 주문이 접수되었습니다. 주문번호: %s", storeName(store), o.OrderNumber),
		})
	}
	out = append(out, Notice{
		RecipientID:   store.OwnerUserID,
		RecipientType: models.RecipientOwner,
		Type:          TypeNewOrder,
		Title:         "☎ 새로운 주문이 접수되었습니다.",
		Message:       "사장님 주문 수락하기를 눌러주세요.",
	})
	return out
}

// statusNotices returns nothing for guest orders and for statuses without a
// policy (PENDING).
func statusNotices(o *models.Order, store *models.StoreInfo, status models.OrderStatus) []Notice {
	if o.CustomerID == nil {
		return nil
	}
	customer := func(typ, title, msg string) Notice {
		return Notice{RecipientID: *o.CustomerID, RecipientType: models.RecipientCustomer, Type: typ, Title: title, Message: msg}
	}
	owner := func(typ, title, msg string) Notice {
		return Notice{RecipientID: store.OwnerUserID, RecipientType: models.RecipientOwner, Type: typ, Title: title, Message: msg}
	}

	switch status {
	case models.StatusRejected:
		return []Notice{customer(TypeOrderRejected, "주문이 거부되었습니다",
			"죄송합니다. 회원님의 주문이 가게 사정으로 인해 거부되었습니다. 사유: "+rejectReason(o))}
	case models.StatusPreparing:
		return []Notice{customer(TypeOrderPreparing, "주문하신 음식 조리가 시작되었습니다",
			"회원님이 주문하신 음식이 현재 조리 중입니다.")}
	case models.StatusReady:
		return []Notice{customer(TypePickupReady, "음식 준비가 완료되었습니다",
			"주문하신 음식이 준비되었습니다. 픽업 가능합니다.")}
	case models.StatusCompleted:
		return []Notice{
			customer(TypeOrderCompleted, "주문이 완료되었습니다", "주문이 성공적으로 완료되었습니다. 이용해 주셔서 감사합니다."),
			owner(TypeOrderCompleted, "주문이 완료되었습니다", fmt.Sprintf("주문번호 %s이 성공적으로 완료되었습니다.", o.OrderNumber)),
		}
	case models.StatusCanceled:
		return []Notice{
			customer(TypeOrderCanceled, "주문이 취소되었습니다", "회원님의 주문이 취소되었습니다."),
			owner(TypeOrderCanceled, "주문이 취소되었습니다", fmt.Sprintf("주문번호 %s이 취소되었습니다.", o.OrderNumber)),
		}
	}
	return nil
}

// templateVars fills every variable any order template may reference.
func templateVars(o *models.Order, store *models.StoreInfo, link string) map[string]string {
	name := defaultCustomerName
	if o.CustomerName != nil && *o.CustomerName != "" {
		name = *o.CustomerName
	}
	return map[string]string{
		"storeName":    storeName(store),
		"orderNumber":  o.OrderNumber,
		"orderName":    orderName(o),
		"time":         preparationMinutes,
		"customerName": name,
		"reason":       rejectReason(o),
		"link":         link,
	}
}

func orderName(o *models.Order) string {
	if len(o.Items) == 0 {
		return ""
	}
	if len(o.Items) == 1 {
		return o.Items[0].MenuName
	}
	return fmt.Sprintf("%s 외 %d개", o.Items[0].MenuName, len(o.Items)-1)
}

func rejectReason(o *models.Order) string {
	if o.RejectionReason != nil && *o.RejectionReason != "" {
		return *o.RejectionReason
	}
	return defaultRejectReason
}

func storeName(s *models.StoreInfo) string {
	if s == nil || s.Name == "" {
		return defaultStoreName
	}
	return s.Name
}
