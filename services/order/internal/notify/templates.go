package notify

import (
	"strings"

	"github.com/Skotchmaster/ezpickup/services/order/internal/models"
)

const (
	TemplateOrderReceived   = "ORDER1001"
	TemplatePreparing       = "ORDER1002"
	TemplateReady           = "ORDER1003"
	TemplatePickupCompleted = "ORDER1004"
	TemplateOrderRejected   = "ORDER1005"
)

type Button struct {
	Type       string `json:"type"`
	Name       string `json:"name"`
	LinkMobile string `json:"linkMobile"`
	LinkPC     string `json:"linkPc"`
}

type Template struct {
	Code    string
	Name    string
	Content string
	Buttons []Button
}

var orderButton = []Button{{Type: "WL", Name: "주문 확인하기", LinkMobile: "{{link}}", LinkPC: "{{link}}"}}

var templates = map[string]Template{
	TemplatePreparing: {
		Code: TemplatePreparing,
		Name: "주문수락",
		Content: "[{{storeName}}] 주문수락\n\n" +
			"주문번호: {{orderNumber}}\n" +
			"{{orderName}} 메뉴가 준비중입니다.\n" +
			"{{time}}분 후 방문해주세요.\n\n" +
			"※ 매장 운영 사정에 따라 준비시간이 변경될 수 있습니다.",
		Buttons: orderButton,
	},
	TemplateReady: {
		Code: TemplateReady,
		Name: "주문완료",
		Content: "[{{storeName}}] 준비완료\n\n" +
			"주문번호: {{orderNumber}}\n" +
			"주문하신 메뉴가 준비 완료되었습니다.\n" +
			"매장으로 방문해주세요.\n\n" +
			"감사합니다.",
		Buttons: orderButton,
	},
	TemplateOrderRejected: {
		Code: TemplateOrderRejected,
		Name: "주문취소",
		Content: "[{{storeName}}] 주문취소 안내\n\n" +
			"{{customerName}}고객님, 죄송합니다.\n" +
			"주문번호 {{orderNumber}}가 아래 사유로 취소되었습니다.\n\n" +
			"▶ 취소사유: {{reason}}\n\n" +
			"다음에 더 나은 서비스로 찾아뵙겠습니다.\n" +
			"감사합니다.",
		Buttons: orderButton,
	},
	TemplatePickupCompleted: {
		Code: TemplatePickupCompleted,
		Name: "픽업완료",
		Content: "[{{storeName}}] 픽업완료\n\n" +
			"주문번호: {{orderNumber}}\n" +
			"픽업이 완료되었습니다.\n" +
			"이용해주셔서 감사합니다. 맛있게 드세요!",
	},
}

// Statuses without an entry send no templated message.
var statusTemplates = map[models.OrderStatus]string{
	models.StatusPreparing: TemplatePreparing,
	models.StatusReady:     TemplateReady,
	models.StatusCompleted: TemplatePickupCompleted,
	models.StatusRejected:  TemplateOrderRejected,
}

func TemplateFor(status models.OrderStatus) (Template, bool) {
	code, ok := statusTemplates[status]
	if !ok {
		return Template{}, false
	}
	t, ok := templates[code]
	return t, ok
}

func Render(s string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(s)
}
