package expand

import (
	"fmt"
	"strings"

	"github.com/samuelitis/seniorBuddy-api-server/internal/domain"
)

// Notification titles shown on the device.
const (
	medicationTitle = "약드세요!"
	hospitalTitle   = "병원 예약"
)

// hospitalReplacer smooths the spoken form: "3시 0분에" → "3시에",
// "3시 30분에" → "3시반에".
var hospitalReplacer = strings.NewReplacer(" 0분", "", " 30분", "반")

// hospitalBody builds the appointment notification text: period (오전/오후),
// 12-hour clock, content and optional extra info.
func hospitalBody(at domain.Clock, content, info string) string {
	hour, minute := at.Hour(), at.Minute()
	period := "오전"
	display := hour
	if hour < 12 {
		if hour == 0 {
			display = 12
		}
	} else {
		period = "오후"
		if hour > 12 {
			display = hour - 12
		}
	}
	body := fmt.Sprintf("%s %d시 %d분에 %s 방문일정이 있습니다.", period, display, minute, content)
	if info != "" {
		body += ", " + info
	}
	return hospitalReplacer.Replace(body)
}
