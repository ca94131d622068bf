package domain

import "encoding/json"

// CompanyUser — участник компании, как его отдает user-service.
// Флаг подписки НАМЕРЕННО не bool: внешний сервис присылает 0/1,
// но на практике прилетают и строки, и null. Мы сохраняем сырое
// значение и классифицируем его явно (см. Eligibility).
type CompanyUser struct {
	Email        string `json:"email"`
	IsSubscribed any    `json:"is_subscribed"`
}

// Eligibility — трёхзначный результат проверки подписки.
type Eligibility int

const (
	// Subscribed — флаг строго равен 1, письмо отправляем
	Subscribed Eligibility = iota
	// Unsubscribed — флаг строго равен 0, пропуск логируется как info
	Unsubscribed
	// UnknownSubscription — флаг неожиданной формы, пропуск логируется как warning
	UnknownSubscription
)

// Eligibility сравнивает флаг подписки на РАВЕНСТВО сентинелу 1,
// а не на truthy. encoding/json декодирует числа в float64,
// остальные ветки нужны для значений, собранных в коде.
func (u CompanyUser) Eligibility() Eligibility {
	switch v := u.IsSubscribed.(type) {
	case float64:
		if v == 1 {
			return Subscribed
		}
		if v == 0 {
			return Unsubscribed
		}
	case int:
		if v == 1 {
			return Subscribed
		}
		if v == 0 {
			return Unsubscribed
		}
	case json.Number:
		if v.String() == "1" {
			return Subscribed
		}
		if v.String() == "0" {
			return Unsubscribed
		}
	}
	return UnknownSubscription
}

// NotificationMessage — payload очереди. Собирается рекордером один раз
// после успешной записи аудита и читается консьюмером как снимок:
// изменения подписок после публикации на него не влияют.
type NotificationMessage struct {
	CompanyID   string        `json:"company_id"`
	FeatureName string        `json:"feature_name"` // entityId породившей записи
	Values      any           `json:"values"`       // details породившей записи
	Users       []CompanyUser `json:"users"`        // снимок на момент публикации
}
